package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/prompt"
)

// Generator produces code from the generation model.
type Generator interface {
	GenerateCRUD(ctx context.Context, in prompt.CRUDInput) (string, error)
	GenerateLayer(ctx context.Context, layer, className, properties, framework string) (string, error)
}

// MCPServer wraps the mcp-go server with crudgen tool and resource
// registrations. Agents can inspect the connected schema and generate CRUD
// code from it. Tools are stateless: everything a call needs is passed as
// arguments.
type MCPServer struct {
	registry  *connector.Registry
	generator Generator
	outputDir string
	logger    *slog.Logger
	server    *server.MCPServer
}

// NewMCPServer creates an MCPServer with all crudgen tools and resources
// registered. generator may be nil, in which case the generation tools
// report that no model is configured.
func NewMCPServer(registry *connector.Registry, generator Generator, outputDir, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		registry:  registry,
		generator: generator,
		outputDir: outputDir,
		logger:    logger,
	}

	mcpServer := server.NewMCPServer(
		"crudgen",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout for clients that launch crudgen
// as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP serves MCP in Streamable HTTP mode on addr (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
