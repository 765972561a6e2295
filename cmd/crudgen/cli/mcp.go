package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	cmcp "github.com/faucetdb/crudgen/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes schema inspection
and code generation as tools for AI agents. Supports stdio (default) and HTTP
transports.

In stdio mode the server talks JSON-RPC over stdin/stdout, for clients that
launch crudgen as a subprocess.`,
		Example: `  crudgen mcp                              # stdio mode
  crudgen mcp --transport http --port 3001  # Streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(transport string, port int) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := connectDatasource(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect datasource: %w", err)
	}
	defer registry.CloseAll()

	var generator cmcp.Generator
	if g, err := newGenerator(cfg, logger); err != nil {
		logger.Warn("code generation tools disabled", "error", err)
	} else {
		generator = g
	}

	mcpSrv := cmcp.NewMCPServer(registry, generator, cfg.Output.BaseDir, versionString(), logger)

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
