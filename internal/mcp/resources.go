package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/crudgen/internal/openapi"
)

const (
	tablesURI       = "crudgen://tables"
	schemaURIPrefix = "crudgen://schema/"
)

// registerResources registers the table list and per-table schema resources.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			tablesURI,
			"Tables",
			mcp.WithResourceDescription("Tables of the connected database"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleTablesResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			schemaURIPrefix+"{table}",
			"Table Schema",
			mcp.WithTemplateDescription("Column detail and JSON Schema of a single table"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleSchemaResource,
	)
}

func (s *MCPServer) handleTablesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	conn, err := s.registry.Default()
	if err != nil {
		return nil, fmt.Errorf("no datasource connected: %w", err)
	}
	names, err := conn.GetTableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	b, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tables: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      tablesURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func (s *MCPServer) handleSchemaResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	table := strings.TrimPrefix(uri, schemaURIPrefix)
	if table == "" || table == uri {
		return nil, fmt.Errorf("invalid schema URI %q: expected %s{table}", uri, schemaURIPrefix)
	}

	conn, err := s.registry.Default()
	if err != nil {
		return nil, fmt.Errorf("no datasource connected: %w", err)
	}
	schema, err := conn.IntrospectTable(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect %q: %w", table, err)
	}

	b, err := json.MarshalIndent(map[string]interface{}{
		"table":       schema,
		"json_schema": openapi.TableComponent(*schema),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
