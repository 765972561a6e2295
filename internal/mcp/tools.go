package mcp

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/crudgen/internal/codegen"
	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
	"github.com/faucetdb/crudgen/internal/openapi"
	"github.com/faucetdb/crudgen/internal/prompt"
)

// registerTools registers all crudgen MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Schema inspection -----

	srv.AddTool(
		mcp.NewTool("crudgen_list_tables",
			mcp.WithDescription(
				"List the tables of the connected database. Use this first to find "+
					"a table to generate code for.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListTables,
	)

	srv.AddTool(
		mcp.NewTool("crudgen_describe_table",
			mcp.WithDescription(
				"Get the full schema of a table: columns with types, nullability, "+
					"defaults and primary key, plus a JSON Schema for one row.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Name of the table to describe"),
			),
		),
		s.handleDescribeTable,
	)

	srv.AddTool(
		mcp.NewTool("crudgen_fetch_columns",
			mcp.WithDescription(
				"Fetch the columns code is generated from. Foreign-key columns are "+
					"split out into a relationships map (column -> referenced table).",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Name of the table"),
			),
		),
		s.handleFetchColumns,
	)

	// ----- Generation -----

	srv.AddTool(
		mcp.NewTool("crudgen_generate_crud",
			mcp.WithDescription(
				"Generate a complete CRUD stack (controller, service, repository, DTO "+
					"and entity) for a table. Relationships found through foreign keys "+
					"are described to the model.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Name of the table"),
			),
			mcp.WithString("framework",
				mcp.Description("Target framework: \"Spring Boot\" (default) or \".NET Core\""),
			),
			mcp.WithString("direction",
				mcp.Description("Relationship direction: \"Bidirectional\" or \"Unidirectional\""),
			),
		),
		s.handleGenerateCRUD,
	)

	srv.AddTool(
		mcp.NewTool("crudgen_generate_layer",
			mcp.WithDescription(
				"Generate individual layers for a table under a class name, and "+
					"optionally save each one below the output directory.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Name of the table"),
			),
			mcp.WithString("class_name",
				mcp.Required(),
				mcp.Description("Class name the layers are generated for (e.g. Employee)"),
			),
			mcp.WithArray("layers",
				mcp.Description("Layers to generate: Controller, Service, ServiceImplementation, "+
					"Repository, DTO, Entity. Omit for all."),
				mcp.WithStringItems(),
			),
			mcp.WithString("framework",
				mcp.Description("Target framework: \"Spring Boot\" (default) or \".NET Core\""),
			),
			mcp.WithBoolean("save",
				mcp.Description("Write each layer to a file (default false)"),
			),
		),
		s.handleGenerateLayer,
	)

	// ----- Schema editing -----

	srv.AddTool(
		mcp.NewTool("crudgen_alter_table",
			mcp.WithDescription(
				"Add, drop or rename a column. Runs as a dry run unless dry_run is "+
					"false; the SQL is returned either way.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Name of the table"),
			),
			mcp.WithString("action",
				mcp.Required(),
				mcp.Description("One of add_column, drop_column, rename_column"),
			),
			mcp.WithString("column",
				mcp.Required(),
				mcp.Description("Column to add, drop or rename"),
			),
			mcp.WithString("new_name",
				mcp.Description("New column name (rename_column only)"),
			),
			mcp.WithString("type",
				mcp.Description("Column type such as INT or VARCHAR(100)"),
			),
			mcp.WithBoolean("dry_run",
				mcp.Description("Only build the SQL (default true)"),
			),
		),
		s.handleAlterTable,
	)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *MCPServer) handleListTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conn, err := s.registry.Default()
	if err != nil {
		return toolError("no datasource connected: %v", err)
	}
	names, err := conn.GetTableNames(ctx)
	if err != nil {
		return toolError("failed to list tables: %v", err)
	}
	return successJSON(map[string]interface{}{
		"tables": names,
		"count":  len(names),
	})
}

func (s *MCPServer) handleDescribeTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := requireString(request, "table")
	if err != nil {
		return toolError("%v", err)
	}
	conn, err := s.registry.Default()
	if err != nil {
		return toolError("no datasource connected: %v", err)
	}
	schema, err := conn.IntrospectTable(ctx, table)
	if err != nil {
		return toolError("failed to describe table %q: %v", table, err)
	}
	return successJSON(map[string]interface{}{
		"table":       schema,
		"json_schema": openapi.TableComponent(*schema),
	})
}

func (s *MCPServer) handleFetchColumns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	set, errResult := s.fetchColumns(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	return successJSON(map[string]interface{}{
		"table":          set.Table,
		"columns":        set.Columns,
		"relationships":  set.Relationships,
		"property_names": set.PropertyNames(),
	})
}

func (s *MCPServer) handleGenerateCRUD(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.generator == nil {
		return toolError("no generation model configured")
	}
	framework, errResult := frameworkArg(request)
	if errResult != nil {
		return errResult, nil
	}
	direction := optionalString(request, "direction")
	if direction != "" && !slices.Contains(model.RelationshipDirections, direction) {
		return toolError("invalid direction %q (valid: %s)", direction, strings.Join(model.RelationshipDirections, ", "))
	}
	set, errResult := s.fetchColumns(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	code, err := s.generator.GenerateCRUD(ctx, prompt.CRUDInput{
		Properties:    set.PropertyNames(),
		Framework:     framework,
		Relationships: set.Relationships,
		Direction:     direction,
	})
	if err != nil {
		return toolError("generation failed: %v", err)
	}
	return successJSON(map[string]interface{}{
		"table":     set.Table,
		"framework": framework,
		"code":      code,
	})
}

func (s *MCPServer) handleGenerateLayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.generator == nil {
		return toolError("no generation model configured")
	}
	className, err := requireString(request, "class_name")
	if err != nil {
		return toolError("%v", err)
	}
	if !codegen.ValidClassName(className) {
		return toolError("invalid class name %q", className)
	}
	framework, errResult := frameworkArg(request)
	if errResult != nil {
		return errResult, nil
	}
	layers := optionalStringSlice(request, "layers")
	if len(layers) == 0 {
		layers = codegen.Layers
	}
	for _, layer := range layers {
		if _, ok := codegen.Folders[layer]; !ok {
			return toolError("unknown layer %q (valid: %s)", layer, strings.Join(codegen.Layers, ", "))
		}
	}
	set, errResult := s.fetchColumns(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	save := request.GetBool("save", false)
	writer := codegen.NewWriter(s.outputDir, framework)

	results := make([]map[string]interface{}, 0, len(layers))
	for _, layer := range layers {
		code, err := s.generator.GenerateLayer(ctx, layer, className, set.PropertyNames(), framework)
		if err != nil {
			return toolError("generating %s failed: %v", layer, err)
		}
		item := map[string]interface{}{
			"layer": layer,
			"code":  code,
		}
		if save {
			path, err := writer.Save(layer, className, code)
			if err != nil {
				return toolError("saving %s failed: %v", layer, err)
			}
			s.logger.Info("layer saved", "layer", layer, "path", path)
			item["path"] = path
		}
		results = append(results, item)
	}

	return successJSON(map[string]interface{}{
		"table":      set.Table,
		"class_name": className,
		"framework":  framework,
		"layers":     results,
	})
}

func (s *MCPServer) handleAlterTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := requireString(request, "table")
	if err != nil {
		return toolError("%v", err)
	}
	action, err := requireString(request, "action")
	if err != nil {
		return toolError("%v", err)
	}
	column, err := requireString(request, "column")
	if err != nil {
		return toolError("%v", err)
	}
	conn, err := s.registry.Default()
	if err != nil {
		return toolError("no datasource connected: %v", err)
	}

	change := connector.SchemaChange{
		Type:    action,
		Column:  column,
		NewName: optionalString(request, "new_name"),
		ColType: optionalString(request, "type"),
	}
	sql, err := conn.BuildAlterTable(table, change)
	if err != nil {
		return toolError("invalid change: %v", err)
	}

	dryRun := request.GetBool("dry_run", true)
	if !dryRun {
		if err := conn.AlterTable(ctx, table, []connector.SchemaChange{change}); err != nil {
			return toolError("alter table %q failed: %v", table, err)
		}
		s.logger.Info("table altered via MCP", "table", table, "action", action, "column", column)
	}
	return successJSON(map[string]interface{}{
		"table":   table,
		"sql":     sql,
		"dry_run": dryRun,
	})
}

// ---------------------------------------------------------------------------
// Shared argument handling
// ---------------------------------------------------------------------------

// fetchColumns resolves the "table" argument to its column set. A non-nil
// result is a tool error to return as is.
func (s *MCPServer) fetchColumns(ctx context.Context, request mcp.CallToolRequest) (model.ColumnSet, *mcp.CallToolResult) {
	table, err := requireString(request, "table")
	if err != nil {
		return model.ColumnSet{}, mcp.NewToolResultError(err.Error())
	}
	conn, err := s.registry.Default()
	if err != nil {
		return model.ColumnSet{}, mcp.NewToolResultError(fmt.Sprintf("no datasource connected: %v", err))
	}
	set, err := connector.FetchTableColumns(ctx, conn, table)
	if err != nil {
		return model.ColumnSet{}, mcp.NewToolResultError(fmt.Sprintf("failed to fetch columns of %q: %v", table, err))
	}
	return set, nil
}

func frameworkArg(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	framework := optionalString(request, "framework")
	if framework == "" {
		return prompt.SpringBoot, nil
	}
	if !prompt.ValidFramework(framework) {
		return "", mcp.NewToolResultError(fmt.Sprintf("unknown framework %q (valid: %s)",
			framework, strings.Join(prompt.Frameworks, ", ")))
	}
	return framework, nil
}
