// Package openapi describes the crudgen HTTP API and renders table
// structures as JSON Schema.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/faucetdb/crudgen/internal/codegen"
	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
	"github.com/faucetdb/crudgen/internal/prompt"
)

// Generate builds the OpenAPI 3.1 document for the crudgen API.
func Generate(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "crudgen API",
			Description: "Inspect and edit database tables and generate CRUD code for them.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"sessionCookie": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{Type: "apiKey", In: "cookie", Name: "crudgen_session"},
		},
	}
	doc.Components = &components
	doc.Security = openapi3.SecurityRequirements{{"sessionCookie": {}}}

	doc.Paths = openapi3.NewPaths()
	addSchemaPaths(doc)
	addGeneratePaths(doc)
	addSessionPaths(doc)
	addCatalogPaths(doc)
	return doc
}

// TableComponent renders a table as an object schema, one property per
// column, with primary-key columns required.
func TableComponent(table model.TableSchema) *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	var required []string
	for _, col := range table.Columns {
		s := columnTypeSchema(MapDBType(col.Type))
		if col.Nullable {
			s.Nullable = true
		}
		if col.IsAutoIncrement {
			s.ReadOnly = true
		}
		props[col.Name] = &openapi3.SchemaRef{Value: s}
		if col.IsPrimaryKey {
			required = append(required, col.Name)
		}
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Title:      table.Name,
			Properties: props,
			Required:   required,
		},
	}
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addSchemaPaths(doc *openapi3.T) {
	tableParam := pathParam("table", "Table name.")
	columnParam := pathParam("column", "Column name.")
	dryRun := boolQuery("dry_run", "Return the statement without executing it.")
	success := ref("SuccessResponse")

	doc.Paths.Set("/api/v1/tables", &openapi3.PathItem{
		Get: operation("schema", "List tables", "listTables", nil, nil,
			"200", "Table names", resourceOf(stringArray())),
	})
	doc.Paths.Set("/api/v1/tables/{table}", &openapi3.PathItem{
		Get: operation("schema", "Describe a table", "describeTable", params(tableParam), nil,
			"200", "Table structure", ref("TableSchema")),
	})
	doc.Paths.Set("/api/v1/tables/{table}/columns", &openapi3.PathItem{
		Post: operation("schema", "Fetch columns into a session slot", "fetchColumns",
			params(tableParam, slotQuery()), nil,
			"200", "Plain columns and foreign-key map", ref("ColumnSet")),
	})
	doc.Paths.Set("/api/v1/schema/tables", &openapi3.PathItem{
		Post: operation("ddl", "Create a table", "createTable", params(dryRun),
			body(object(openapi3.Schemas{
				"table":   stringSchema("Table name."),
				"columns": arrayOf(ref("ColumnDef")),
			}, "table")),
			"201", "Table created", success),
	})
	doc.Paths.Set("/api/v1/schema/tables/{table}", &openapi3.PathItem{
		Delete: operation("ddl", "Drop a table", "dropTable", params(tableParam, dryRun), nil,
			"200", "Table dropped", success),
	})
	doc.Paths.Set("/api/v1/schema/tables/{table}/columns", &openapi3.PathItem{
		Post: operation("ddl", "Add a column", "addColumn", params(tableParam, dryRun),
			body(object(openapi3.Schemas{
				"name": stringSchema("Column name."),
				"type": enumSchema("Column type.", connector.Datatypes),
			}, "name", "type")),
			"200", "Column added", success),
	})
	doc.Paths.Set("/api/v1/schema/tables/{table}/columns/{column}", &openapi3.PathItem{
		Delete: operation("ddl", "Remove a column", "dropColumn", params(tableParam, columnParam, dryRun), nil,
			"200", "Column removed", success),
		Patch: operation("ddl", "Rename a column", "renameColumn", params(tableParam, columnParam, dryRun),
			body(object(openapi3.Schemas{
				"new_name": stringSchema("New column name."),
				"type":     stringSchema("Column type for MySQL CHANGE; defaults to " + connector.RenameDefaultType + "."),
			}, "new_name")),
			"200", "Column renamed", success),
	})
}

func addGeneratePaths(doc *openapi3.T) {
	slots := arrayOf(enumSchema("Slot.", []string{"default", "first", "second"}))

	doc.Paths.Set("/api/v1/generate/crud", &openapi3.PathItem{
		Post: operation("generate", "Generate CRUD code", "generateCrud", nil,
			body(object(openapi3.Schemas{
				"slots":        slots,
				"framework":    enumSchema("Target framework.", prompt.Frameworks),
				"relationship": stringSchema("Logical relationship key whose direction is included in the prompt."),
			})),
			"200", "Generated code per slot and the full history", object(openapi3.Schemas{
				"framework": stringSchema(""),
				"resource": arrayOf(object(openapi3.Schemas{
					"slot":  stringSchema(""),
					"table": stringSchema(""),
					"code":  stringSchema(""),
				})),
				"history": arrayOf(ref("HistoryEntry")),
			})),
	})
	doc.Paths.Set("/api/v1/generate/layers", &openapi3.PathItem{
		Post: operation("generate", "Generate and save every layer", "generateLayers", nil,
			body(object(openapi3.Schemas{
				"slot":       stringSchema("Slot to read columns from."),
				"class_name": stringSchema("Class name."),
				"framework":  enumSchema("Target framework.", prompt.Frameworks),
				"layers":     arrayOf(enumSchema("Layer.", codegen.Layers)),
				"save":       boolSchema("Write each layer to its source file. Defaults to true."),
			}, "class_name")),
			"200", "Generated layers", object(openapi3.Schemas{
				"class_name": stringSchema(""),
				"framework":  stringSchema(""),
				"resource": arrayOf(object(openapi3.Schemas{
					"layer": stringSchema(""),
					"code":  stringSchema(""),
					"path":  stringSchema("File written, when saved."),
				})),
			})),
	})

	stream := operation("generate", "Stream the latest generated code", "streamCode",
		params(slotQuery(), stringQuery("view", "\"schema\" selects the schema editor's pace.")), nil,
		"200", "Event stream", nil)
	streamDesc := "Server-Sent Events: one \"word\" event per word, then \"done\"."
	stream.Responses.Set("200", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: &streamDesc,
		Content:     openapi3.Content{"text/event-stream": &openapi3.MediaType{Schema: stringSchema("")}},
	}})
	doc.Paths.Set("/api/v1/generate/stream", &openapi3.PathItem{Get: stream})
}

func addSessionPaths(doc *openapi3.T) {
	success := ref("SuccessResponse")
	pending := object(openapi3.Schemas{
		"resource":    arrayOf(ref("ColumnDef")),
		"definitions": stringArray(),
	})

	doc.Paths.Set("/api/v1/session", &openapi3.PathItem{
		Get: operation("session", "Get session state", "getSession", nil, nil,
			"200", "Session state", ref("SessionState")),
		Delete: operation("session", "Reset the session", "resetSession", nil, nil,
			"200", "Session cleared", success),
	})
	doc.Paths.Set("/api/v1/session/history", &openapi3.PathItem{
		Get: operation("session", "Conversation history", "getHistory", nil, nil,
			"200", "History entries, oldest first", object(openapi3.Schemas{
				"resource":   arrayOf(ref("HistoryEntry")),
				"transcript": stringSchema("Every entry rendered as displayed."),
			})),
	})
	doc.Paths.Set("/api/v1/session/pending-columns", &openapi3.PathItem{
		Post: operation("session", "Add a pending column", "addPendingColumn", nil,
			body(ref("ColumnDef")), "201", "Pending columns", pending),
		Delete: operation("session", "Clear pending columns", "clearPendingColumns", nil, nil,
			"200", "Pending columns", pending),
	})
	doc.Paths.Set("/api/v1/relationships", &openapi3.PathItem{
		Get: operation("session", "List logical relationships", "listRelationships", nil, nil,
			"200", "Relationships keyed by first-second", resourceOf(&openapi3.SchemaRef{Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: ref("LogicalRelationship")},
			}})),
		Post: operation("session", "Declare a logical relationship", "putRelationship", nil,
			body(ref("LogicalRelationship")), "201", "Relationship stored", object(openapi3.Schemas{
				"key":          stringSchema(""),
				"relationship": ref("LogicalRelationship"),
				"message":      stringSchema(""),
			})),
		Delete: operation("session", "Remove a logical relationship", "deleteRelationship",
			params(stringQuery("key", "Relationship key, first-second.")), nil,
			"200", "Relationship removed", success),
	})
}

func addCatalogPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/v1/frameworks", &openapi3.PathItem{
		Get: operation("catalog", "Target frameworks", "listFrameworks", nil, nil,
			"200", "Frameworks", resourceOf(stringArray())),
	})
	doc.Paths.Set("/api/v1/datatypes", &openapi3.PathItem{
		Get: operation("catalog", "Column types", "listDatatypes", nil, nil,
			"200", "Column types accepted by the schema editor", resourceOf(stringArray())),
	})
	doc.Paths.Set("/api/v1/layers", &openapi3.PathItem{
		Get: operation("catalog", "Generated layers", "listLayers", nil, nil,
			"200", "Layers with output folders", object(openapi3.Schemas{
				"resource": arrayOf(object(openapi3.Schemas{
					"name":   stringSchema(""),
					"folder": stringSchema(""),
				})),
				"relationship_types":      stringArray(),
				"relationship_directions": stringArray(),
			})),
	})
}

// ─── Components ─────────────────────────────────────────────────────────────

func componentSchemas() openapi3.Schemas {
	stringMap := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:                 &openapi3.Types{"object"},
		AdditionalProperties: openapi3.AdditionalProperties{Schema: stringSchema("")},
	}}

	return openapi3.Schemas{
		"ErrorResponse": object(openapi3.Schemas{
			"error": object(openapi3.Schemas{
				"code":    intSchema(),
				"message": stringSchema(""),
				"context": {Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
			}),
		}),
		"SuccessResponse": object(openapi3.Schemas{
			"success": boolSchema(""),
			"message": stringSchema(""),
			"sql":     stringSchema("Statement executed, or that would be executed on a dry run."),
		}),
		"ColumnSet": object(openapi3.Schemas{
			"slot":           stringSchema(""),
			"table":          stringSchema(""),
			"columns":        stringArray(),
			"relationships":  stringMap,
			"property_names": stringSchema("Columns joined with commas, as used in prompts."),
		}),
		"ColumnDef": object(openapi3.Schemas{
			"name":        stringSchema(""),
			"type":        enumSchema("", connector.Datatypes),
			"primary_key": boolSchema(""),
		}, "name", "type"),
		"LogicalRelationship": object(openapi3.Schemas{
			"first_table":  stringSchema(""),
			"second_table": stringSchema(""),
			"type":         enumSchema("", model.RelationshipTypes),
			"direction":    enumSchema("", model.RelationshipDirections),
		}, "first_table", "second_table", "type", "direction"),
		"HistoryEntry": object(openapi3.Schemas{
			"id":         intSchema(),
			"framework":  stringSchema(""),
			"content":    stringSchema(""),
			"created_at": {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
		}),
		"TableSchema": object(openapi3.Schemas{
			"name": stringSchema(""),
			"columns": arrayOf(object(openapi3.Schemas{
				"name":              stringSchema(""),
				"position":          intSchema(),
				"db_type":           stringSchema(""),
				"nullable":          boolSchema(""),
				"default":           stringSchema(""),
				"is_primary_key":    boolSchema(""),
				"is_auto_increment": boolSchema(""),
			})),
			"primary_key": stringArray(),
			"foreign_keys": arrayOf(object(openapi3.Schemas{
				"column_name":       stringSchema(""),
				"referenced_table":  stringSchema(""),
				"referenced_column": stringSchema(""),
			})),
		}),
		"SessionState": object(openapi3.Schemas{
			"id":                    stringSchema(""),
			"columns":               {Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
			"generated_code":        stringMap,
			"pending_columns":       arrayOf(ref("ColumnDef")),
			"logical_relationships": {Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
			"history":               arrayOf(ref("HistoryEntry")),
		}),
	}
}

// ─── Builders ───────────────────────────────────────────────────────────────

func operation(tag, summary, id string, ps openapi3.Parameters, rb *openapi3.RequestBodyRef, status, desc string, schema *openapi3.SchemaRef) *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		OperationID: id,
		Parameters:  ps,
		RequestBody: rb,
		Responses:   newResponses(status, desc, schema),
	}
}

func params(ps ...*openapi3.Parameter) openapi3.Parameters {
	out := make(openapi3.Parameters, len(ps))
	for i, p := range ps {
		out[i] = &openapi3.ParameterRef{Value: p}
	}
	return out
}

func pathParam(name, desc string) *openapi3.Parameter {
	return openapi3.NewPathParameter(name).WithDescription(desc).WithSchema(openapi3.NewStringSchema())
}

func stringQuery(name, desc string) *openapi3.Parameter {
	return openapi3.NewQueryParameter(name).WithDescription(desc).WithSchema(openapi3.NewStringSchema())
}

func boolQuery(name, desc string) *openapi3.Parameter {
	return openapi3.NewQueryParameter(name).WithDescription(desc).WithSchema(openapi3.NewBoolSchema())
}

func slotQuery() *openapi3.Parameter {
	return openapi3.NewQueryParameter("slot").
		WithDescription("Session slot: default, first or second.").
		WithSchema(openapi3.NewStringSchema().WithEnum("default", "first", "second"))
}

func body(schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(schema),
	}
}

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func object(props openapi3.Schemas, required ...string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   required,
	}}
}

func resourceOf(schema *openapi3.SchemaRef) *openapi3.SchemaRef {
	return object(openapi3.Schemas{"resource": schema})
}

func arrayOf(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: items}}
}

func stringArray() *openapi3.SchemaRef {
	return arrayOf(stringSchema(""))
}

func stringSchema(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc}}
}

func enumSchema(desc string, values []string) *openapi3.SchemaRef {
	s := &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc}
	for _, v := range values {
		s.Enum = append(s.Enum, v)
	}
	return &openapi3.SchemaRef{Value: s}
}

func boolSchema(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}, Description: desc}}
}

func intSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}
}

func columnTypeSchema(m TypeMapping) *openapi3.Schema {
	s := &openapi3.Schema{Type: &openapi3.Types{m.Type}}
	if m.Format != "" {
		s.Format = m.Format
	}
	return s
}

// newResponses builds a Responses map with a success response and standard error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	success := &openapi3.Response{Description: &successDesc}
	if schema != nil {
		success.Content = openapi3.NewContentWithJSONSchemaRef(schema)
	}
	responses.Set(statusCode, &openapi3.ResponseRef{Value: success})

	errorRef := ref("ErrorResponse")
	for _, e := range []struct{ code, desc string }{
		{"400", "Bad request"},
		{"404", "Not found"},
		{"500", "Internal server error"},
	} {
		desc := e.desc
		responses.Set(e.code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}
