package openapi

import (
	"encoding/json"
	"testing"

	"github.com/faucetdb/crudgen/internal/model"
)

func TestMapDBType(t *testing.T) {
	tests := []struct {
		dbType     string
		wantType   string
		wantFormat string
	}{
		{"int", "integer", "int32"},
		{"INT", "integer", "int32"},
		{"int(11)", "integer", "int32"},
		{"int unsigned", "integer", "int32"},
		{"bigint(20) unsigned", "integer", "int64"},
		{"varchar(255)", "string", ""},
		{"character varying", "string", ""},
		{"decimal(10,2)", "number", "double"},
		{"date", "string", "date"},
		{"datetime", "string", "date-time"},
		{"timestamp with time zone", "string", "date-time"},
		{"boolean", "boolean", ""},
		{"tinyint(1)", "integer", "int32"},
		{"uuid", "string", "uuid"},
		{"jsonb", "object", ""},
		{"geometry", "string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			got := MapDBType(tt.dbType)
			if got.Type != tt.wantType || got.Format != tt.wantFormat {
				t.Errorf("MapDBType(%q) = {%q, %q}, want {%q, %q}",
					tt.dbType, got.Type, got.Format, tt.wantType, tt.wantFormat)
			}
		})
	}
}

func TestGenerateCoversAPI(t *testing.T) {
	doc := Generate("http://localhost:8080", "1.2.3")

	if doc.Info.Version != "1.2.3" {
		t.Errorf("version = %q", doc.Info.Version)
	}

	wantPaths := []string{
		"/api/v1/tables",
		"/api/v1/tables/{table}",
		"/api/v1/tables/{table}/columns",
		"/api/v1/generate/crud",
		"/api/v1/generate/layers",
		"/api/v1/generate/stream",
		"/api/v1/session",
		"/api/v1/session/history",
		"/api/v1/session/pending-columns",
		"/api/v1/relationships",
		"/api/v1/schema/tables",
		"/api/v1/schema/tables/{table}",
		"/api/v1/schema/tables/{table}/columns",
		"/api/v1/schema/tables/{table}/columns/{column}",
		"/api/v1/frameworks",
		"/api/v1/datatypes",
		"/api/v1/layers",
	}
	for _, p := range wantPaths {
		if doc.Paths.Find(p) == nil {
			t.Errorf("missing path %s", p)
		}
	}

	item := doc.Paths.Find("/api/v1/schema/tables/{table}/columns/{column}")
	if item.Delete == nil || item.Patch == nil {
		t.Error("column path should support DELETE and PATCH")
	}
}

func TestGenerateMarshalsToJSON(t *testing.T) {
	data, err := json.Marshal(Generate("/", "dev"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v", raw["openapi"])
	}
}

func TestTableComponent(t *testing.T) {
	table := model.TableSchema{
		Name: "employee",
		Columns: []model.Column{
			{Name: "id", Type: "int", IsPrimaryKey: true, IsAutoIncrement: true},
			{Name: "name", Type: "varchar(50)", Nullable: true},
			{Name: "hired", Type: "date"},
		},
	}

	s := TableComponent(table).Value
	if s.Title != "employee" {
		t.Errorf("title = %q", s.Title)
	}
	if len(s.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(s.Properties))
	}
	id := s.Properties["id"].Value
	if !id.Type.Is("integer") || !id.ReadOnly {
		t.Errorf("id schema = %+v", id)
	}
	if !s.Properties["name"].Value.Nullable {
		t.Error("name should be nullable")
	}
	if s.Properties["hired"].Value.Format != "date" {
		t.Errorf("hired format = %q", s.Properties["hired"].Value.Format)
	}
	if len(s.Required) != 1 || s.Required[0] != "id" {
		t.Errorf("required = %v", s.Required)
	}
}
