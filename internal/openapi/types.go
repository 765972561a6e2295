package openapi

import "strings"

// TypeMapping is the JSON Schema type/format a column type maps to.
type TypeMapping struct {
	Type   string // string, integer, number, boolean, object
	Format string // int32, int64, float, double, date, date-time, uuid, byte
}

// dbTypeToOpenAPI covers the MySQL, PostgreSQL and SQLite types the
// inspector reports. Keys are lowercase without length or precision.
var dbTypeToOpenAPI = map[string]TypeMapping{
	// Integer types
	"int":       {"integer", "int32"},
	"integer":   {"integer", "int32"},
	"mediumint": {"integer", "int32"},
	"smallint":  {"integer", "int32"},
	"tinyint":   {"integer", "int32"},
	"bigint":    {"integer", "int64"},
	"serial":    {"integer", "int32"},
	"bigserial": {"integer", "int64"},

	// Float types
	"float":            {"number", "float"},
	"real":             {"number", "float"},
	"double":           {"number", "double"},
	"double precision": {"number", "double"},
	"decimal":          {"number", "double"},
	"numeric":          {"number", "double"},

	// String types
	"varchar":           {"string", ""},
	"char":              {"string", ""},
	"character":         {"string", ""},
	"character varying": {"string", ""},
	"text":              {"string", ""},
	"mediumtext":        {"string", ""},
	"longtext":          {"string", ""},
	"enum":              {"string", ""},

	// Date/time types
	"date":                        {"string", "date"},
	"datetime":                    {"string", "date-time"},
	"timestamp":                   {"string", "date-time"},
	"timestamptz":                 {"string", "date-time"},
	"timestamp with time zone":    {"string", "date-time"},
	"timestamp without time zone": {"string", "date-time"},
	"time":                        {"string", "time"},

	// Boolean
	"boolean": {"boolean", ""},
	"bool":    {"boolean", ""},
	"bit":     {"boolean", ""},

	// Binary
	"bytea":     {"string", "byte"},
	"binary":    {"string", "byte"},
	"varbinary": {"string", "byte"},
	"blob":      {"string", "byte"},

	"uuid":  {"string", "uuid"},
	"json":  {"object", ""},
	"jsonb": {"object", ""},
}

// MapDBType converts a database column type to an OpenAPI type mapping.
// Falls back to {"string", ""} for unknown types.
func MapDBType(dbType string) TypeMapping {
	normalized := strings.ToLower(strings.TrimSpace(dbType))

	// "varchar(255)" -> "varchar"
	if idx := strings.IndexByte(normalized, '('); idx >= 0 {
		normalized = normalized[:idx]
	}
	// "int unsigned" -> "int"
	normalized = strings.TrimSpace(strings.TrimSuffix(normalized, " unsigned"))

	if m, ok := dbTypeToOpenAPI[normalized]; ok {
		return m
	}
	return TypeMapping{"string", ""}
}
