package model

import (
	"sort"
	"strings"
)

// TableSchema describes the structure of a single table.
type TableSchema struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_key"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

// Column describes a single column within a table.
type Column struct {
	Name            string  `json:"name"`
	Position        int     `json:"position"`
	Type            string  `json:"db_type"`
	Nullable        bool    `json:"nullable"`
	Default         *string `json:"default,omitempty"`
	IsPrimaryKey    bool    `json:"is_primary_key"`
	IsAutoIncrement bool    `json:"is_auto_increment"`
}

// ForeignKey describes a foreign key constraint between two tables.
type ForeignKey struct {
	ColumnName       string `json:"column_name"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// ColumnSet is the result of fetching a table's columns: the plain columns
// in physical order with foreign-key columns removed, and a map from each
// foreign-key column to the table it references.
type ColumnSet struct {
	Table         string            `json:"table"`
	Columns       []string          `json:"columns"`
	Relationships map[string]string `json:"relationships"`
}

// PropertyNames joins the columns the way they are embedded in prompts.
func (c ColumnSet) PropertyNames() string {
	return strings.Join(c.Columns, ",")
}

// FormatRelationships renders a relationship map deterministically, sorted
// by column name: {dept_id: department, owner_id: user}.
func FormatRelationships(rel map[string]string) string {
	keys := make([]string, 0, len(rel))
	for k := range rel {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + rel[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ColumnDef is a column to be created, as entered in the schema editor.
type ColumnDef struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key"`
}

// Definition renders the column the way the schema editor lists pending
// columns, e.g. "id INT PRIMARY KEY".
func (d ColumnDef) Definition() string {
	def := d.Name + " " + d.Type
	if d.PrimaryKey {
		def += " PRIMARY KEY"
	}
	return def
}
