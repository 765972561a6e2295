package connector

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/faucetdb/crudgen/internal/model"
)

func TestSplitForeignKeys(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		fks      []model.ForeignKey
		wantCols []string
		wantRel  map[string]string
	}{
		{
			name:     "no foreign keys keeps every column in order",
			columns:  []string{"id", "name", "email"},
			wantCols: []string{"id", "name", "email"},
			wantRel:  map[string]string{},
		},
		{
			name:    "employee example",
			columns: []string{"id", "name", "dept_id"},
			fks: []model.ForeignKey{
				{ColumnName: "dept_id", ReferencedTable: "department", ReferencedColumn: "id"},
			},
			wantCols: []string{"id", "name"},
			wantRel:  map[string]string{"dept_id": "department"},
		},
		{
			name:    "foreign key in the middle preserves order of the rest",
			columns: []string{"id", "owner_id", "title", "category_id", "created"},
			fks: []model.ForeignKey{
				{ColumnName: "category_id", ReferencedTable: "category"},
				{ColumnName: "owner_id", ReferencedTable: "user"},
			},
			wantCols: []string{"id", "title", "created"},
			wantRel:  map[string]string{"owner_id": "user", "category_id": "category"},
		},
		{
			name:    "primary key that is also a foreign key is removed",
			columns: []string{"user_id", "bio"},
			fks: []model.ForeignKey{
				{ColumnName: "user_id", ReferencedTable: "user"},
			},
			wantCols: []string{"bio"},
			wantRel:  map[string]string{"user_id": "user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rel := SplitForeignKeys(tt.columns, tt.fks)
			if !reflect.DeepEqual(cols, tt.wantCols) {
				t.Errorf("columns = %v, want %v", cols, tt.wantCols)
			}
			if !reflect.DeepEqual(rel, tt.wantRel) {
				t.Errorf("relationships = %v, want %v", rel, tt.wantRel)
			}
			if len(rel) != len(tt.fks) {
				t.Errorf("expected %d relationships, got %d", len(tt.fks), len(rel))
			}
		})
	}
}

func TestFetchTableColumns(t *testing.T) {
	conn := &mockConnector{
		columns: []string{"id", "name", "dept_id"},
		fks: []model.ForeignKey{
			{ColumnName: "dept_id", ReferencedTable: "department", ReferencedColumn: "id"},
		},
	}

	set, err := FetchTableColumns(context.Background(), conn, "employee")
	if err != nil {
		t.Fatalf("FetchTableColumns: %v", err)
	}
	if set.Table != "employee" {
		t.Errorf("Table = %q", set.Table)
	}
	if set.PropertyNames() != "id,name" {
		t.Errorf("PropertyNames() = %q, want %q", set.PropertyNames(), "id,name")
	}
	if set.Relationships["dept_id"] != "department" {
		t.Errorf("Relationships = %v", set.Relationships)
	}
}

func TestFetchTableColumnsPropagatesDriverError(t *testing.T) {
	driverErr := errors.New("Error 1146: Table 'shop.nope' doesn't exist")
	conn := &mockConnector{err: driverErr}

	_, err := FetchTableColumns(context.Background(), conn, "nope")
	if !errors.Is(err, driverErr) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}
