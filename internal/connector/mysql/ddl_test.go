package mysql

import (
	"errors"
	"testing"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
)

// newTestConnector creates a MySQLConnector with a known schema name
// and no database connection, suitable for testing statement building.
func newTestConnector() *MySQLConnector {
	return &MySQLConnector{schemaName: "testdb"}
}

func TestQuoteIdentifier(t *testing.T) {
	c := newTestConnector()
	if got := c.QuoteIdentifier("we`ird"); got != "`we``ird`" {
		t.Errorf("QuoteIdentifier() = %q", got)
	}
}

func TestBuildCreateTable(t *testing.T) {
	c := newTestConnector()

	tests := []struct {
		name    string
		table   string
		columns []model.ColumnDef
		want    string
		wantErr error
	}{
		{
			name:  "employee",
			table: "employee",
			columns: []model.ColumnDef{
				{Name: "id", Type: "INT", PrimaryKey: true},
				{Name: "name", Type: "varchar(50)"},
			},
			want: "CREATE TABLE `testdb`.`employee` (`id` INT PRIMARY KEY, `name` VARCHAR(50))",
		},
		{
			name:    "no columns",
			table:   "empty",
			wantErr: connector.ErrInvalidChange,
		},
		{
			name:    "bad table name",
			table:   "x; DROP DATABASE y",
			columns: []model.ColumnDef{{Name: "id", Type: "INT"}},
			wantErr: connector.ErrInvalidIdentifier,
		},
		{
			name:    "type outside catalogue",
			table:   "t",
			columns: []model.ColumnDef{{Name: "id", Type: "INT) ENGINE=x; --"}},
			wantErr: connector.ErrInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.BuildCreateTable(tt.table, tt.columns)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SQL mismatch\n got: %s\nwant: %s", got, tt.want)
			}
		})
	}
}

func TestBuildAlterTable(t *testing.T) {
	c := newTestConnector()

	tests := []struct {
		name   string
		change connector.SchemaChange
		want   string
	}{
		{
			name:   "add column",
			change: connector.SchemaChange{Type: connector.ChangeAddColumn, Column: "age", ColType: "INT"},
			want:   "ALTER TABLE `testdb`.`employee` ADD COLUMN `age` INT",
		},
		{
			name:   "drop column",
			change: connector.SchemaChange{Type: connector.ChangeDropColumn, Column: "age"},
			want:   "ALTER TABLE `testdb`.`employee` DROP COLUMN `age`",
		},
		{
			name:   "rename defaults to varchar 255",
			change: connector.SchemaChange{Type: connector.ChangeRenameColumn, Column: "name", NewName: "full_name"},
			want:   "ALTER TABLE `testdb`.`employee` CHANGE `name` `full_name` VARCHAR(255)",
		},
		{
			name:   "rename with explicit type",
			change: connector.SchemaChange{Type: connector.ChangeRenameColumn, Column: "name", NewName: "full_name", ColType: "VARCHAR(100)"},
			want:   "ALTER TABLE `testdb`.`employee` CHANGE `name` `full_name` VARCHAR(100)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.BuildAlterTable("employee", tt.change)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SQL mismatch\n got: %s\nwant: %s", got, tt.want)
			}
		})
	}
}

func TestBuildDropTable(t *testing.T) {
	c := newTestConnector()
	got, err := c.BuildDropTable("employee")
	if err != nil {
		t.Fatal(err)
	}
	if want := "DROP TABLE IF EXISTS `testdb`.`employee`"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if _, err := c.BuildDropTable(""); !errors.Is(err, connector.ErrInvalidIdentifier) {
		t.Errorf("empty name: got %v", err)
	}
}

func TestAlterTableValidatesBeforeExecuting(t *testing.T) {
	// db is nil: any attempt to execute would panic.
	c := newTestConnector()
	err := c.AlterTable(t.Context(), "employee", []connector.SchemaChange{
		{Type: connector.ChangeAddColumn, Column: "ok", ColType: "INT"},
		{Type: connector.ChangeAddColumn, Column: "bad", ColType: "JSON"},
	})
	if !errors.Is(err, connector.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestTableFromDescribe(t *testing.T) {
	def := "0"
	rows := []describeRow{
		{Field: "id", Type: "int", Null: "NO", Key: "PRI", Extra: "auto_increment"},
		{Field: "name", Type: "varchar(50)", Null: "YES"},
		{Field: "dept_id", Type: "int", Null: "YES", Key: "MUL", Default: &def},
	}
	fks := []model.ForeignKey{{ColumnName: "dept_id", ReferencedTable: "department", ReferencedColumn: "id"}}

	ts := tableFromDescribe("employee", rows, fks)

	if len(ts.PrimaryKey) != 1 || ts.PrimaryKey[0] != "id" {
		t.Errorf("PrimaryKey = %v", ts.PrimaryKey)
	}
	if !ts.Columns[0].IsAutoIncrement || !ts.Columns[0].IsPrimaryKey || ts.Columns[0].Nullable {
		t.Errorf("id column = %+v", ts.Columns[0])
	}
	if ts.Columns[2].Position != 3 || ts.Columns[2].Default == nil || *ts.Columns[2].Default != "0" {
		t.Errorf("dept_id column = %+v", ts.Columns[2])
	}
	if len(ts.ForeignKeys) != 1 {
		t.Errorf("ForeignKeys = %v", ts.ForeignKeys)
	}

	empty := tableFromDescribe("t", nil, nil)
	if empty.ForeignKeys == nil || empty.PrimaryKey == nil {
		t.Error("expected non-nil slices for clean JSON")
	}
}
