package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
)

// openTestDB connects to a fresh database file under t.TempDir().
func openTestDB(t *testing.T) *SQLiteConnector {
	t.Helper()
	c := New().(*SQLiteConnector)
	dsn := filepath.Join(t.TempDir(), "test.db")
	if err := c.Connect(connector.ConnectionConfig{Driver: "sqlite", DSN: dsn}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Disconnect() })
	return c
}

func seedEmployees(t *testing.T, c *SQLiteConnector) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE department (id INTEGER PRIMARY KEY, title VARCHAR(100))`,
		`CREATE TABLE employee (
			id INTEGER PRIMARY KEY,
			name VARCHAR(50),
			dept_id INT REFERENCES department(id)
		)`,
	}
	for _, s := range stmts {
		if _, err := c.DB().Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestWithForeignKeys(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/tmp/a.db", "/tmp/a.db?_pragma=foreign_keys(1)"},
		{"/tmp/a.db?_pragma=busy_timeout(5000)", "/tmp/a.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{"/tmp/a.db?_pragma=foreign_keys(0)", "/tmp/a.db?_pragma=foreign_keys(0)"},
	}
	for _, tt := range tests {
		if got := withForeignKeys(tt.in); got != tt.want {
			t.Errorf("withForeignKeys(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetTableNames(t *testing.T) {
	c := openTestDB(t)

	names, err := c.GetTableNames(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("expected no tables, got %v", names)
	}

	seedEmployees(t, c)
	names, err = c.GetTableNames(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"department", "employee"}) {
		t.Errorf("names = %v", names)
	}
}

func TestFetchTableColumnsEmployee(t *testing.T) {
	c := openTestDB(t)
	seedEmployees(t, c)

	set, err := connector.FetchTableColumns(context.Background(), c, "employee")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(set.Columns, []string{"id", "name"}) {
		t.Errorf("columns = %v, want [id name]", set.Columns)
	}
	if !reflect.DeepEqual(set.Relationships, map[string]string{"dept_id": "department"}) {
		t.Errorf("relationships = %v", set.Relationships)
	}
}

func TestDescribeMissingTable(t *testing.T) {
	c := openTestDB(t)
	_, err := c.DescribeColumns(context.Background(), "nope")
	if !errors.Is(err, connector.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestIntrospectTable(t *testing.T) {
	c := openTestDB(t)
	seedEmployees(t, c)

	ts, err := c.IntrospectTable(context.Background(), "employee")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ts.PrimaryKey, []string{"id"}) {
		t.Errorf("PrimaryKey = %v", ts.PrimaryKey)
	}
	if !ts.Columns[0].IsAutoIncrement {
		t.Error("INTEGER PRIMARY KEY should be reported as auto-increment")
	}
	if len(ts.ForeignKeys) != 1 || ts.ForeignKeys[0].ReferencedColumn != "id" {
		t.Errorf("ForeignKeys = %+v", ts.ForeignKeys)
	}
}

func TestSchemaEditing(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()

	err := c.CreateTable(ctx, "product", []model.ColumnDef{
		{Name: "id", Type: "INT", PrimaryKey: true},
		{Name: "title", Type: "VARCHAR(100)"},
		{Name: "price", Type: "DECIMAL(10,2)"},
	})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	err = c.AlterTable(ctx, "product", []connector.SchemaChange{
		{Type: connector.ChangeAddColumn, Column: "in_stock", ColType: "BOOLEAN"},
		{Type: connector.ChangeRenameColumn, Column: "title", NewName: "name"},
		{Type: connector.ChangeDropColumn, Column: "price"},
	})
	if err != nil {
		t.Fatalf("AlterTable: %v", err)
	}

	cols, err := c.DescribeColumns(ctx, "product")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cols, []string{"id", "name", "in_stock"}) {
		t.Errorf("columns = %v", cols)
	}

	if err := c.DropTable(ctx, "product"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if err := c.DropTable(ctx, "product"); err != nil {
		t.Fatalf("second DropTable: %v", err)
	}
}

func TestAlterTableStopsAtFirstFailure(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()

	if err := c.CreateTable(ctx, "t", []model.ColumnDef{{Name: "id", Type: "INT"}}); err != nil {
		t.Fatal(err)
	}

	err := c.AlterTable(ctx, "t", []connector.SchemaChange{
		{Type: connector.ChangeAddColumn, Column: "extra", ColType: "INT"},
		{Type: connector.ChangeDropColumn, Column: "missing"},
		{Type: connector.ChangeAddColumn, Column: "never", ColType: "INT"},
	})
	if err == nil {
		t.Fatal("expected error dropping a missing column")
	}

	// Statements are independent: the first change stays applied.
	cols, _ := c.DescribeColumns(ctx, "t")
	if !reflect.DeepEqual(cols, []string{"id", "extra"}) {
		t.Errorf("columns = %v, want [id extra]", cols)
	}
}

func TestBuildStatements(t *testing.T) {
	c := &SQLiteConnector{schemaName: "main"}

	got, err := c.BuildCreateTable("employee", []model.ColumnDef{
		{Name: "id", Type: "INT", PrimaryKey: true},
		{Name: "name", Type: "VARCHAR(50)"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := `CREATE TABLE "employee" ("id" INT PRIMARY KEY, "name" VARCHAR(50))`; got != want {
		t.Errorf("create = %s", got)
	}

	got, err = c.BuildAlterTable("employee", connector.SchemaChange{
		Type: connector.ChangeRenameColumn, Column: "name", NewName: "full_name",
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := `ALTER TABLE "employee" RENAME COLUMN "name" TO "full_name"`; got != want {
		t.Errorf("alter = %s", got)
	}
}

func TestPingBeforeConnect(t *testing.T) {
	if err := New().Ping(context.Background()); !errors.Is(err, connector.ErrNotConnected) {
		t.Errorf("Ping() = %v, want ErrNotConnected", err)
	}
}
