package connector

import (
	"errors"
	"strings"
	"testing"

	"github.com/faucetdb/crudgen/internal/model"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"employee", "_tmp", "Order2", "dept_id"}
	for _, name := range valid {
		if err := ValidateIdentifier(name); err != nil {
			t.Errorf("ValidateIdentifier(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "1abc", "drop table x", "a;b", "name`", strings.Repeat("a", 65)}
	for _, name := range invalid {
		if err := ValidateIdentifier(name); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("ValidateIdentifier(%q) = %v, want ErrInvalidIdentifier", name, err)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"INT", "INT"},
		{"int", "INT"},
		{"varchar(50)", "VARCHAR(50)"},
		{" DECIMAL(10, 2) ", "DECIMAL(10,2)"},
		{"boolean", "BOOLEAN"},
	}
	for _, tt := range tests {
		got, err := NormalizeType(tt.in)
		if err != nil {
			t.Errorf("NormalizeType(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := NormalizeType("TEXT; DROP TABLE x"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("expected ErrInvalidType, got %v", err)
	}
}

func TestValidateColumnDefs(t *testing.T) {
	if _, err := ValidateColumnDefs(nil); !errors.Is(err, ErrInvalidChange) {
		t.Errorf("empty list: got %v, want ErrInvalidChange", err)
	}

	dup := []model.ColumnDef{{Name: "id", Type: "INT"}, {Name: "ID", Type: "INT"}}
	if _, err := ValidateColumnDefs(dup); !errors.Is(err, ErrInvalidChange) {
		t.Errorf("duplicate: got %v, want ErrInvalidChange", err)
	}

	got, err := ValidateColumnDefs([]model.ColumnDef{
		{Name: "id", Type: "int", PrimaryKey: true},
		{Name: "name", Type: "varchar(100)"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Type != "INT" || got[1].Type != "VARCHAR(100)" {
		t.Errorf("types not normalized: %+v", got)
	}
}

func TestValidateChange(t *testing.T) {
	tests := []struct {
		name     string
		change   SchemaChange
		wantErr  error
		wantType string
	}{
		{"add normalizes type", SchemaChange{Type: ChangeAddColumn, Column: "age", ColType: "int"}, nil, "INT"},
		{"add requires known type", SchemaChange{Type: ChangeAddColumn, Column: "age", ColType: "BLOB"}, ErrInvalidType, ""},
		{"drop", SchemaChange{Type: ChangeDropColumn, Column: "age"}, nil, ""},
		{"rename defaults type", SchemaChange{Type: ChangeRenameColumn, Column: "nm", NewName: "name"}, nil, RenameDefaultType},
		{"rename keeps type", SchemaChange{Type: ChangeRenameColumn, Column: "nm", NewName: "name", ColType: "char(50)"}, nil, "CHAR(50)"},
		{"rename requires new name", SchemaChange{Type: ChangeRenameColumn, Column: "nm"}, ErrInvalidIdentifier, ""},
		{"bad column", SchemaChange{Type: ChangeDropColumn, Column: "a b"}, ErrInvalidIdentifier, ""},
		{"unknown type", SchemaChange{Type: "modify_column", Column: "a"}, ErrInvalidChange, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateChange(tt.change)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ColType != tt.wantType {
				t.Errorf("ColType = %q, want %q", got.ColType, tt.wantType)
			}
		})
	}
}

func TestColumnList(t *testing.T) {
	quote := func(s string) string { return "`" + s + "`" }
	got := ColumnList([]model.ColumnDef{
		{Name: "id", Type: "INT", PrimaryKey: true},
		{Name: "name", Type: "VARCHAR(50)"},
	}, quote)
	want := "`id` INT PRIMARY KEY, `name` VARCHAR(50)"
	if got != want {
		t.Errorf("ColumnList() = %q, want %q", got, want)
	}
}

func TestSanitizeDSN(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		in     string
		want   string
	}{
		{"mysql bare host", "mysql", "root:secret@localhost:3306/shop", "root:secret@tcp(localhost:3306)/shop"},
		{"mysql missing tcp", "mysql", "root:secret@(localhost:3306)/shop", "root:secret@tcp(localhost:3306)/shop"},
		{"mysql already valid", "mysql", "root:secret@tcp(localhost:3306)/shop", "root:secret@tcp(localhost:3306)/shop"},
		{"postgres special password", "postgres", "postgres://u:p@ss#1@host:5432/db?sslmode=disable", "postgres://u:p@ss%231@host:5432/db?sslmode=disable"},
		{"sqlite untouched", "sqlite", "/tmp/x.db", "/tmp/x.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeDSN(tt.driver, tt.in); got != tt.want {
				t.Errorf("SanitizeDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
