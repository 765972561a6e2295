package connector

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/faucetdb/crudgen/internal/model"
)

var (
	// ErrInvalidIdentifier is returned when a table or column name is not a
	// plain SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidType is returned when a column type is not in the datatype
	// catalogue.
	ErrInvalidType = errors.New("unsupported column type")
	// ErrInvalidChange is returned for malformed schema changes.
	ErrInvalidChange = errors.New("invalid schema change")
)

// Datatypes is the catalogue of column types the schema editor offers.
var Datatypes = []string{
	"INT",
	"VARCHAR(20)",
	"VARCHAR(50)",
	"VARCHAR(100)",
	"VARCHAR(255)",
	"DATE",
	"BOOLEAN",
	"DECIMAL(10,2)",
	"CHAR(50)",
}

// RenameDefaultType is the column type a MySQL rename falls back to when the
// caller does not name one, since CHANGE requires a full column definition.
const RenameDefaultType = "VARCHAR(255)"

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier ensures a table or column name is a plain identifier of
// at most 64 characters (the MySQL limit).
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidIdentifier)
	}
	if len(name) > 64 {
		return fmt.Errorf("%w: %q is longer than 64 characters", ErrInvalidIdentifier, name)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%w: %q must match [a-zA-Z_][a-zA-Z0-9_]*", ErrInvalidIdentifier, name)
	}
	return nil
}

// NormalizeType returns the catalogue spelling of a column type, accepting
// any letter case and surrounding spaces.
func NormalizeType(colType string) (string, error) {
	want := strings.ToUpper(strings.ReplaceAll(colType, " ", ""))
	for _, dt := range Datatypes {
		if dt == want {
			return dt, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrInvalidType, colType, strings.Join(Datatypes, ", "))
}

// ValidateColumnDefs checks a create-table column list: at least one column,
// valid unique names and catalogue types.
func ValidateColumnDefs(columns []model.ColumnDef) ([]model.ColumnDef, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: at least one column is required", ErrInvalidChange)
	}
	seen := make(map[string]bool, len(columns))
	out := make([]model.ColumnDef, len(columns))
	for i, col := range columns {
		if err := ValidateIdentifier(col.Name); err != nil {
			return nil, err
		}
		lower := strings.ToLower(col.Name)
		if seen[lower] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidChange, col.Name)
		}
		seen[lower] = true

		typ, err := NormalizeType(col.Type)
		if err != nil {
			return nil, err
		}
		out[i] = model.ColumnDef{Name: col.Name, Type: typ, PrimaryKey: col.PrimaryKey}
	}
	return out, nil
}

// ValidateChange checks a single schema change and returns it with its type
// normalized.
func ValidateChange(change SchemaChange) (SchemaChange, error) {
	if err := ValidateIdentifier(change.Column); err != nil {
		return change, err
	}
	switch change.Type {
	case ChangeAddColumn:
		typ, err := NormalizeType(change.ColType)
		if err != nil {
			return change, err
		}
		change.ColType = typ
	case ChangeDropColumn:
	case ChangeRenameColumn:
		if err := ValidateIdentifier(change.NewName); err != nil {
			return change, err
		}
		if change.ColType == "" {
			change.ColType = RenameDefaultType
		} else {
			typ, err := NormalizeType(change.ColType)
			if err != nil {
				return change, err
			}
			change.ColType = typ
		}
	default:
		return change, fmt.Errorf("%w: unsupported change type %q", ErrInvalidChange, change.Type)
	}
	return change, nil
}

// ColumnList renders validated column definitions with the given identifier
// quoting: "`id` INT PRIMARY KEY, `name` VARCHAR(50)".
func ColumnList(columns []model.ColumnDef, quote func(string) string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		def := quote(col.Name) + " " + col.Type
		if col.PrimaryKey {
			def += " PRIMARY KEY"
		}
		parts[i] = def
	}
	return strings.Join(parts, ", ")
}
