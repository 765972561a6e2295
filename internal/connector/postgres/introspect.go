package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
)

// columnRow holds the result of querying information_schema.columns.
type columnRow struct {
	ColumnName string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	IsNullable string  `db:"is_nullable"`
	Default    *string `db:"column_default"`
	Position   int     `db:"ordinal_position"`
}

// fkRow holds a foreign key relationship.
type fkRow struct {
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

// GetTableNames returns all base table names in the configured schema.
func (c *PostgresConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	names := []string{}
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

func (c *PostgresConnector) fetchColumns(ctx context.Context, tableName string) ([]columnRow, error) {
	const query = `SELECT column_name, data_type, is_nullable, column_default, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	var rows []columnRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, tableName); err != nil {
		return nil, err
	}
	// information_schema returns nothing rather than failing for a missing table.
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", connector.ErrTableNotFound, c.schemaName, tableName)
	}
	return rows, nil
}

// DescribeColumns returns the table's column names in ordinal order.
func (c *PostgresConnector) DescribeColumns(ctx context.Context, tableName string) ([]string, error) {
	rows, err := c.fetchColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.ColumnName
	}
	return names, nil
}

// ForeignKeys returns the table's foreign-key columns and their targets.
func (c *PostgresConnector) ForeignKeys(ctx context.Context, tableName string) ([]model.ForeignKey, error) {
	const query = `SELECT
			kcu.column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`

	var rows []fkRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, tableName); err != nil {
		return nil, err
	}

	fks := make([]model.ForeignKey, 0, len(rows))
	for _, r := range rows {
		fks = append(fks, model.ForeignKey{
			ColumnName:       r.ColumnName,
			ReferencedTable:  r.ReferencedTable,
			ReferencedColumn: r.ReferencedColumn,
		})
	}
	return fks, nil
}

// IntrospectTable returns the full column detail for a single table.
func (c *PostgresConnector) IntrospectTable(ctx context.Context, tableName string) (*model.TableSchema, error) {
	columns, err := c.fetchColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("introspect %q: %w", tableName, err)
	}

	const pkQuery = `SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`

	pkCols := []string{}
	if err := c.db.SelectContext(ctx, &pkCols, pkQuery, c.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("introspect primary keys for %q: %w", tableName, err)
	}
	pkSet := make(map[string]bool, len(pkCols))
	for _, pk := range pkCols {
		pkSet[pk] = true
	}

	fks, err := c.ForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("introspect foreign keys for %q: %w", tableName, err)
	}

	modelColumns := make([]model.Column, 0, len(columns))
	for _, col := range columns {
		modelColumns = append(modelColumns, model.Column{
			Name:            col.ColumnName,
			Position:        col.Position,
			Type:            col.DataType,
			Nullable:        col.IsNullable == "YES",
			Default:         col.Default,
			IsPrimaryKey:    pkSet[col.ColumnName],
			IsAutoIncrement: isSerial(col.Default),
		})
	}

	return &model.TableSchema{
		Name:        tableName,
		Columns:     modelColumns,
		PrimaryKey:  pkCols,
		ForeignKeys: fks,
	}, nil
}

// isSerial reports whether a column default draws from a sequence.
func isSerial(def *string) bool {
	return def != nil && strings.HasPrefix(*def, "nextval(")
}
