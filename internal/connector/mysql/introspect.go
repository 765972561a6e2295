package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
)

// errNoSuchTable is ER_NO_SUCH_TABLE.
const errNoSuchTable = 1146

// describeRow is one row of DESCRIBE output.
type describeRow struct {
	Field   string  `db:"Field"`
	Type    string  `db:"Type"`
	Null    string  `db:"Null"`
	Key     string  `db:"Key"`
	Default *string `db:"Default"`
	Extra   string  `db:"Extra"`
}

// fkRow holds a foreign key relationship.
type fkRow struct {
	ColumnName       string `db:"COLUMN_NAME"`
	ReferencedTable  string `db:"REFERENCED_TABLE_NAME"`
	ReferencedColumn string `db:"REFERENCED_COLUMN_NAME"`
}

// GetTableNames lists the base tables and views of the current database in
// the order SHOW TABLES returns them.
func (c *MySQLConnector) GetTableNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.db.SelectContext(ctx, &names, "SHOW TABLES"); err != nil {
		return nil, fmt.Errorf("show tables: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (c *MySQLConnector) describe(ctx context.Context, tableName string) ([]describeRow, error) {
	var rows []describeRow
	if err := c.db.SelectContext(ctx, &rows, "DESCRIBE "+c.qualified(tableName)); err != nil {
		var myErr *mysqldriver.MySQLError
		if errors.As(err, &myErr) && myErr.Number == errNoSuchTable {
			return nil, fmt.Errorf("%w: %s.%s", connector.ErrTableNotFound, c.schemaName, tableName)
		}
		return nil, err
	}
	return rows, nil
}

// DescribeColumns returns the table's column names in physical order.
func (c *MySQLConnector) DescribeColumns(ctx context.Context, tableName string) ([]string, error) {
	rows, err := c.describe(ctx, tableName)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Field
	}
	return names, nil
}

// ForeignKeys returns every column of the table that references another
// table, read from KEY_COLUMN_USAGE.
func (c *MySQLConnector) ForeignKeys(ctx context.Context, tableName string) ([]model.ForeignKey, error) {
	const query = `SELECT COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
			AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY ORDINAL_POSITION`

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
func (c *MySQLConnector) IntrospectTable(ctx context.Context, tableName string) (*model.TableSchema, error) {
	rows, err := c.describe(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("introspect %q: %w", tableName, err)
	}

	fks, err := c.ForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("introspect foreign keys for %q: %w", tableName, err)
	}

	return tableFromDescribe(tableName, rows, fks), nil
}

func tableFromDescribe(tableName string, rows []describeRow, fks []model.ForeignKey) *model.TableSchema {
	ts := &model.TableSchema{
		Name:        tableName,
		Columns:     make([]model.Column, 0, len(rows)),
		PrimaryKey:  []string{},
		ForeignKeys: fks,
	}
	for i, r := range rows {
		isPK := r.Key == "PRI"
		if isPK {
			ts.PrimaryKey = append(ts.PrimaryKey, r.Field)
		}
		ts.Columns = append(ts.Columns, model.Column{
			Name:            r.Field,
			Position:        i + 1,
			Type:            r.Type,
			Nullable:        r.Null == "YES",
			Default:         r.Default,
			IsPrimaryKey:    isPK,
			IsAutoIncrement: strings.Contains(r.Extra, "auto_increment"),
		})
	}
	if ts.ForeignKeys == nil {
		ts.ForeignKeys = []model.ForeignKey{}
	}
	return ts
}
