package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
)

// tableInfoRow holds a row from PRAGMA table_info().
type tableInfoRow struct {
	CID     int     `db:"cid"`
	Name    string  `db:"name"`
	Type    string  `db:"type"`
	NotNull int     `db:"notnull"`
	Default *string `db:"dflt_value"`
	PK      int     `db:"pk"`
}

// foreignKeyRow holds a row from PRAGMA foreign_key_list().
type foreignKeyRow struct {
	ID       int    `db:"id"`
	Seq      int    `db:"seq"`
	Table    string `db:"table"`
	From     string `db:"from"`
	To       string `db:"to"`
	OnUpdate string `db:"on_update"`
	OnDelete string `db:"on_delete"`
	Match    string `db:"match"`
}

// GetTableNames returns a list of all table names in the database.
func (c *SQLiteConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	names := []string{}
	if err := c.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

func (c *SQLiteConnector) tableInfo(ctx context.Context, tableName string) ([]tableInfoRow, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", c.QuoteIdentifier(tableName))
	var rows []tableInfoRow
	if err := c.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", connector.ErrTableNotFound, tableName)
	}
	return rows, nil
}

// DescribeColumns returns the table's column names in declaration order.
func (c *SQLiteConnector) DescribeColumns(ctx context.Context, tableName string) ([]string, error) {
	rows, err := c.tableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names, nil
}

// ForeignKeys reads PRAGMA foreign_key_list for the table.
func (c *SQLiteConnector) ForeignKeys(ctx context.Context, tableName string) ([]model.ForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", c.QuoteIdentifier(tableName))
	var rows []foreignKeyRow
	if err := c.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	fks := make([]model.ForeignKey, 0, len(rows))
	for _, fk := range rows {
		fks = append(fks, model.ForeignKey{
			ColumnName:       fk.From,
			ReferencedTable:  fk.Table,
			ReferencedColumn: fk.To,
		})
	}
	return fks, nil
}

// IntrospectTable returns the full column detail for a single table.
func (c *SQLiteConnector) IntrospectTable(ctx context.Context, tableName string) (*model.TableSchema, error) {
	columns, err := c.tableInfo(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("introspect %q: %w", tableName, err)
	}

	pkCols := []string{}
	for _, col := range columns {
		if col.PK > 0 {
			pkCols = append(pkCols, col.Name)
		}
	}
	autoIncrCols := c.detectAutoIncrement(ctx, tableName, pkCols)

	modelColumns := make([]model.Column, 0, len(columns))
	for _, col := range columns {
		isPK := col.PK > 0
		modelColumns = append(modelColumns, model.Column{
			Name:            col.Name,
			Position:        col.CID + 1,
			Type:            col.Type,
			Nullable:        col.NotNull == 0 && !isPK,
			Default:         col.Default,
			IsPrimaryKey:    isPK,
			IsAutoIncrement: autoIncrCols[col.Name],
		})
	}

	fks, err := c.ForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("foreign_key_list for %q: %w", tableName, err)
	}

	return &model.TableSchema{
		Name:        tableName,
		Columns:     modelColumns,
		PrimaryKey:  pkCols,
		ForeignKeys: fks,
	}, nil
}

// detectAutoIncrement reports a single INTEGER PRIMARY KEY column, which
// SQLite treats as a rowid alias.
func (c *SQLiteConnector) detectAutoIncrement(ctx context.Context, tableName string, pkCols []string) map[string]bool {
	result := make(map[string]bool)

	if len(pkCols) != 1 {
		return result
	}

	var createSQL string
	query := `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`
	if err := c.db.GetContext(ctx, &createSQL, query, tableName); err != nil {
		return result
	}

	if strings.Contains(strings.ToUpper(createSQL), "INTEGER PRIMARY KEY") {
		result[pkCols[0]] = true
	}
	return result
}
