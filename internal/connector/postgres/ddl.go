package postgres

import (
	"context"
	"fmt"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
)

// BuildCreateTable renders CREATE TABLE for the validated column list.
func (c *PostgresConnector) BuildCreateTable(tableName string, columns []model.ColumnDef) (string, error) {
	if err := connector.ValidateIdentifier(tableName); err != nil {
		return "", err
	}
	cols, err := connector.ValidateColumnDefs(columns)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)",
		c.qualified(tableName), connector.ColumnList(cols, c.QuoteIdentifier)), nil
}

// BuildAlterTable renders a single ALTER TABLE statement. Renames keep the
// column's type, so ColType is ignored for them.
func (c *PostgresConnector) BuildAlterTable(tableName string, change connector.SchemaChange) (string, error) {
	if err := connector.ValidateIdentifier(tableName); err != nil {
		return "", err
	}
	change, err := connector.ValidateChange(change)
	if err != nil {
		return "", err
	}

	table := c.qualified(tableName)
	switch change.Type {
	case connector.ChangeAddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			table, c.QuoteIdentifier(change.Column), change.ColType), nil
	case connector.ChangeDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
			table, c.QuoteIdentifier(change.Column)), nil
	default:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			table, c.QuoteIdentifier(change.Column), c.QuoteIdentifier(change.NewName)), nil
	}
}

// BuildDropTable renders DROP TABLE IF EXISTS.
func (c *PostgresConnector) BuildDropTable(tableName string) (string, error) {
	if err := connector.ValidateIdentifier(tableName); err != nil {
		return "", err
	}
	return "DROP TABLE IF EXISTS " + c.qualified(tableName), nil
}

// CreateTable creates a new table from the column list.
func (c *PostgresConnector) CreateTable(ctx context.Context, tableName string, columns []model.ColumnDef) error {
	stmt, err := c.BuildCreateTable(tableName, columns)
	if err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %q: %w", tableName, err)
	}
	return nil
}

// AlterTable validates every change up front, then applies them in order,
// one statement each. A failing statement leaves earlier changes applied.
func (c *PostgresConnector) AlterTable(ctx context.Context, tableName string, changes []connector.SchemaChange) error {
	stmts := make([]string, 0, len(changes))
	for _, change := range changes {
		stmt, err := c.BuildAlterTable(tableName, change)
		if err != nil {
			return err
		}
		stmts = append(stmts, stmt)
	}
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("alter table %q (%s %s): %w", tableName, changes[i].Type, changes[i].Column, err)
		}
	}
	return nil
}

// DropTable drops a table, succeeding when it does not exist.
func (c *PostgresConnector) DropTable(ctx context.Context, tableName string) error {
	stmt, err := c.BuildDropTable(tableName)
	if err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("drop table %q: %w", tableName, err)
	}
	return nil
}
