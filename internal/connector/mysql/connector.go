package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/faucetdb/crudgen/internal/connector"
)

// MySQLConnector implements connector.Connector for MySQL databases.
type MySQLConnector struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new MySQLConnector with default settings.
func New() connector.Connector {
	return &MySQLConnector{}
}

// Connect opens the pool and resolves the schema used for introspection.
// When the config names no schema, the DSN's current database is used.
func (c *MySQLConnector) Connect(cfg connector.ConnectionConfig) error {
	db, err := connector.OpenPool("mysql", cfg.DSN, cfg)
	if err != nil {
		return err
	}

	c.schemaName = cfg.SchemaName
	if c.schemaName == "" {
		var dbName sql.NullString
		if err := db.Get(&dbName, "SELECT DATABASE()"); err == nil && dbName.Valid {
			c.schemaName = dbName.String
		}
	}
	if c.schemaName == "" {
		db.Close()
		return fmt.Errorf("mysql connect: no database selected in DSN")
	}

	c.db = db
	return nil
}

// Disconnect closes the database connection pool.
func (c *MySQLConnector) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (c *MySQLConnector) Ping(ctx context.Context) error {
	if c.db == nil {
		return connector.ErrNotConnected
	}
	return c.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (c *MySQLConnector) DB() *sqlx.DB {
	return c.db
}

// SchemaName returns the database the connector introspects.
func (c *MySQLConnector) SchemaName() string { return c.schemaName }

// DriverName returns the driver identifier for MySQL.
func (c *MySQLConnector) DriverName() string { return "mysql" }

// QuoteIdentifier wraps a SQL identifier in backticks, escaping any
// embedded backticks.
func (c *MySQLConnector) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (c *MySQLConnector) qualified(table string) string {
	return c.QuoteIdentifier(c.schemaName) + "." + c.QuoteIdentifier(table)
}
