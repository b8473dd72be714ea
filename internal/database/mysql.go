package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/JonMunkholm/tabload/internal/core"
)

func openMySQL(ctx context.Context, dsn string, timeout time.Duration) (*SQLConn, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	if cfg.Timeout == 0 || cfg.Timeout > timeout {
		cfg.Timeout = timeout
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	return pin(ctx, sql.OpenDB(connector), mysqlDialect{})
}

// mysqlDialect qualifies every table with its schema, so USE is only a convenience.
type mysqlDialect struct{}

func (mysqlDialect) Name() string                  { return DriverMySQL }
func (mysqlDialect) QuoteIdent(name string) string { return quoteBacktick(name) }
func (mysqlDialect) Placeholder(n int) string      { return placeholderQuestion(n) }
func (mysqlDialect) CurrentTimestamp() string      { return "CURRENT_TIMESTAMP" }

func (mysqlDialect) TableRef(database, table string) string {
	if database == "" {
		return quoteBacktick(table)
	}
	return quoteBacktick(database) + "." + quoteBacktick(table)
}

func (mysqlDialect) Bind(_ core.ColumnSpec, v any) any { return v }

func (mysqlDialect) Diagnose(err error) string {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return ""
	}
	if me.SQLState != [5]byte{} {
		return fmt.Sprintf("mysql: Error %d (SQLSTATE %s): %s", me.Number, string(me.SQLState[:]), me.Message)
	}
	return fmt.Sprintf("mysql: Error %d: %s", me.Number, me.Message)
}

func (mysqlDialect) databaseExistsQuery(name string) (string, []any) {
	return "SELECT SCHEMA_NAME FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?", []any{name}
}

func (mysqlDialect) useStatement(name string) string {
	return "USE " + quoteBacktick(name)
}

func (mysqlDialect) tableExistsQuery(database, table string) (string, []any) {
	return "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?",
		[]any{database, table}
}

func (mysqlDialect) columnsQuery(database, table string) (string, []any) {
	return "SELECT COLUMN_NAME, DATA_TYPE FROM information_schema.COLUMNS " +
			"WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
		[]any{database, table}
}
