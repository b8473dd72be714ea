package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/JonMunkholm/tabload/internal/core"
)

func openSQLServer(ctx context.Context, dsn string, timeout time.Duration) (*SQLConn, error) {
	// Validate DSN early to fail fast on obvious mistakes.
	cfg, err := msdsn.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	if cfg.DialTimeout == 0 || cfg.DialTimeout > timeout {
		cfg.DialTimeout = timeout
	}
	db := sql.OpenDB(mssql.NewConnectorConfig(cfg))
	return pin(ctx, db, mssqlDialect{})
}

// mssqlDialect addresses tables by bare name after USE [database].
type mssqlDialect struct{}

func (mssqlDialect) Name() string                  { return DriverSQLServer }
func (mssqlDialect) QuoteIdent(name string) string { return quoteBracket(name) }
func (mssqlDialect) Placeholder(n int) string      { return placeholderAt(n) }
func (mssqlDialect) CurrentTimestamp() string      { return "GETDATE()" }

func (mssqlDialect) TableRef(_, table string) string {
	return quoteBracket(table)
}

// Bind sends Date values as civil.Date so they reach the server as date, not datetime.
func (mssqlDialect) Bind(col core.ColumnSpec, v any) any {
	if t, ok := v.(time.Time); ok && col.Category == core.CategoryDate {
		return civil.DateOf(t)
	}
	return v
}

func (mssqlDialect) Diagnose(err error) string {
	var me mssql.Error
	if !errors.As(err, &me) {
		return ""
	}
	var b strings.Builder
	for i, e := range me.All {
		if i > 0 {
			b.WriteString("\n")
		}
		writeMSSQLError(&b, e)
	}
	if len(me.All) == 0 {
		writeMSSQLError(&b, me)
	}
	return b.String()
}

func writeMSSQLError(b *strings.Builder, e mssql.Error) {
	fmt.Fprintf(b, "mssql: Msg %d, Level %d, State %d, Line %d", e.Number, e.Class, e.State, e.LineNo)
	if e.ProcName != "" {
		fmt.Fprintf(b, ", Procedure %s", e.ProcName)
	}
	if e.ServerName != "" {
		fmt.Fprintf(b, ", Server %s", e.ServerName)
	}
	fmt.Fprintf(b, ": %s", e.Message)
}

func (mssqlDialect) databaseExistsQuery(name string) (string, []any) {
	return "SELECT name FROM sys.databases WHERE name = @p1", []any{name}
}

func (mssqlDialect) useStatement(name string) string {
	return "USE " + quoteBracket(name)
}

func (mssqlDialect) tableExistsQuery(_, table string) (string, []any) {
	return "SELECT name FROM sys.tables WHERE name = @p1", []any{table}
}

func (mssqlDialect) columnsQuery(database, table string) (string, []any) {
	q := "SELECT COLUMN_NAME, DATA_TYPE FROM " + quoteBracket(database) +
		".INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = @p1 ORDER BY ORDINAL_POSITION"
	return q, []any{table}
}
