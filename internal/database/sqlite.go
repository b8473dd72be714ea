package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"

	"github.com/JonMunkholm/tabload/internal/core"
)

func openSQLite(ctx context.Context, dsn string) (*SQLConn, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return pin(ctx, db, sqliteDialect{})
}

// sqliteDialect treats attached schemas ("main", "temp", ...) as databases.
type sqliteDialect struct{}

func (sqliteDialect) Name() string                  { return DriverSQLite }
func (sqliteDialect) QuoteIdent(name string) string { return quoteDouble(name) }
func (sqliteDialect) Placeholder(n int) string      { return placeholderQuestion(n) }
func (sqliteDialect) CurrentTimestamp() string      { return "CURRENT_TIMESTAMP" }

func (sqliteDialect) TableRef(database, table string) string {
	if database == "" {
		return quoteDouble(table)
	}
	return quoteDouble(database) + "." + quoteDouble(table)
}

// Bind stores booleans as 0/1 and dates as YYYY-MM-DD text.
func (sqliteDialect) Bind(_ core.ColumnSpec, v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case nil, string, int64, float64:
		return v
	default:
		return core.Render(v)
	}
}

func (sqliteDialect) Diagnose(err error) string {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return ""
	}
	return fmt.Sprintf("sqlite: code %d: %s", se.Code(), se.Error())
}

func (sqliteDialect) databaseExistsQuery(name string) (string, []any) {
	return "SELECT name FROM pragma_database_list WHERE name = ?", []any{name}
}

func (sqliteDialect) useStatement(string) string { return "" }

func (sqliteDialect) tableExistsQuery(database, table string) (string, []any) {
	if database == "" {
		database = "main"
	}
	return "SELECT name FROM " + quoteDouble(database) + ".sqlite_master WHERE type = 'table' AND name = ?",
		[]any{table}
}

func (sqliteDialect) columnsQuery(database, table string) (string, []any) {
	if database == "" {
		database = "main"
	}
	return "SELECT name, type FROM pragma_table_info(?, ?) ORDER BY cid", []any{table, database}
}
