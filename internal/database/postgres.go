package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/tabload/internal/core"
)

// PgConn is a single pgx connection. PostgreSQL cannot switch databases
// within a session, so UseDatabase reconnects.
type PgConn struct {
	cfg  *pgx.ConnConfig
	conn *pgx.Conn
}

func openPostgres(ctx context.Context, dsn string, timeout time.Duration) (*PgConn, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	if cfg.ConnectTimeout == 0 || cfg.ConnectTimeout > timeout {
		cfg.ConnectTimeout = timeout
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PgConn{cfg: cfg, conn: conn}, nil
}

// Dialect returns the PostgreSQL dialect.
func (c *PgConn) Dialect() core.Dialect { return pgDialect{} }

// DatabaseExists reports whether pg_database lists name.
func (c *PgConn) DatabaseExists(ctx context.Context, name string) (bool, error) {
	return c.exists(ctx, "SELECT datname FROM pg_database WHERE datname = $1", name)
}

// UseDatabase reconnects to name unless already connected to it.
func (c *PgConn) UseDatabase(ctx context.Context, name string) error {
	if c.cfg.Database == name {
		return nil
	}
	cfg := c.cfg.Copy()
	cfg.Database = name
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return &core.ConnectionError{Driver: DriverPostgres, Err: err}
	}
	_ = c.conn.Close(ctx)
	c.cfg, c.conn = cfg, conn
	return nil
}

// TableExists looks the table up in the connection's current schema.
func (c *PgConn) TableExists(ctx context.Context, table string) (bool, error) {
	return c.exists(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1",
		table)
}

// Columns returns the table's columns in ordinal order.
func (c *PgConn) Columns(ctx context.Context, _, table string) ([]core.CatalogColumn, error) {
	rows, err := c.conn.Query(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1
		 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.CatalogColumn, error) {
		var col core.CatalogColumn
		err := row.Scan(&col.Name, &col.DataType)
		return col, err
	})
}

// InsertRow runs stmt in its own transaction and commits.
func (c *PgConn) InsertRow(ctx context.Context, stmt string, args []any) error {
	return pgx.BeginFunc(ctx, c.conn, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt, args...)
		return err
	})
}

// Close closes the connection.
func (c *PgConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// Exec runs a statement outside the ingestion path.
func (c *PgConn) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := c.conn.Exec(ctx, stmt, args...)
	return err
}

func (c *PgConn) exists(ctx context.Context, q string, arg string) (bool, error) {
	var name string
	err := c.conn.QueryRow(ctx, q, arg).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// pgDialect resolves tables through the search path of the connected database.
type pgDialect struct{}

func (pgDialect) Name() string                    { return DriverPostgres }
func (pgDialect) QuoteIdent(name string) string   { return quoteDouble(name) }
func (pgDialect) Placeholder(n int) string        { return placeholderDollar(n) }
func (pgDialect) CurrentTimestamp() string        { return "CURRENT_TIMESTAMP" }
func (pgDialect) TableRef(_, table string) string { return quoteDouble(table) }
func (pgDialect) Bind(_ core.ColumnSpec, v any) any {
	return v
}

func (pgDialect) Diagnose(err error) string {
	var pe *pgconn.PgError
	if !errors.As(err, &pe) {
		return ""
	}
	parts := []string{fmt.Sprintf("postgres: %s %s: %s", pe.Severity, pe.Code, pe.Message)}
	if pe.Detail != "" {
		parts = append(parts, "DETAIL: "+pe.Detail)
	}
	if pe.Hint != "" {
		parts = append(parts, "HINT: "+pe.Hint)
	}
	if pe.ConstraintName != "" {
		parts = append(parts, "CONSTRAINT: "+pe.ConstraintName)
	}
	if pe.ColumnName != "" {
		parts = append(parts, "COLUMN: "+pe.ColumnName)
	}
	return strings.Join(parts, "\n")
}
