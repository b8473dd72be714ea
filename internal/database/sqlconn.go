package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JonMunkholm/tabload/internal/core"
)

// engine is a database/sql dialect plus its catalog queries.
type engine interface {
	core.Dialect
	databaseExistsQuery(name string) (string, []any)
	// useStatement returns "" when the engine addresses databases by name instead.
	useStatement(name string) string
	tableExistsQuery(database, table string) (string, []any)
	columnsQuery(database, table string) (string, []any)
}

// SQLConn is a database/sql connection pinned to one session, so session
// state such as USE survives between statements.
type SQLConn struct {
	db       *sql.DB
	conn     *sql.Conn
	engine   engine
	database string // Set by UseDatabase
}

func pin(ctx context.Context, db *sql.DB, e engine) (*SQLConn, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &SQLConn{db: db, conn: conn, engine: e}, nil
}

// Dialect returns the engine's SQL dialect.
func (c *SQLConn) Dialect() core.Dialect { return c.engine }

// DatabaseExists reports whether the catalog lists name.
func (c *SQLConn) DatabaseExists(ctx context.Context, name string) (bool, error) {
	q, args := c.engine.databaseExistsQuery(name)
	return c.exists(ctx, q, args)
}

// UseDatabase switches the session into name. name must already be known to exist.
func (c *SQLConn) UseDatabase(ctx context.Context, name string) error {
	if stmt := c.engine.useStatement(name); stmt != "" {
		if _, err := c.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	c.database = name
	return nil
}

// TableExists reports whether table exists in the current database.
func (c *SQLConn) TableExists(ctx context.Context, table string) (bool, error) {
	q, args := c.engine.tableExistsQuery(c.database, table)
	return c.exists(ctx, q, args)
}

// Columns returns the table's columns in catalog order.
func (c *SQLConn) Columns(ctx context.Context, database, table string) ([]core.CatalogColumn, error) {
	q, args := c.engine.columnsQuery(database, table)
	rows, err := c.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []core.CatalogColumn
	for rows.Next() {
		var col core.CatalogColumn
		if err := rows.Scan(&col.Name, &col.DataType); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// InsertRow runs stmt in its own transaction and commits.
func (c *SQLConn) InsertRow(ctx context.Context, stmt string, args []any) error {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the session and the handle.
func (c *SQLConn) Close(context.Context) error {
	return errors.Join(c.conn.Close(), c.db.Close())
}

// Exec runs a statement outside the ingestion path, e.g. test fixtures.
func (c *SQLConn) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := c.conn.ExecContext(ctx, stmt, args...)
	return err
}

func (c *SQLConn) exists(ctx context.Context, q string, args []any) (bool, error) {
	var name string
	err := c.conn.QueryRowContext(ctx, q, args...).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
