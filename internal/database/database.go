// Package database implements the ingestion pipeline's database boundary.
//
// Every run gets exactly one connection: SQL Server, MySQL and SQLite go
// through database/sql with a single pinned session, PostgreSQL through a
// single pgx connection. There is no pooling.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/tabload/internal/core"
)

// Supported driver names.
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLite    = "sqlite"
)

// DefaultConnectTimeout bounds connection setup.
const DefaultConnectTimeout = 5 * time.Second

// Options selects and configures a connection.
type Options struct {
	Driver         string
	DSN            string
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// NormalizeDriver maps accepted aliases to a supported driver name.
func NormalizeDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlserver", "mssql":
		return DriverSQLServer, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// Open establishes one connection for a run. Failures are returned as
// *core.ConnectionError.
func Open(ctx context.Context, opts Options) (core.Conn, error) {
	driver, err := NormalizeDriver(opts.Driver)
	if err != nil {
		return nil, &core.ConnectionError{Driver: opts.Driver, Err: err}
	}
	if opts.DSN == "" {
		return nil, &core.ConnectionError{Driver: driver, Err: fmt.Errorf("empty DSN")}
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var conn core.Conn
	switch driver {
	case DriverSQLServer:
		conn, err = openSQLServer(connectCtx, opts.DSN, timeout)
	case DriverMySQL:
		conn, err = openMySQL(connectCtx, opts.DSN, timeout)
	case DriverSQLite:
		conn, err = openSQLite(connectCtx, opts.DSN)
	case DriverPostgres:
		conn, err = openPostgres(connectCtx, opts.DSN, timeout)
	}
	if err != nil {
		log.Warn("database connection failed", "driver", driver, "error", err)
		return nil, &core.ConnectionError{Driver: driver, Err: err}
	}

	log.Debug("database connected", "driver", driver)
	return conn, nil
}
