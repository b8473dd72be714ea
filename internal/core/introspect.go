package core

import (
	"context"
	"fmt"
)

// Introspect reads the target table's columns from the catalog.
//
// The lookup runs in two steps so callers can tell the failures apart:
// the database must exist before the connection switches into it, and the
// table must exist before its columns are read. Either miss returns a
// *SchemaNotFoundError.
func Introspect(ctx context.Context, conn Conn, database, table string) (*TableSchema, error) {
	ok, err := conn.DatabaseExists(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("check database %q: %w", database, err)
	}
	if !ok {
		return nil, &SchemaNotFoundError{Object: SchemaDatabase, Database: database}
	}

	// The name is now a known catalog entry and safe to use as an identifier.
	if err := conn.UseDatabase(ctx, database); err != nil {
		return nil, fmt.Errorf("use database %q: %w", database, err)
	}

	ok, err = conn.TableExists(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("check table %q: %w", table, err)
	}
	if !ok {
		return nil, &SchemaNotFoundError{Object: SchemaTable, Database: database, Table: table}
	}

	cols, err := conn.Columns(ctx, database, table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %q: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, &SchemaNotFoundError{Object: SchemaTable, Database: database, Table: table}
	}

	return NewTableSchema(database, table, cols)
}
