package core

// errors.go defines the failure taxonomy of an ingestion run.
//
// Connection, schema and column-mismatch errors abort the whole operation.
// Coercion and insert errors are row-scoped: they are recorded in the
// report and the run continues.

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds, matched with errors.Is.
var (
	ErrConnection     = errors.New("connection failed")
	ErrSchemaNotFound = errors.New("schema object not found")
	ErrColumnMismatch = errors.New("column mismatch")
	ErrCoercion       = errors.New("value coercion failed")
	ErrInsert         = errors.New("insert failed")
)

// ConnectionError means the database could not be reached or authenticated.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error        { return e.Err }
func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// SchemaObject says which half of a database/table lookup failed.
type SchemaObject string

const (
	SchemaDatabase SchemaObject = "database"
	SchemaTable    SchemaObject = "table"
)

// SchemaNotFoundError reports a missing database or table.
type SchemaNotFoundError struct {
	Object   SchemaObject
	Database string
	Table    string
}

func (e *SchemaNotFoundError) Error() string {
	if e.Object == SchemaDatabase {
		return fmt.Sprintf("database %q does not exist", e.Database)
	}
	return fmt.Sprintf("table %q does not exist in database %q", e.Table, e.Database)
}

func (e *SchemaNotFoundError) Is(target error) bool { return target == ErrSchemaNotFound }

// ColumnMismatchError lists the columns that keep a source from matching
// its target table.
type ColumnMismatchError struct {
	Missing []string // Expected by the table, absent from the source
	Extra   []string // Present in the source, unknown to the table
}

func (e *ColumnMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing in source: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "extra in source: "+strings.Join(e.Extra, ", "))
	}
	return "column mismatch (" + strings.Join(parts, "; ") + ")"
}

func (e *ColumnMismatchError) Is(target error) bool { return target == ErrColumnMismatch }

// CoercionError is a single raw value that does not parse under its column's category.
type CoercionError struct {
	Row      int // 1-based source row, 0 outside batch mode
	Column   string
	Category TypeCategory
	Value    string
	Blank    bool
	Reason   string
}

func (e *CoercionError) Error() string {
	var msg string
	if e.Column != "" {
		msg = fmt.Sprintf("field %q (%s): %s", e.Column, e.Category, e.Reason)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Category, e.Reason)
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" (row %d)", e.Row)
	}
	return msg
}

func (e *CoercionError) Is(target error) bool { return target == ErrCoercion }

// InsertError is a database rejection of a well-typed row.
type InsertError struct {
	Row int
	Err error
}

func (e *InsertError) Error() string {
	return e.Err.Error()
}

func (e *InsertError) Unwrap() error        { return e.Err }
func (e *InsertError) Is(target error) bool { return target == ErrInsert }

// IsFatal reports whether err aborts a whole run rather than a single row.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConnection) ||
		errors.Is(err, ErrSchemaNotFound) ||
		errors.Is(err, ErrColumnMismatch)
}

// Trace renders the full diagnostic for a row failure: every error in the
// unwrap chain with its concrete type, then any driver detail the dialect
// can extract.
func Trace(err error, d Dialect) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	for i, e := 0, err; e != nil; i, e = i+1, errors.Unwrap(e) {
		if i > 0 {
			b.WriteString("\ncaused by ")
		}
		fmt.Fprintf(&b, "%T: %s", e, e.Error())
	}
	if d != nil {
		if diag := d.Diagnose(err); diag != "" {
			b.WriteString("\n")
			b.WriteString(diag)
		}
	}
	return b.String()
}
