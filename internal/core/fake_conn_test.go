package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// fakeDialect renders SQL with double-quoted identifiers and ? markers.
type fakeDialect struct{}

func (fakeDialect) Name() string                    { return "fake" }
func (fakeDialect) QuoteIdent(name string) string   { return `"` + name + `"` }
func (fakeDialect) Placeholder(int) string          { return "?" }
func (fakeDialect) TableRef(_, table string) string { return `"` + table + `"` }
func (fakeDialect) CurrentTimestamp() string        { return "NOW()" }
func (fakeDialect) Bind(_ ColumnSpec, v any) any    { return v }
func (fakeDialect) Diagnose(err error) string {
	if strings.Contains(err.Error(), "constraint") {
		return "fake: constraint detail"
	}
	return ""
}

type insertCall struct {
	SQL  string
	Args []any
}

// fakeConn is an in-memory catalog that records inserts.
type fakeConn struct {
	databases map[string]map[string][]CatalogColumn
	current   string
	inserts   []insertCall
	// reject returns an error for an insert to simulate a database rejection.
	reject func(args []any) error
	closed bool
}

func newFakeConn(database, table string, cols ...CatalogColumn) *fakeConn {
	return &fakeConn{
		databases: map[string]map[string][]CatalogColumn{
			database: {table: cols},
		},
	}
}

func (c *fakeConn) Dialect() Dialect { return fakeDialect{} }

func (c *fakeConn) DatabaseExists(_ context.Context, name string) (bool, error) {
	_, ok := c.databases[name]
	return ok, nil
}

func (c *fakeConn) UseDatabase(_ context.Context, name string) error {
	if _, ok := c.databases[name]; !ok {
		return fmt.Errorf("no database %s", name)
	}
	c.current = name
	return nil
}

func (c *fakeConn) TableExists(_ context.Context, table string) (bool, error) {
	if c.current == "" {
		return false, errors.New("no database selected")
	}
	_, ok := c.databases[c.current][table]
	return ok, nil
}

func (c *fakeConn) Columns(_ context.Context, database, table string) ([]CatalogColumn, error) {
	return c.databases[database][table], nil
}

func (c *fakeConn) InsertRow(_ context.Context, stmt string, args []any) error {
	if c.reject != nil {
		if err := c.reject(args); err != nil {
			return err
		}
	}
	c.inserts = append(c.inserts, insertCall{SQL: stmt, Args: args})
	return nil
}

func (c *fakeConn) Close(context.Context) error {
	c.closed = true
	return nil
}

// sliceSource serves fixed rows.
type sliceSource struct {
	name    string
	columns []string
	rows    []SourceRow
	pos     int
	failAt  int // 1-based row whose read fails; 0 never
}

func (s *sliceSource) Name() string      { return s.name }
func (s *sliceSource) Columns() []string { return s.columns }
func (s *sliceSource) Checksum() string  { return "cafef00d" }

func (s *sliceSource) Next() (SourceRow, error) {
	if s.failAt > 0 && s.pos+1 == s.failAt {
		return nil, errors.New("malformed line")
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

func row(kv ...any) SourceRow {
	var r SourceRow
	for i := 0; i+1 < len(kv); i += 2 {
		r = append(r, SourceField{Name: kv[i].(string), Value: kv[i+1]})
	}
	return r
}

type recordingObserver struct {
	outcomes []InsertOutcome
}

func (o *recordingObserver) ObserveOutcome(_ RunKind, _ string, out InsertOutcome) {
	o.outcomes = append(o.outcomes, out)
}

func fixedClock() func() time.Time {
	ts := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}
