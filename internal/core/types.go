package core

// types.go holds the data model shared by the pipeline stages and the
// boundaries (Conn, Dialect, Source) the pipeline consumes.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TypeCategory is the closed set of value kinds a target column can accept.
type TypeCategory int

const (
	CategoryText TypeCategory = iota
	CategoryInteger
	CategoryReal
	CategoryBoolean
	CategoryDate
	CategoryDateTime
)

// String returns the category name used in diagnostics and JSON output.
func (c TypeCategory) String() string {
	switch c {
	case CategoryInteger:
		return "Integer"
	case CategoryReal:
		return "Real"
	case CategoryBoolean:
		return "Boolean"
	case CategoryDate:
		return "Date"
	case CategoryDateTime:
		return "DateTime"
	default:
		return "Text"
	}
}

// MarshalText lets categories serialize by name.
func (c TypeCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (c *TypeCategory) UnmarshalText(b []byte) error {
	for _, cat := range []TypeCategory{CategoryText, CategoryInteger, CategoryReal, CategoryBoolean, CategoryDate, CategoryDateTime} {
		if strings.EqualFold(string(b), cat.String()) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown type category %q", b)
}

// IsTemporal reports whether the category holds a date or timestamp.
func (c TypeCategory) IsTemporal() bool {
	return c == CategoryDate || c == CategoryDateTime
}

// ColumnSpec describes one column of a target table.
type ColumnSpec struct {
	Name        string       `json:"name"`
	CatalogType string       `json:"catalogType"` // Raw type name as reported by the catalog
	Category    TypeCategory `json:"category"`
}

// CatalogColumn is a raw catalog row: column name and data type name.
type CatalogColumn struct {
	Name     string
	DataType string
}

// TableSchema is the introspected shape of a target table.
// It is fetched at the start of every operation and never cached.
type TableSchema struct {
	Database string       `json:"database"`
	Table    string       `json:"table"`
	Columns  []ColumnSpec `json:"columns"`
}

// NewTableSchema classifies catalog rows into a TableSchema.
// Column order is preserved; duplicate names are rejected.
func NewTableSchema(database, table string, cols []CatalogColumn) (*TableSchema, error) {
	seen := make(map[string]bool, len(cols))
	specs := make([]ColumnSpec, 0, len(cols))
	for _, c := range cols {
		if seen[c.Name] {
			return nil, fmt.Errorf("table %q: duplicate column %q in catalog", table, c.Name)
		}
		seen[c.Name] = true
		specs = append(specs, ColumnSpec{
			Name:        c.Name,
			CatalogType: c.DataType,
			Category:    ClassifyType(c.DataType),
		})
	}
	return &TableSchema{Database: database, Table: table, Columns: specs}, nil
}

// Column returns the spec for name, if present.
func (s *TableSchema) Column(name string) (ColumnSpec, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// ManagedColumn returns the column matching the managed marker name
// (case-insensitive), if the table has one.
func (s *TableSchema) ManagedColumn(marker string) (ColumnSpec, bool) {
	if marker == "" {
		return ColumnSpec{}, false
	}
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, marker) {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// InputColumns returns the non-managed columns in catalog order.
func (s *TableSchema) InputColumns(marker string) []ColumnSpec {
	out := make([]ColumnSpec, 0, len(s.Columns))
	for _, c := range s.Columns {
		if marker != "" && strings.EqualFold(c.Name, marker) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// InputColumnNames returns the names of the non-managed columns in catalog order.
func (s *TableSchema) InputColumnNames(marker string) []string {
	cols := s.InputColumns(marker)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// FieldValue is one coerced value bound to its column.
type FieldValue struct {
	Column ColumnSpec
	Value  any
}

// RowRecord is the ordered set of typed values for one insert attempt.
type RowRecord struct {
	Fields []FieldValue
}

// Snapshot renders the record's values as strings for the audit trail.
// Every column in cols gets an entry; absent values are "".
func (r RowRecord) Snapshot(cols []string) map[string]string {
	snap := make(map[string]string, len(cols))
	for _, name := range cols {
		snap[name] = ""
	}
	for _, f := range r.Fields {
		if _, ok := snap[f.Column.Name]; ok {
			snap[f.Column.Name] = Render(f.Value)
		}
	}
	return snap
}

// SourceField is one named raw value from a source row. A nil Value is missing.
type SourceField struct {
	Name  string
	Value any
}

// SourceRow is one already-columnized row from a data source, in source order.
type SourceRow []SourceField

// Get returns the raw value for name and whether the field is present.
func (r SourceRow) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Source is a tabular reader the batch pipeline consumes.
// Next returns io.EOF once the rows are exhausted.
type Source interface {
	Name() string
	Columns() []string
	Next() (SourceRow, error)
}

// Checksummer is implemented by sources that can fingerprint their content.
type Checksummer interface {
	Checksum() string
}

// RunKind identifies which operating mode produced a report.
type RunKind string

const (
	RunManual RunKind = "manual"
	RunFile   RunKind = "file"
)

// InsertOutcome is the result of one attempted row insert.
type InsertOutcome struct {
	Index    int               `json:"index"` // 1-based row (file) or attempt (manual) number
	Success  bool              `json:"success"`
	Err      error             `json:"-"`
	Message  string            `json:"error,omitempty"`
	Trace    string            `json:"trace,omitempty"`
	Snapshot map[string]string `json:"fields"`
}

// FailureRecord is a failed row as kept in a BatchReport.
type FailureRecord struct {
	Index  int               `json:"index"`
	Error  string            `json:"error"`
	Trace  string            `json:"trace"`
	Fields map[string]string `json:"fields"`
}

// BatchReport is the finalized record of one ingestion run.
type BatchReport struct {
	RunID          string              `json:"runId"`
	Kind           RunKind             `json:"kind"`
	StartedAt      time.Time           `json:"startedAt"`
	FinishedAt     time.Time           `json:"finishedAt"`
	Database       string              `json:"database"`
	Table          string              `json:"table"`
	Source         string              `json:"source,omitempty"`
	SourceChecksum string              `json:"sourceChecksum,omitempty"`
	Columns        []string            `json:"columns"`
	Attempted      int                 `json:"attempted"`
	Succeeded      int                 `json:"succeeded"`
	Failed         int                 `json:"failed"`
	InsertedRows   []map[string]string `json:"insertedRows,omitempty"`
	Failures       []FailureRecord     `json:"failures,omitempty"`
}

// Dialect supplies the engine-specific SQL fragments the pipeline needs.
type Dialect interface {
	Name() string
	// QuoteIdent quotes a single identifier for the engine.
	QuoteIdent(name string) string
	// Placeholder returns the bind marker for the 1-based parameter n.
	Placeholder(n int) string
	// TableRef returns the reference to use for table inside database.
	TableRef(database, table string) string
	// CurrentTimestamp is the server-side "now" expression.
	CurrentTimestamp() string
	// Bind converts a coerced value to the driver argument for its column.
	Bind(col ColumnSpec, v any) any
	// Diagnose renders driver-specific error detail, or "" if none.
	Diagnose(err error) string
}

// Conn is the database boundary: one exclusively owned connection per run.
type Conn interface {
	Dialect() Dialect
	DatabaseExists(ctx context.Context, name string) (bool, error)
	UseDatabase(ctx context.Context, name string) error
	TableExists(ctx context.Context, table string) (bool, error)
	Columns(ctx context.Context, database, table string) ([]CatalogColumn, error)
	// InsertRow executes stmt in its own transaction and commits it.
	InsertRow(ctx context.Context, stmt string, args []any) error
	Close(ctx context.Context) error
}

// OutcomeObserver receives every row outcome as it is recorded.
type OutcomeObserver interface {
	ObserveOutcome(kind RunKind, table string, o InsertOutcome)
}

// DefaultManagedColumn is the execution marker column name.
const DefaultManagedColumn = "Bi_ejecucion"

// DefaultManagedOrigin tags text-typed managed values written by manual runs.
const DefaultManagedOrigin = "tabload"

// Options configures an Ingestor.
type Options struct {
	ManagedColumn string           // Execution marker column (default Bi_ejecucion)
	ManagedOrigin string           // Suffix for text-typed managed values
	Now           func() time.Time // Clock (default time.Now)
	Logger        *slog.Logger     // Default slog.Default()
	Observer      OutcomeObserver  // Optional
}

func (o Options) withDefaults() Options {
	if o.ManagedColumn == "" {
		o.ManagedColumn = DefaultManagedColumn
	}
	if o.ManagedOrigin == "" {
		o.ManagedOrigin = DefaultManagedOrigin
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
