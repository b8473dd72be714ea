package core

// manual.go is the interactive side of the row ingestion pipeline.
//
// The prompt loop lives with the caller. The session only offers the pieces
// that loop needs: the fields to ask for, a way to validate one value (to be
// called again until it succeeds), and an insert that commits one row.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ManualSession is one interactive run against a single table.
type ManualSession struct {
	in       *Ingestor
	schema   *TableSchema
	inputs   []ColumnSpec
	names    []string
	managed  *ColumnSpec
	stmt     InsertStatement
	rep      *Reporter
	log      *slog.Logger
	attempts int
}

// BeginManual introspects database.table and opens an interactive session.
func (in *Ingestor) BeginManual(ctx context.Context, database, table string) (*ManualSession, error) {
	schema, err := Introspect(ctx, in.conn, database, table)
	if err != nil {
		return nil, err
	}

	s := &ManualSession{
		in:     in,
		schema: schema,
		inputs: schema.InputColumns(in.opts.ManagedColumn),
		names:  schema.InputColumnNames(in.opts.ManagedColumn),
	}
	if mc, ok := schema.ManagedColumn(in.opts.ManagedColumn); ok {
		s.managed = &mc
	}
	// Interactive inserts bind every column in catalog order, the managed one included.
	s.stmt = BuildInsert(in.conn.Dialect(), database, table, schema.Columns, "")
	s.rep = NewReporter(RunManual, database, table, s.names, in.opts.Now)
	s.log = in.opts.Logger.With(
		slog.String("run_id", s.rep.RunID()),
		slog.String("mode", string(RunManual)),
		slog.String("table", table),
	)
	s.log.Info("manual session started", "columns", len(s.inputs))
	return s, nil
}

// Schema returns the table schema the session was opened with.
func (s *ManualSession) Schema() *TableSchema { return s.schema }

// Fields returns the columns the operator must supply, in catalog order.
func (s *ManualSession) Fields() []ColumnSpec {
	return append([]ColumnSpec(nil), s.inputs...)
}

// ValidateField coerces one operator-entered value for column name.
// Blank Text is accepted here; blank values of any other category are not.
func (s *ManualSession) ValidateField(name, raw string) (any, error) {
	for _, col := range s.inputs {
		if col.Name == name {
			return CoerceField(col, raw)
		}
	}
	return nil, fmt.Errorf("column %q is not an input column of %q", name, s.schema.Table)
}

// RowDraft collects validated values for one interactive row.
type RowDraft struct {
	session *ManualSession
	values  map[string]any
}

// NewRow starts an empty draft.
func (s *ManualSession) NewRow() *RowDraft {
	return &RowDraft{session: s, values: make(map[string]any, len(s.inputs))}
}

// Set validates raw for column name and stores it. On error the draft is
// unchanged so the caller can ask again.
func (d *RowDraft) Set(name, raw string) error {
	v, err := d.session.ValidateField(name, raw)
	if err != nil {
		return err
	}
	d.values[name] = v
	return nil
}

// Missing lists the input columns that have no value yet.
func (d *RowDraft) Missing() []string {
	var out []string
	for _, n := range d.session.names {
		if _, ok := d.values[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// Insert writes the draft as one row and commits it. The managed column,
// if the table has one, is filled with the current time. Unset fields are
// validated as blank input, so an incomplete draft usually fails.
func (s *ManualSession) Insert(ctx context.Context, d *RowDraft) InsertOutcome {
	s.attempts++
	index := s.attempts
	dialect := s.in.conn.Dialect()

	rec, err := s.buildRecord(d)
	if err != nil {
		o := InsertOutcome{
			Index:    index,
			Err:      err,
			Message:  err.Error(),
			Trace:    Trace(err, dialect),
			Snapshot: rec.Snapshot(s.names),
		}
		s.finishAttempt(o)
		return o
	}

	o := InsertOutcome{Index: index, Success: true, Snapshot: rec.Snapshot(s.names)}
	if err := s.in.conn.InsertRow(ctx, s.stmt.SQL, s.stmt.Args(dialect, rec)); err != nil {
		ierr := &InsertError{Row: index, Err: err}
		o = InsertOutcome{
			Index:    index,
			Err:      ierr,
			Message:  ierr.Error(),
			Trace:    Trace(ierr, dialect),
			Snapshot: o.Snapshot,
		}
	}
	s.finishAttempt(o)
	return o
}

func (s *ManualSession) buildRecord(d *RowDraft) (RowRecord, error) {
	rec := RowRecord{Fields: make([]FieldValue, 0, len(s.schema.Columns))}
	var firstErr error
	for _, col := range s.schema.Columns {
		if s.managed != nil && col.Name == s.managed.Name {
			rec.Fields = append(rec.Fields, FieldValue{Column: col, Value: s.managedValue(col)})
			continue
		}
		v, ok := d.values[col.Name]
		if !ok {
			var err error
			v, err = CoerceField(col, "")
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		rec.Fields = append(rec.Fields, FieldValue{Column: col, Value: v})
	}
	return rec, firstErr
}

// managedValue is a timestamp for temporal columns and tagged text otherwise.
func (s *ManualSession) managedValue(col ColumnSpec) any {
	now := s.in.opts.Now()
	if col.Category.IsTemporal() {
		return now
	}
	return now.Format(time.DateTime) + " " + s.in.opts.ManagedOrigin
}

func (s *ManualSession) finishAttempt(o InsertOutcome) {
	s.in.record(s.rep, RunManual, s.schema.Table, o)
	if o.Success {
		s.log.Info("row inserted", "attempt", o.Index)
	} else {
		s.log.Warn("row failed", "attempt", o.Index, "error", o.Message)
	}
}

// Finish freezes and returns the session report.
func (s *ManualSession) Finish() *BatchReport {
	report := s.rep.Finalize()
	s.log.Info("manual session finished",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	return report
}
