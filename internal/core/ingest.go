package core

// ingest.go is the batch side of the row ingestion pipeline.
//
// A batch run is: introspect the table, reconcile the source's columns,
// then for each source row coerce every field, insert, and commit. Rows are
// processed strictly one after another and each row commits on its own, so
// a failing row never undoes or blocks any other row.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Ingestor runs ingestion operations over one exclusively owned connection.
type Ingestor struct {
	conn Conn
	opts Options
}

// NewIngestor creates an Ingestor. conn must not be shared with other runs.
func NewIngestor(conn Conn, opts Options) *Ingestor {
	return &Ingestor{conn: conn, opts: opts.withDefaults()}
}

// ManagedColumn returns the configured execution marker column name.
func (in *Ingestor) ManagedColumn() string {
	return in.opts.ManagedColumn
}

// Schema introspects database.table without loading anything.
func (in *Ingestor) Schema(ctx context.Context, database, table string) (*TableSchema, error) {
	return Introspect(ctx, in.conn, database, table)
}

// LoadBatch ingests every row of src into database.table.
//
// Connection, schema and column mismatch failures return a nil report: no
// row was attempted. Row failures never produce an error; they are in the
// report. If the source itself fails mid-stream the partial report is
// returned together with the read error.
func (in *Ingestor) LoadBatch(ctx context.Context, database, table string, src Source) (*BatchReport, error) {
	schema, err := Introspect(ctx, in.conn, database, table)
	if err != nil {
		return nil, err
	}
	if err := Reconcile(schema, in.opts.ManagedColumn, src.Columns()); err != nil {
		return nil, err
	}

	d := in.conn.Dialect()
	inputs := schema.InputColumns(in.opts.ManagedColumn)
	nowColumn := ""
	if mc, ok := schema.ManagedColumn(in.opts.ManagedColumn); ok {
		nowColumn = mc.Name
	}
	stmt := BuildInsert(d, database, table, inputs, nowColumn)
	names := schema.InputColumnNames(in.opts.ManagedColumn)

	rep := NewReporter(RunFile, database, table, names, in.opts.Now)
	log := in.opts.Logger.With(
		slog.String("run_id", rep.RunID()),
		slog.String("mode", string(RunFile)),
		slog.String("table", table),
		slog.String("source", src.Name()),
	)
	log.Info("batch load started", "columns", len(inputs))

	var runErr error
	for index := 1; ; index++ {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("batch load stopped before row %d: %w", index, err)
			break
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			runErr = fmt.Errorf("read %s row %d: %w", src.Name(), index, err)
			break
		}

		outcome := in.loadRow(ctx, stmt, inputs, names, row, index)
		in.record(rep, RunFile, table, outcome)
		if !outcome.Success {
			log.Warn("row failed", "row", index, "error", outcome.Message)
		}
	}

	checksum := ""
	if cs, ok := src.(Checksummer); ok {
		checksum = cs.Checksum()
	}
	rep.SetSource(src.Name(), checksum)

	report := rep.Finalize()
	log.Info("batch load finished",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, runErr
}

// loadRow coerces and inserts one source row.
func (in *Ingestor) loadRow(ctx context.Context, stmt InsertStatement, inputs []ColumnSpec, names []string, row SourceRow, index int) InsertOutcome {
	d := in.conn.Dialect()

	rec, err := buildBatchRecord(inputs, row, index)
	if err != nil {
		return InsertOutcome{
			Index:    index,
			Err:      err,
			Message:  err.Error(),
			Trace:    Trace(err, d),
			Snapshot: rawSnapshot(names, row),
		}
	}

	snap := rec.Snapshot(names)
	if err := in.conn.InsertRow(ctx, stmt.SQL, stmt.Args(d, rec)); err != nil {
		ierr := &InsertError{Row: index, Err: err}
		return InsertOutcome{
			Index:    index,
			Err:      ierr,
			Message:  ierr.Error(),
			Trace:    Trace(ierr, d),
			Snapshot: snap,
		}
	}
	return InsertOutcome{Index: index, Success: true, Snapshot: snap}
}

// buildBatchRecord coerces every non-managed field of row. A missing or
// blank value is a coercion failure for every category, Text included.
func buildBatchRecord(inputs []ColumnSpec, row SourceRow, index int) (RowRecord, error) {
	rec := RowRecord{Fields: make([]FieldValue, 0, len(inputs))}
	for _, col := range inputs {
		raw, _ := row.Get(col.Name)
		s, ok := RawString(raw)
		if !ok {
			return RowRecord{}, &CoercionError{
				Row:      index,
				Column:   col.Name,
				Category: col.Category,
				Blank:    true,
				Reason:   "value is blank",
			}
		}
		v, err := CoerceField(col, s)
		if err != nil {
			var ce *CoercionError
			if errors.As(err, &ce) {
				ce.Row = index
			}
			return RowRecord{}, err
		}
		rec.Fields = append(rec.Fields, FieldValue{Column: col, Value: v})
	}
	return rec, nil
}

func rawSnapshot(names []string, row SourceRow) map[string]string {
	snap := make(map[string]string, len(names))
	for _, name := range names {
		raw, _ := row.Get(name)
		s, _ := RawString(raw)
		snap[name] = s
	}
	return snap
}

func (in *Ingestor) record(rep *Reporter, kind RunKind, table string, o InsertOutcome) {
	rep.Record(o)
	if in.opts.Observer != nil {
		in.opts.Observer.ObserveOutcome(kind, table, o)
	}
}
