package core

// report.go implements the outcome reporter.
//
// Counters only ever increase as outcomes arrive, so Attempted always equals
// Succeeded + Failed. Once Finalize runs the report is frozen: later Record
// calls are ignored and every Finalize returns the same contents.

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reporter accumulates InsertOutcomes for one run.
type Reporter struct {
	mu     sync.Mutex
	report BatchReport
	now    func() time.Time
	final  *BatchReport
}

// NewReporter starts a report for a run against database.table.
// columns are the non-managed column names every snapshot must carry.
func NewReporter(kind RunKind, database, table string, columns []string, now func() time.Time) *Reporter {
	if now == nil {
		now = time.Now
	}
	cols := append([]string(nil), columns...)
	return &Reporter{
		now: now,
		report: BatchReport{
			RunID:     uuid.NewString(),
			Kind:      kind,
			StartedAt: now(),
			Database:  database,
			Table:     table,
			Columns:   cols,
		},
	}
}

// RunID returns the run's identifier.
func (r *Reporter) RunID() string {
	return r.report.RunID
}

// SetSource records where batch rows came from.
func (r *Reporter) SetSource(name, checksum string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.final != nil {
		return
	}
	r.report.Source = name
	r.report.SourceChecksum = checksum
}

// Record adds one outcome. Snapshots are normalized to exactly the report's
// columns, with "" for anything missing.
func (r *Reporter) Record(o InsertOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.final != nil {
		return
	}

	snap := r.normalize(o.Snapshot)
	r.report.Attempted++
	if o.Success {
		r.report.Succeeded++
		r.report.InsertedRows = append(r.report.InsertedRows, snap)
		return
	}

	r.report.Failed++
	msg := o.Message
	if msg == "" && o.Err != nil {
		msg = o.Err.Error()
	}
	r.report.Failures = append(r.report.Failures, FailureRecord{
		Index:  o.Index,
		Error:  msg,
		Trace:  o.Trace,
		Fields: snap,
	})
}

func (r *Reporter) normalize(in map[string]string) map[string]string {
	out := make(map[string]string, len(r.report.Columns))
	for _, c := range r.report.Columns {
		out[c] = in[c]
	}
	return out
}

// Counts returns the running totals.
func (r *Reporter) Counts() (attempted, succeeded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.Attempted, r.report.Succeeded, r.report.Failed
}

// Finalize stamps the finish time and freezes the report.
func (r *Reporter) Finalize() *BatchReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.final == nil {
		rep := r.report
		rep.FinishedAt = r.now()
		r.final = &rep
	}
	out := *r.final
	return &out
}
