// Package audit writes the durable record of a run: a plain-text summary,
// a CSV of inserted rows and a CSV of failed rows with their diagnostics.
//
// Files land in a single report directory and share a prefix:
//
//	log_<kind>_<table>_<YYYYMMDD_HHMMSS>_<run8>_summary.txt
//	log_<kind>_<table>_<YYYYMMDD_HHMMSS>_<run8>_inserted.csv
//	log_<kind>_<table>_<YYYYMMDD_HHMMSS>_<run8>_errors.csv
//
// run8 is the first 8 characters of the run ID, so two runs on the same table
// within one second do not overwrite each other. The CSV files are only
// written when they would have at least one data row.
package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tabload/internal/core"
)

// DefaultDir is used when no report directory is configured.
const DefaultDir = "logs"

const fileTimestamp = "20060102_150405"

// Artifacts holds the paths written for one run. Empty paths were not written.
type Artifacts struct {
	Summary  string `json:"summary"`
	Inserted string `json:"inserted,omitempty"`
	Errors   string `json:"errors,omitempty"`
}

// Paths lists the written files in summary, inserted, errors order.
func (a Artifacts) Paths() []string {
	var out []string
	for _, p := range []string{a.Summary, a.Inserted, a.Errors} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Writer persists finalized reports into a directory.
type Writer struct {
	dir string
}

// NewWriter returns a Writer for dir, or DefaultDir when dir is empty.
// The directory is created on first write.
func NewWriter(dir string) *Writer {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	return &Writer{dir: dir}
}

// Dir returns the report directory.
func (w *Writer) Dir() string { return w.dir }

// Write stores rep's artifacts. A nil report is an error: aborted runs
// (column mismatch, missing schema) produce no artifacts.
func (w *Writer) Write(rep *core.BatchReport) (Artifacts, error) {
	if rep == nil {
		return Artifacts{}, fmt.Errorf("audit: nil report")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("audit: create %s: %w", w.dir, err)
	}

	prefix := filepath.Join(w.dir, Prefix(rep))
	out := Artifacts{Summary: prefix + "_summary.txt"}

	if err := os.WriteFile(out.Summary, []byte(Summary(rep)), 0o644); err != nil {
		return out, fmt.Errorf("audit: write summary: %w", err)
	}

	if len(rep.InsertedRows) > 0 {
		out.Inserted = prefix + "_inserted.csv"
		if err := writeCSV(out.Inserted, rep.Columns, insertedRecords(rep)); err != nil {
			return out, err
		}
	}

	if len(rep.Failures) > 0 {
		out.Errors = prefix + "_errors.csv"
		header := append([]string{indexHeader(rep.Kind), "error", "trace"}, rep.Columns...)
		if err := writeCSV(out.Errors, header, failureRecords(rep)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Prefix returns the shared file name stem for rep's artifacts.
func Prefix(rep *core.BatchReport) string {
	run := rep.RunID
	if len(run) > 8 {
		run = run[:8]
	}
	return fmt.Sprintf("log_%s_%s_%s_%s",
		rep.Kind, safeName(rep.Table), rep.StartedAt.Format(fileTimestamp), run)
}

// Summary renders the human-readable run summary.
func Summary(rep *core.BatchReport) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}

	line("Date", rep.FinishedAt.Format("2006-01-02 15:04:05"))
	line("Run", rep.RunID)
	line("Database", rep.Database)
	line("Table", rep.Table)
	if rep.Kind == core.RunFile {
		line("Source", rep.Source)
		line("Checksum", rep.SourceChecksum)
	}
	line("Rows attempted", strconv.Itoa(rep.Attempted))
	line("Rows inserted", strconv.Itoa(rep.Succeeded))
	line("Rows failed", strconv.Itoa(rep.Failed))
	return b.String()
}

func indexHeader(kind core.RunKind) string {
	if kind == core.RunManual {
		return "attempt"
	}
	return "row"
}

func insertedRecords(rep *core.BatchReport) [][]string {
	records := make([][]string, 0, len(rep.InsertedRows))
	for _, snap := range rep.InsertedRows {
		rec := make([]string, len(rep.Columns))
		for i, c := range rep.Columns {
			rec[i] = snap[c]
		}
		records = append(records, rec)
	}
	return records
}

func failureRecords(rep *core.BatchReport) [][]string {
	records := make([][]string, 0, len(rep.Failures))
	for _, f := range rep.Failures {
		rec := make([]string, 0, len(rep.Columns)+3)
		rec = append(rec, strconv.Itoa(f.Index), f.Error, f.Trace)
		for _, c := range rep.Columns {
			rec = append(rec, f.Fields[c])
		}
		records = append(records, rec)
	}
	return records
}

func writeCSV(path string, header []string, records [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("audit: close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("audit: %s: %w", path, err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("audit: %s: %w", path, err)
	}
	return nil
}

// safeName keeps table names usable as a file name component.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
