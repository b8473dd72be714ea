package audit

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/tabload/internal/core"
)

func sampleReport(kind core.RunKind) *core.BatchReport {
	started := time.Date(2024, 3, 5, 14, 30, 9, 0, time.UTC)
	return &core.BatchReport{
		RunID:          "0f8e2c1a-1111-4222-8333-444455556666",
		Kind:           kind,
		StartedAt:      started,
		FinishedAt:     started.Add(2 * time.Second),
		Database:       "ventas",
		Table:          "Clientes",
		Source:         "clientes.csv",
		SourceChecksum: "00ff00ff00ff00ff",
		Columns:        []string{"id", "name"},
		Attempted:      3,
		Succeeded:      2,
		Failed:         1,
		InsertedRows: []map[string]string{
			{"id": "1", "name": "Ana"},
			{"id": "3", "name": "Eva, M."},
		},
		Failures: []core.FailureRecord{{
			Index:  2,
			Error:  `field "id" (Integer): value is required (row 2)`,
			Trace:  "*core.CoercionError: ...\ncaused by x",
			Fields: map[string]string{"id": "", "name": "Luis"},
		}},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return recs
}

func TestPrefix(t *testing.T) {
	rep := sampleReport(core.RunFile)
	rep.Table = "dbo/Clientes 2024"

	want := "log_file_dbo_Clientes_2024_20240305_143009_0f8e2c1a"
	if got := Prefix(rep); got != want {
		t.Errorf("Prefix = %s, want %s", got, want)
	}
}

func TestSummary(t *testing.T) {
	file := Summary(sampleReport(core.RunFile))
	for _, want := range []string{
		"Date: 2024-03-05 14:30:11\n",
		"Database: ventas\n",
		"Table: Clientes\n",
		"Source: clientes.csv\n",
		"Checksum: 00ff00ff00ff00ff\n",
		"Rows attempted: 3\n",
		"Rows inserted: 2\n",
		"Rows failed: 1\n",
	} {
		if !strings.Contains(file, want) {
			t.Errorf("summary missing %q:\n%s", want, file)
		}
	}

	manual := Summary(sampleReport(core.RunManual))
	if strings.Contains(manual, "Source:") || strings.Contains(manual, "Checksum:") {
		t.Errorf("manual summary should not name a source:\n%s", manual)
	}
}

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	w := NewWriter(dir)

	arts, err := w.Write(sampleReport(core.RunManual))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(arts.Paths()) != 3 {
		t.Fatalf("artifacts = %+v", arts)
	}
	if !strings.HasSuffix(arts.Errors, "_errors.csv") || filepath.Dir(arts.Errors) != dir {
		t.Errorf("errors path = %s", arts.Errors)
	}

	inserted := readCSV(t, arts.Inserted)
	if len(inserted) != 3 || strings.Join(inserted[0], ",") != "id,name" || inserted[2][1] != "Eva, M." {
		t.Errorf("inserted.csv = %v", inserted)
	}

	errs := readCSV(t, arts.Errors)
	if got := strings.Join(errs[0], ","); got != "attempt,error,trace,id,name" {
		t.Errorf("errors header = %s", got)
	}
	if errs[1][0] != "2" || errs[1][3] != "" || errs[1][4] != "Luis" || !strings.Contains(errs[1][2], "\ncaused by") {
		t.Errorf("errors row = %q", errs[1])
	}
}

func TestWriter_SkipsEmptyCSVs(t *testing.T) {
	rep := sampleReport(core.RunFile)
	rep.InsertedRows = nil
	rep.Failures = nil

	arts, err := NewWriter(t.TempDir()).Write(rep)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if arts.Inserted != "" || arts.Errors != "" {
		t.Errorf("empty CSVs written: %+v", arts)
	}
	if _, err := os.Stat(arts.Summary); err != nil {
		t.Errorf("summary missing: %v", err)
	}
}

func TestWriter_FileHeaderAndNil(t *testing.T) {
	arts, err := NewWriter(t.TempDir()).Write(sampleReport(core.RunFile))
	if err != nil {
		t.Fatal(err)
	}
	if got := readCSV(t, arts.Errors)[0][0]; got != "row" {
		t.Errorf("file-mode index header = %q, want row", got)
	}

	if _, err := NewWriter("").Write(nil); err == nil {
		t.Error("nil report should be rejected")
	}
	if NewWriter("  ").Dir() != DefaultDir {
		t.Error("blank dir should fall back to DefaultDir")
	}
}
