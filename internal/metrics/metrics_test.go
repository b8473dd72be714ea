package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JonMunkholm/tabload/internal/core"
)

func newMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(false)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

func TestObserveOutcome(t *testing.T) {
	m := newMetrics(t)

	m.ObserveOutcome(core.RunFile, "Clientes", core.InsertOutcome{Index: 1, Success: true})
	m.ObserveOutcome(core.RunFile, "Clientes", core.InsertOutcome{Index: 2, Success: true})
	m.ObserveOutcome(core.RunFile, "Clientes", core.InsertOutcome{Index: 3})
	m.ObserveOutcome(core.RunManual, "Clientes", core.InsertOutcome{Index: 1})

	tests := []struct {
		kind, outcome string
		want          float64
	}{
		{"file", "inserted", 2},
		{"file", "failed", 1},
		{"manual", "failed", 1},
		{"manual", "inserted", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.rows.WithLabelValues(tt.kind, "Clientes", tt.outcome))
		if got != tt.want {
			t.Errorf("rows{%s,%s} = %v, want %v", tt.kind, tt.outcome, got, tt.want)
		}
	}
}

func TestObserveRun(t *testing.T) {
	m := newMetrics(t)
	start := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	m.ObserveRun(core.RunFile, &core.BatchReport{StartedAt: start, FinishedAt: start.Add(3 * time.Second)})
	m.ObserveRun(core.RunFile, nil)

	if got := testutil.ToFloat64(m.runs.WithLabelValues("file", RunCompleted)); got != 1 {
		t.Errorf("completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("file", RunAborted)); got != 1 {
		t.Errorf("aborted = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.runDuration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestHandler_ExposesActiveRuns(t *testing.T) {
	m := newMetrics(t)
	active := 3
	if err := m.TrackActiveRuns(func() int { return active }); err != nil {
		t.Fatalf("TrackActiveRuns() error = %v", err)
	}
	if err := m.TrackActiveRuns(func() int { return 0 }); err != nil {
		t.Fatalf("second TrackActiveRuns() error = %v", err)
	}
	m.ObserveOutcome(core.RunFile, "T", core.InsertOutcome{Success: true})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{"tabload_active_runs 3", `tabload_rows_total{kind="file",outcome="inserted",table="T"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestPush(t *testing.T) {
	var method, path string
	var bodyLen int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		method, path, bodyLen = r.Method, r.URL.Path, len(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	m := newMetrics(t)
	m.ObserveOutcome(core.RunFile, "T", core.InsertOutcome{Success: true})

	if err := m.Push(context.Background(), server.URL, ""); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if method != http.MethodPut || path != "/metrics/job/"+DefaultJob || bodyLen == 0 {
		t.Errorf("push request = %s %s (%d bytes)", method, path, bodyLen)
	}

	if err := m.Push(context.Background(), "", "x"); err == nil {
		t.Error("missing gateway URL should fail")
	}
}
