package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/tabload/internal/audit"
	"github.com/JonMunkholm/tabload/internal/core"
	"github.com/JonMunkholm/tabload/internal/logging"
	"github.com/JonMunkholm/tabload/internal/source"
)

// maxValidateBody caps the JSON body of a validate request.
const maxValidateBody = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"runs":   s.deps.Limiter.Status(),
	})
}

// SchemaResponse describes a target table.
type SchemaResponse struct {
	Database      string            `json:"database"`
	Table         string            `json:"table"`
	ManagedColumn string            `json:"managedColumn,omitempty"`
	Columns       []core.ColumnSpec `json:"columns"`
	InputColumns  []string          `json:"inputColumns"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	database, table := chi.URLParam(r, "database"), chi.URLParam(r, "table")

	conn, err := s.deps.Open(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer conn.Close(r.Context())

	schema, err := core.Introspect(r.Context(), conn, database, table)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := SchemaResponse{
		Database:     schema.Database,
		Table:        schema.Table,
		Columns:      schema.Columns,
		InputColumns: schema.InputColumnNames(s.cfg.Ingest.ManagedColumn),
	}
	if mc, ok := schema.ManagedColumn(s.cfg.Ingest.ManagedColumn); ok {
		resp.ManagedColumn = mc.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

// ValidateRequest is the body of POST /api/validate.
type ValidateRequest struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// ValidateResponse carries the canonical form of an accepted value.
type ValidateResponse struct {
	Column   string            `json:"column"`
	Category core.TypeCategory `json:"category"`
	Value    string            `json:"value"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	database, table := chi.URLParam(r, "database"), chi.URLParam(r, "table")

	var req ValidateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxValidateBody)).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	conn, err := s.deps.Open(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer conn.Close(r.Context())

	schema, err := core.Introspect(r.Context(), conn, database, table)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	col, ok := schema.Column(req.Column)
	if mc, managed := schema.ManagedColumn(s.cfg.Ingest.ManagedColumn); !ok || (managed && mc.Name == col.Name) {
		s.respondError(w, r, fmt.Errorf("column %q is not an input column of %q", req.Column, table), http.StatusBadRequest)
		return
	}

	v, err := core.CoerceField(col, req.Value)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Column: col.Name, Category: col.Category, Value: core.Render(v)})
}

// LoadResponse is returned by POST /api/load once the batch has run.
type LoadResponse struct {
	Report    *core.BatchReport `json:"report"`
	Artifacts audit.Artifacts   `json:"artifacts"`
	// Error is set when the source failed partway; rows before it stay committed.
	Error string `json:"error,omitempty"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	database, table := chi.URLParam(r, "database"), chi.URLParam(r, "table")

	format, name, err := uploadFormat(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if err := s.deps.Limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer s.deps.Limiter.Release()

	maxSize := s.cfg.Ingest.MaxFileSize
	body := http.MaxBytesReader(w, r.Body, maxSize+1)
	src, err := source.Read(name, body, format, source.Options{
		Encoding: s.cfg.Ingest.SourceEncoding,
		MaxSize:  maxSize,
	})
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			err = fmt.Errorf("%w: limit %d bytes", source.ErrTooLarge, maxSize)
		}
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		s.respondError(w, r, err, status)
		return
	}

	conn, err := s.deps.Open(ctx)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer conn.Close(ctx)

	opts := core.Options{
		ManagedColumn: s.cfg.Ingest.ManagedColumn,
		ManagedOrigin: s.cfg.Ingest.ManagedOrigin,
		Logger:        logging.WithFields(ctx, "remote_addr", r.RemoteAddr),
	}
	if s.deps.Metrics != nil {
		opts.Observer = s.deps.Metrics
	}

	rep, loadErr := core.NewIngestor(conn, opts).LoadBatch(ctx, database, table, src)
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveRun(core.RunFile, rep)
	}
	if rep == nil {
		if !core.IsFatal(loadErr) {
			logging.FromContext(ctx).Warn("load ended without a report", "error", loadErr)
		}
		s.respondError(w, r, loadErr, statusFor(loadErr))
		return
	}

	resp := LoadResponse{Report: rep}
	if loadErr != nil {
		resp.Error = core.FormatUserError(loadErr)
	}
	resp.Artifacts, err = s.deps.Audit.Write(rep)
	if err != nil {
		// The rows are committed either way; report what we have.
		logging.FromContext(ctx).Error("writing audit artifacts", "run_id", rep.RunID, "error", err)
		if resp.Error == "" {
			resp.Error = "audit artifacts could not be written: " + err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// uploadFormat takes the format from ?format= or, failing that, from the
// extension of ?name=. The name defaults to "upload.<format>".
func uploadFormat(r *http.Request) (source.Format, string, error) {
	q := r.URL.Query()
	name := filepath.Base(strings.TrimSpace(q.Get("name")))
	if name == "." || name == "/" {
		name = ""
	}

	if f := q.Get("format"); f != "" {
		format, err := source.ParseFormat(f)
		if err != nil {
			return "", "", err
		}
		if name == "" {
			name = "upload." + string(format)
		}
		return format, name, nil
	}

	if name == "" {
		return "", "", fmt.Errorf("%w: pass ?format= or a ?name= with a file extension", source.ErrUnsupportedFormat)
	}
	format, err := source.FormatFromPath(name)
	return format, name, err
}
