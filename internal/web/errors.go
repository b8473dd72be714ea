package web

// errors.go turns pipeline errors into JSON responses.
//
// The technical error is logged with the request ID; the client gets the
// mapped operator message, the suggested action and a stable code. Column
// mismatches also carry the missing and extra column lists.

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/tabload/internal/core"
	"github.com/JonMunkholm/tabload/internal/logging"
	"github.com/JonMunkholm/tabload/internal/source"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
}

// statusFor picks the HTTP status for an error returned by the pipeline.
func statusFor(err error) int {
	var mismatch *core.ColumnMismatchError
	switch {
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrSchemaNotFound):
		return http.StatusNotFound
	case errors.As(err, &mismatch), errors.Is(err, core.ErrCoercion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, source.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, source.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrConnection):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	ue := core.NewUserError(err)
	userMsg := ue.User

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", ue.Technical.Error(),
		"code", userMsg.Code,
	)

	body := ErrorResponse{
		Error:   ue.Technical.Error(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		// Driver text can carry server names and credentials; keep it in the log.
		body.Error = userMsg.Message + " (request " + middleware.GetReqID(r.Context()) + ")"
	}
	var mismatch *core.ColumnMismatchError
	if errors.As(err, &mismatch) {
		body.Missing = mismatch.Missing
		body.Extra = mismatch.Extra
	}
	if statusCode == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "30")
	}
	writeJSON(w, statusCode, body)
}
