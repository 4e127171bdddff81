package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"balancete/internal/analysis"
	"balancete/internal/core"
	"balancete/internal/ingest"
	"balancete/internal/ledgers"
	"balancete/internal/log"
	"balancete/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code. Internal errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogRequestError(r.Context(), r, operation(r), err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func operation(r *http.Request) string {
	switch {
	case strings.HasSuffix(r.URL.Path, "/compare"):
		return log.OpCompare
	case strings.Contains(r.URL.Path, "/export/"):
		return log.OpExport
	case r.Method == http.MethodDelete:
		return log.OpDelete
	case r.Method == http.MethodPost, r.Method == http.MethodPut:
		return log.OpIngest
	default:
		return log.OpRead
	}
}

// errorStatus checks upload content errors first so that a bad group name
// inside a file is reported as 422 rather than 400.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ledgers.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrMalformedSheet),
		errors.Is(err, ingest.ErrMissingColumn),
		errors.Is(err, ingest.ErrNoData),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrDuplicateCategory),
		errors.Is(err, core.ErrInconsistentTotals),
		errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, services.ErrEmptyUpload),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, analysis.ErrInsufficientLedgers),
		errors.Is(err, analysis.ErrTooManyLedgers),
		errors.Is(err, core.ErrInvalidGroup):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
