package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the fixed-shape records the HTTP layer relies on.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd records a finished request. 4xx responses log at warn, 5xx at error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogLedgerIngested(ctx context.Context, entityID, name, fileName string, size, categories int) {
	fields := NewFields().
		WithEntity(entityID, name).
		WithUpload(fileName, size).
		WithOperation(OpIngest).
		WithComponent(ComponentIngest).
		ToSlice()

	fields = append(fields, FieldCategoryCount, categories)
	sl.logger.Logger.InfoContext(ctx, "Ledger ingested", fields...)
}

// LogRequestError records a request that failed with an internal error.
func (sl *StructuredLogger) LogRequestError(ctx context.Context, r *http.Request, op string, err error) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithError(err).
		WithOperation(op).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.ErrorContext(ctx, "Request failed", fields.ToSlice()...)
}
