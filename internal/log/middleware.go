package log

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware puts logger in the request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// RequestFieldsMiddleware adds the fields returned by extract to the
// context logger, so every later log line of the request carries them.
// Empty values are left out.
func RequestFieldsMiddleware(extract func(*http.Request) LogFields) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			args := make([]any, 0, 4)
			for key, value := range extract(r) {
				if s, ok := value.(string); ok && s == "" {
					continue
				}
				args = append(args, key, value)
			}
			if len(args) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			logger := FromContext(r.Context()).With(args...)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the logger carried by ctx or the default slog logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

func fromContextOr(ctx context.Context, fallback *Logger) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return fallback
}

// StructuredLogger logs the recurring events of a request and of the
// ledger. Record and error events prefer the request logger found in ctx,
// which carries the request fields.
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart logs the start of an HTTP request at debug level.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)
	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs a finished request; 4xx at warn, 5xx at error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)
	sl.logger.Log(ctx, levelForStatus(statusCode), "HTTP request completed", fields.ToSlice()...)
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// LogRecordCreated logs a record that reached the store.
func (sl *StructuredLogger) LogRecordCreated(ctx context.Context, kind, date, category string, amount decimal.Decimal) {
	fields := NewFields().
		WithRecord(kind, date, category, amount).
		WithOperation(OpCreate)
	fromContextOr(ctx, sl.logger).WithComponent(ComponentLedger).InfoContext(ctx, "Record created", fields.ToSlice()...)
}

// LogRecordRejected logs a submission refused by validation. Rejections
// are user errors and stay at info level.
func (sl *StructuredLogger) LogRecordRejected(ctx context.Context, kind string, reason error) {
	fields := LogFields{FieldKind: kind}.
		WithOperation(OpValidate).
		WithError(reason)
	fromContextOr(ctx, sl.logger).WithComponent(ComponentLedger).InfoContext(ctx, "Record rejected", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation)
	fromContextOr(ctx, sl.logger).WithComponent(component).ErrorContext(ctx, msg, fields.ToSlice()...)
}
