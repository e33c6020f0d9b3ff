package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vhu/portal/internal/ctxkeys"
	"github.com/vhu/portal/internal/metrics"
)

// statusRecorder remembers the status and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// quietPrefixes are counted in metrics but not logged: file serving and
// health checks would drown the API traffic.
var quietPrefixes = []string{"/uploads/", "/metrics", "/healthz"}

// RequestLogging logs one line per request and records it as a metric
// labelled by the matched route pattern. It must be the innermost
// middleware: the mux sets r.Pattern on the request it is handed, and any
// wrapper that derives a new request in between hides it.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(r.Method, route, status, duration)

		for _, prefix := range quietPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				return
			}
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", rec.bytes),
			slog.Int64("duration_ms", duration.Milliseconds()),
		}
		if p := ctxkeys.Principal(r.Context()); p != nil {
			attrs = append(attrs, slog.Int64("user_id", p.UserID))
		}
		slog.LogAttrs(r.Context(), level, "http request", attrs...)
	})
}
