package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/halolight/officehub/pkg/idx"
)

// HTTPMiddleware assigns every request a ULID request id, stores a
// request-scoped logger in the context and emits one access log record per
// request with method, path, status and duration.
func HTTPMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := idx.New().String()

			reqLogger := logger.With(slog.String("req_id", reqID))
			ctx := WithContext(r.Context(), reqLogger)

			w.Header().Set("X-Request-Id", reqID)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			reqLogger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
