package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"autotundra/internal/shared/logging"
)

func resolveRequestID(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, header := range []string{"X-Request-Id", "X-Correlation-Id"} {
		if value := strings.TrimSpace(r.Header.Get(header)); value != "" {
			return value
		}
	}
	return ""
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// LoggingMiddleware assigns a request id (reusing an inbound X-Request-Id
// if present) and logs method/path/remote addr, mirroring the teacher's
// per-request structured logging.
func LoggingMiddleware(logger logging.Logger) func(http.Handler) http.Handler {
	logger = logging.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := resolveRequestID(r)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			ctx := context.WithValue(r.Context(), requestIDContextKey, reqID)
			w.Header().Set("X-Request-Id", reqID)
			logger.Info("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "request_id", reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
