package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Logging emits one line per request once the handler returns. The route
// pattern and caller are read after routing and auth have run.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			fields := map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       routePattern(r),
				"status":      rec.code(),
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if q := r.URL.RawQuery; q != "" {
				fields["query"] = q
			}
			ctx := logg.WithFields(r.Context(), fields)
			if rec.code() >= http.StatusInternalServerError {
				logg.Warn(ctx, "http.request.failed")
				return
			}
			logg.Info(ctx, "http.request")
		})
	}
}
