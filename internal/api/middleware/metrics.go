package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/solvex-io/captcha-api/internal/metrics"
)

// Metrics records a request counter and latency histogram for every handled
// request. The path label uses the matched chi route pattern, not the raw
// URL, to keep label cardinality bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		metrics.HTTPRequestsTotal.
			WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).
			Inc()
		metrics.HTTPRequestDurationSeconds.
			WithLabelValues(r.Method, path).
			Observe(time.Since(start).Seconds())
	})
}
