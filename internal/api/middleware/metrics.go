package middleware

import (
	"net/http"
	"time"

	"credit-approval/internal/infrastructure/monitoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// unmatchedRoute labels requests chi could not route, keeping the path label
// bounded by the route table.
const unmatchedRoute = "unmatched"

func MetricsMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				routePattern := unmatchedRoute
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					routePattern = rctx.RoutePattern()
				}
				monitoring.RecordHTTPRequest(r.Method, routePattern, ww.Status(), time.Since(start))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
