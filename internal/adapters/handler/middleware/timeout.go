package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds each request. Requests matching any exempt predicate run
// under their own deadlines and are passed through untouched.
func Timeout(timeout time.Duration, exempt ...func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timeoutHandler := http.TimeoutHandler(
			next,
			timeout,
			`{"success":false,"error":{"code":"TIMEOUT","message":"Request timeout","retryable":true}}`,
		)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range exempt {
				if skip(r) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			timeoutHandler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
