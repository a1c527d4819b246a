// Package requesttime captures one "now" per HTTP request so that status
// checks, decay, and audit timestamps within a request agree.
package requesttime

import (
	"net/http"
	"time"

	"trustscore/pkg/requestcontext"
)

// Middleware stores the request start time in the context. Read it with
// requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injectable clock.
func WithClock(clock func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
