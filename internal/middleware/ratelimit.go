package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/notes-app/backend/internal/delivery/http/response"
)

// ClientIP returns the host part of RemoteAddr. chi's RealIP middleware has
// already replaced it with the forwarded address when one was sent.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit allows limit requests per window for each client IP and endpoint,
// answering the rest with a 429 envelope. A non-positive limit disables it.
// Each call keeps its own counters, so share the returned middleware between
// routes that should be limited together.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.Error(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
}
