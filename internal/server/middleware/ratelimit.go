package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns an HTTP middleware that limits requests per IP address
// to the specified number per minute.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// RateLimitBySession limits requests per session to the specified number
// per minute. Requests without a session fall back to the client IP. Must
// run after Session.
func RateLimitBySession(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if id := GetSessionID(r.Context()); id != "" {
				return "session:" + id, nil
			}
			return httprate.KeyByIP(r)
		}),
	)
}
