package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"shared-notes-server/internal/ratelimit"
	"shared-notes-server/pkg/response"

	"go.uber.org/zap"
)

// RateLimitMiddleware rejects clients that exceed the limiter's window. If the
// limiter backend fails the request is let through.
func RateLimitMiddleware(limiter ratelimit.Limiter, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r)
			if userID := GetUserID(r); userID != 0 {
				key = fmt.Sprintf("user:%d", userID)
			}

			ok, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Warnw("rate limiter unavailable", "error", err, "request_id", GetRequestID(r))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				response.TooManyRequests(w, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
