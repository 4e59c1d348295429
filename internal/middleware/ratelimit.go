package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/myc-roast/server-go/internal/config"
	"github.com/myc-roast/server-go/internal/service"
)

// UserRateLimitMiddleware throttles authenticated traffic per user using
// the shared sliding window limiter. Anonymous requests pass through; the
// IP limiter in front of the router covers those.
type UserRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
}

func NewUserRateLimitMiddleware(limiter *service.RateLimiter, limit int) *UserRateLimitMiddleware {
	if limit <= 0 {
		limit = config.DefaultRateLimitPerMin
	}
	return &UserRateLimitMiddleware{limiter: limiter, limit: limit}
}

func (m *UserRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := GetProfile(r.Context())
		if profile == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "user:" + profile.ID
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, m.limit, config.RateLimitWindow)

		if !allowed {
			log.Warn().Str("userId", profile.ID).Msg("rate limit exceeded")
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secondsLeft))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IPRateLimitMiddleware throttles by remote address before auth runs, as a
// cheap shield for the public endpoints.
type IPRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
	window  time.Duration
	prefix  string
}

func NewIPRateLimitMiddleware(limiter *service.RateLimiter, limit int, window time.Duration, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		prefix:  prefix,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("ip:%s:%s", m.prefix, r.RemoteAddr)
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		if !allowed {
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secondsLeft))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
