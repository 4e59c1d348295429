package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// CronAuthMiddleware protects endpoints meant for the external scheduler.
// When no secret is configured the check is disabled, which keeps local
// development working without extra setup.
type CronAuthMiddleware struct {
	secret string
}

func NewCronAuthMiddleware(secret string) *CronAuthMiddleware {
	return &CronAuthMiddleware{secret: secret}
}

func (m *CronAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader ||
			subtle.ConstantTimeCompare([]byte(token), []byte(m.secret)) != 1 {
			log.Warn().Str("path", r.URL.Path).Msg("cron auth: rejected caller")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
