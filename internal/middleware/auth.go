package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/myc-roast/server-go/internal/model"
	"github.com/myc-roast/server-go/internal/repository"
)

type contextKey string

const ProfileContextKey contextKey = "profile"

// GetProfile returns the authenticated profile, or nil outside the auth
// middleware.
func GetProfile(ctx context.Context) *model.Profile {
	if profile, ok := ctx.Value(ProfileContextKey).(*model.Profile); ok {
		return profile
	}
	return nil
}

// AuthMiddleware resolves the user identity forwarded by the edge proxy.
// Token verification happens upstream; this layer only trusts the X-User-Id
// header and confirms the profile exists.
type AuthMiddleware struct {
	profileRepo repository.ProfileRepository
}

func NewAuthMiddleware(profileRepo repository.ProfileRepository) *AuthMiddleware {
	return &AuthMiddleware{profileRepo: profileRepo}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-Id")
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing user identity",
			})
			return
		}

		profile, err := m.profileRepo.FindByID(r.Context(), userID)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: database error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Authentication failed",
			})
			return
		}

		if profile == nil {
			log.Warn().Str("userId", userID).Msg("auth middleware: unknown user")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unknown user",
			})
			return
		}

		ctx := context.WithValue(r.Context(), ProfileContextKey, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
