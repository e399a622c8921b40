package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notes-app/backend/internal/auth"
	"github.com/notes-app/backend/internal/delivery/http/response"
	"github.com/notes-app/backend/internal/domain"
)

type AuthMiddleware struct {
	signer   *auth.Signer
	userRepo domain.UserRepository
	logger   zerolog.Logger
}

func NewAuthMiddleware(signer *auth.Signer, userRepo domain.UserRepository, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		signer:   signer,
		userRepo: userRepo,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Authenticate attaches the caller's identity when the request carries a
// valid bearer token for an existing user. It never rejects: requests
// without a usable token continue unauthenticated.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		username, err := m.signer.Verify(token)
		if err != nil {
			m.logger.Debug().Err(err).Msg("rejected access token")
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.userRepo.GetByUsername(r.Context(), username)
		if err != nil {
			m.logger.Error().Err(err).Str("username", username).Msg("load user for token")
			next.ServeHTTP(w, r)
			return
		}
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.WithIdentity(r.Context(), auth.Identity{UserID: user.ID, Username: user.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests that Authenticate left unauthenticated.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			response.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := auth.FromContext(ctx)
	return id.UserID, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
