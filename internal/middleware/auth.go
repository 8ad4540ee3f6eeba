package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/internal/models"
	"github.com/AnshRaj112/vidtube-backend/internal/respond"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves an access token to the caller's profile.
// *services.SessionManager implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Profile, error)
}

// VerifyJWT rejects the request unless it carries a valid access token for an
// existing user. The token is looked up once, in source order. Credential
// failures are 401; store failures are 503.
func VerifyJWT(auth Authenticator, sources []TokenSource, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ResolveToken(r, sources...)
			if token == "" {
				respond.Error(w, r, log, apperror.Unauthorized("Unauthorized request", apperror.ErrMissingToken))
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				respond.Error(w, r, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user *models.Profile) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user attached by VerifyJWT.
func UserFromContext(ctx context.Context) (*models.Profile, bool) {
	user, ok := ctx.Value(userKey).(*models.Profile)
	return user, ok && user != nil
}
