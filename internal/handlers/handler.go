package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/internal/config"
	"github.com/AnshRaj112/vidtube-backend/internal/services"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 16 << 10

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// UserHandler serves /api/v1/users.
type UserHandler struct {
	sessions *services.SessionManager
	users    *services.UserService
	cookies  cookieConfig
	upload   uploadConfig
	log      *slog.Logger
}

type cookieConfig struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type uploadConfig struct {
	dir      string
	maxBytes int64
}

func NewUserHandler(cfg *config.Config, sessions *services.SessionManager, users *services.UserService, log *slog.Logger) *UserHandler {
	return &UserHandler{
		sessions: sessions,
		users:    users,
		cookies: cookieConfig{
			secure:     cfg.CookieSecure,
			accessTTL:  cfg.AccessTokenTTL,
			refreshTTL: cfg.RefreshTokenTTL,
		},
		upload: uploadConfig{dir: cfg.UploadTempDir, maxBytes: cfg.MaxUploadBytes},
		log:    log,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("Request body is required")
		}
		return apperror.Validation("Invalid request body")
	}
	return nil
}

func (h *UserHandler) setSessionCookies(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, h.cookie(accessTokenCookie, pair.AccessToken, h.cookies.accessTTL))
	http.SetCookie(w, h.cookie(refreshTokenCookie, pair.RefreshToken, h.cookies.refreshTTL))
}

func (h *UserHandler) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(accessTokenCookie, "", -1))
	http.SetCookie(w, h.cookie(refreshTokenCookie, "", -1))
}

// cookie builds an HttpOnly session cookie. A negative ttl deletes it.
func (h *UserHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookies.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}
