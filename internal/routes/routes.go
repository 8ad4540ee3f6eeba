package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/AnshRaj112/vidtube-backend/internal/config"
	"github.com/AnshRaj112/vidtube-backend/internal/handlers"
	"github.com/AnshRaj112/vidtube-backend/internal/middleware"
)

// Deps is everything the router needs from main.
type Deps struct {
	Config *config.Config
	Log    *slog.Logger
	Users  *handlers.UserHandler
	Auth   middleware.Authenticator
	Store  handlers.Pinger
}

// NewRouter builds the chi router with the global middleware chain, the
// health check and the user routes.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.Config.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck
	if d.Config.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(d.Config.AllowedHost) {
			r.Use(mw)
		}
	}

	r.Get("/health", handlers.Health(d.Store, healthTimeout(d.Config.StoreTimeout), d.Log))

	SetupRoutes(r, d)
	return r
}

func SetupRoutes(r chi.Router, d Deps) {
	verifyJWT := middleware.VerifyJWT(d.Auth, middleware.AccessTokenSources(), d.Log)
	h := d.Users

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh-token", h.RefreshAccessToken)

		// Secured routes
		r.Group(func(r chi.Router) {
			r.Use(verifyJWT)

			r.Post("/logout", h.Logout)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/current-user", h.GetCurrentUser)
			r.Patch("/update-account", h.UpdateAccount)
			r.Patch("/avatar", h.UpdateAvatar)
			r.Patch("/cover-image", h.UpdateCoverImage)
			r.Get("/c/{username}", h.GetChannelProfile)

			// Older client paths.
			r.Post("/update-password", h.ChangePassword)
			r.Post("/get-current-user", h.GetCurrentUser)
			r.Patch("/update-user-details", h.UpdateAccount)
			r.Patch("/update-user-avatar", h.UpdateAvatar)
			r.Patch("/update-user-cover-image", h.UpdateCoverImage)
			r.Get("/user-profile/{username}", h.GetChannelProfile)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Route not found"}`))
	})
}

func healthTimeout(storeTimeout time.Duration) time.Duration {
	if storeTimeout <= 0 {
		return 2 * time.Second
	}
	return storeTimeout
}
