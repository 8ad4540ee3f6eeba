package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/AnshRaj112/vidtube-backend/internal/respond"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the user store answers within timeout.
func Health(store Pinger, timeout time.Duration, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.WarnContext(r.Context(), "health check failed", slog.String("error", err.Error()))
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
