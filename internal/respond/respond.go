// Package respond writes the JSON envelopes every handler returns.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/pkg/clientip"
)

// Envelope is the response body shape. Extra top-level fields (such as the
// tokens on login) go through Fields.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// JSON writes payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fields writes a success envelope with additional top-level fields.
func Fields(w http.ResponseWriter, status int, message string, data any, extra map[string]any) {
	body := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		body[k] = v
	}
	body["success"] = true
	body["message"] = message
	if data != nil {
		body["data"] = data
	}
	JSON(w, status, body)
}

// Error maps err to a status code and writes {success:false, message}. The
// client only ever sees the classified message; the cause goes to the log.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	e := apperror.As(err)
	status := apperror.HTTPStatus(e)

	attrs := []any{
		slog.String("kind", e.Kind.String()),
		slog.Int("status", status),
		slog.String("path", r.URL.Path),
		clientip.Attr(r),
	}
	if e.Code != "" {
		attrs = append(attrs, slog.String("code", string(e.Code)))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}

	switch {
	case status >= http.StatusInternalServerError:
		log.ErrorContext(r.Context(), "request failed", attrs...)
	case errors.Is(e, apperror.ErrUnauthorized), e.Kind == apperror.KindAuth:
		log.InfoContext(r.Context(), "request rejected", attrs...)
	default:
		log.DebugContext(r.Context(), "request rejected", attrs...)
	}

	if e.Retryable() {
		w.Header().Set("Retry-After", "1")
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	JSON(w, status, Envelope{Success: false, Message: msg})
}
