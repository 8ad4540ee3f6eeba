// Package logging builds the process-wide slog.Logger. It is created once in
// main and injected everywhere else.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger at info level for production and a text logger
// at debug level for anything else.
func New(environment string) *slog.Logger {
	return NewWithWriter(environment, os.Stdout)
}

func NewWithWriter(environment string, w io.Writer) *slog.Logger {
	env := strings.ToLower(strings.TrimSpace(environment))

	var h slog.Handler
	if env == "production" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	return slog.New(h).With(slog.String("service", "vidtube"), slog.String("env", env))
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MaskURI hides the password part of a connection string.
func MaskURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at == -1 {
		return uri
	}
	scheme := strings.Index(uri, "://")
	start := 0
	if scheme != -1 {
		start = scheme + 3
	}
	userInfo := uri[start:at]
	colon := strings.Index(userInfo, ":")
	if colon == -1 {
		return uri
	}
	return uri[:start] + userInfo[:colon] + ":***" + uri[at:]
}
