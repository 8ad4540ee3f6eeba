package clientip

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the client IP from the request.
// Uses r.RemoteAddr only. When the server runs behind a proxy, chi's RealIP
// middleware rewrites RemoteAddr before this is called.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// Attr returns the client IP as a log attribute.
func Attr(r *http.Request) slog.Attr {
	return slog.String("client_ip", RealClientIP(r))
}
