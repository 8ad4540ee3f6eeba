package middleware

import (
	"net/http"
	"strings"
)

// TokenSource extracts a credential from a request. An empty string means the
// source had nothing.
type TokenSource interface {
	Token(r *http.Request) string
}

// CookieSource reads the named cookie.
type CookieSource struct {
	Name string
}

func (s CookieSource) Token(r *http.Request) string {
	c, err := r.Cookie(s.Name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// BearerSource reads "Authorization: Bearer <token>".
type BearerSource struct{}

func (BearerSource) Token(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// HeaderSource reads a raw header value.
type HeaderSource struct {
	Name string
}

func (s HeaderSource) Token(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(s.Name))
}

// ResolveToken returns the first non-empty token in source order.
func ResolveToken(r *http.Request, sources ...TokenSource) string {
	for _, src := range sources {
		if tok := src.Token(r); tok != "" {
			return tok
		}
	}
	return ""
}

// AccessTokenSources is the lookup order for access tokens.
func AccessTokenSources() []TokenSource {
	return []TokenSource{CookieSource{Name: "accessToken"}, BearerSource{}}
}

// RefreshTokenSources is the lookup order for refresh tokens.
func RefreshTokenSources() []TokenSource {
	return []TokenSource{CookieSource{Name: "refreshToken"}, HeaderSource{Name: "refreshToken"}}
}
