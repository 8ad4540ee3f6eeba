package services

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/vidtube-backend/internal/models"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    240 * time.Hour,
	}
}

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testTokenConfig())
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TokenConfig)
	}{
		{"empty access secret", func(c *TokenConfig) { c.AccessSecret = "" }},
		{"empty refresh secret", func(c *TokenConfig) { c.RefreshSecret = "" }},
		{"same secrets", func(c *TokenConfig) { c.RefreshSecret = c.AccessSecret }},
		{"zero ttl", func(c *TokenConfig) { c.AccessTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testTokenConfig()
			tt.mutate(&cfg)
			_, err := NewTokenIssuer(cfg)
			assert.Error(t, err)
		})
	}
}

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)
	user := &models.User{ID: "u-1", Username: "alice", Email: "alice@x.com", FullName: "Alice"}

	token, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)

	claims, err := issuer.Verify(token, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenIssuer_RefreshTokensAreUnique(t *testing.T) {
	issuer := newTestIssuer(t)

	a, err := issuer.IssueRefreshToken("u-1")
	require.NoError(t, err)
	b, err := issuer.IssueRefreshToken("u-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	claims, err := issuer.Verify(a, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Empty(t, claims.Username)
}

func TestTokenIssuer_SecretsAreNotInterchangeable(t *testing.T) {
	issuer := newTestIssuer(t)

	refresh, err := issuer.IssueRefreshToken("u-1")
	require.NoError(t, err)

	_, err = issuer.Verify(refresh, AccessToken)
	require.ErrorIs(t, err, ErrTokenSignatureMismatch)

	var tokErr *TokenError
	require.ErrorAs(t, err, &tokErr)
	assert.Equal(t, AccessToken, tokErr.Kind)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := newTestIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.IssueAccessToken(&models.User{ID: "u-1"})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token, AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenIssuer_Malformed(t *testing.T) {
	issuer := newTestIssuer(t)

	for _, bad := range []string{"", "abc", "a.b.c", strings.Repeat("x", 40)} {
		_, err := issuer.Verify(bad, RefreshToken)
		assert.ErrorIs(t, err, ErrTokenMalformed, bad)
	}
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer := newTestIssuer(t)

	claims := jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(token, AccessToken)
	assert.Error(t, err)
}

func TestTokenIssuer_RequiresSubject(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueRefreshToken("")
	require.NoError(t, err)

	_, err = issuer.Verify(token, RefreshToken)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
