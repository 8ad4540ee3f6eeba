package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET_KEY", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET_KEY", "refresh-secret")
}

func TestParse_Defaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, MediaCloudinary, cfg.MediaDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 240*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 30*time.Second, cfg.MediaTimeout)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.AllowedHost)
	assert.False(t, cfg.IsProduction())
}

func TestParse_Overrides(t *testing.T) {
	setSecrets(t)
	t.Setenv("ENV", " Production ")
	t.Setenv("HOST", "https://api.vidtube.dev:443/v1")
	t.Setenv("CORS_ORIGIN", "https://vidtube.dev, https://www.vidtube.dev,,https://VIDTUBE.dev")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "5m")
	t.Setenv("STORE_DRIVER", "postgres")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "api.vidtube.dev", cfg.AllowedHost)
	assert.Equal(t, []string{"https://vidtube.dev", "https://www.vidtube.dev"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing secrets",
			env:  map[string]string{"ACCESS_TOKEN_SECRET_KEY": "", "REFRESH_TOKEN_SECRET_KEY": ""},
		},
		{
			name: "identical secrets",
			env:  map[string]string{"ACCESS_TOKEN_SECRET_KEY": "same", "REFRESH_TOKEN_SECRET_KEY": "same"},
		},
		{
			name: "negative ttl",
			env:  map[string]string{"ACCESS_TOKEN_SECRET_KEY": "a", "REFRESH_TOKEN_SECRET_KEY": "b", "REFRESH_TOKEN_EXPIRY": "-1h"},
		},
		{
			name: "zero media timeout",
			env:  map[string]string{"ACCESS_TOKEN_SECRET_KEY": "a", "REFRESH_TOKEN_SECRET_KEY": "b", "MEDIA_TIMEOUT": "0s"},
		},
		{
			name: "unknown store",
			env:  map[string]string{"ACCESS_TOKEN_SECRET_KEY": "a", "REFRESH_TOKEN_SECRET_KEY": "b", "STORE_DRIVER": "sqlite"},
		},
		{
			name: "unknown media driver",
			env:  map[string]string{"ACCESS_TOKEN_SECRET_KEY": "a", "REFRESH_TOKEN_SECRET_KEY": "b", "MEDIA_DRIVER": "ftp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
		})
	}
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "api.vidtube.dev", hostname("https://api.vidtube.dev/"))
	assert.Equal(t, "localhost", hostname("http://localhost:8000"))
	assert.Equal(t, "", hostname(""))
}
