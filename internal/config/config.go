package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	MediaCloudinary = "cloudinary"
	MediaS3         = "s3"
)

// Config is built once in main and handed to every component that needs it.
// Nothing reads the environment after Load returns.
type Config struct {
	Environment    string   `env:"ENV" envDefault:"development"`
	Port           string   `env:"PORT" envDefault:"8000"`
	Host           string   `env:"HOST" envDefault:"http://localhost:8000"` // Raw HOST env (e.g. https://api.vidtube.dev)
	AllowedHost    string   // Hostname only for strict host check (production only)
	AllowedOrigins []string `env:"CORS_ORIGIN" envSeparator:"," envDefault:"http://localhost:3000"`

	StoreDriver  string        `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI     string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017/vidtube"`
	PostgresURI  string        `env:"POSTGRES_URI" envDefault:"postgres://localhost:5432/vidtube?sslmode=disable"`
	RedisURI     string        `env:"REDIS_URI"` // empty disables the profile cache
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET_KEY"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET_KEY"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"240h"`
	CookieSecure       bool          `env:"COOKIE_SECURE" envDefault:"true"`

	MediaDriver         string        `env:"MEDIA_DRIVER" envDefault:"cloudinary"`
	MediaFolder         string        `env:"MEDIA_FOLDER" envDefault:"vidtube"`
	MediaTimeout        time.Duration `env:"MEDIA_TIMEOUT" envDefault:"30s"`
	CloudinaryName      string        `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string        `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string        `env:"CLOUDINARY_API_SECRET"`
	S3Bucket            string        `env:"S3_BUCKET"`
	S3Region            string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint          string        `env:"S3_ENDPOINT"`
	S3AccessKeyID       string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey   string        `env:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL         string        `env:"S3_PUBLIC_URL"`

	UploadTempDir  string `env:"UPLOAD_TEMP_DIR" envDefault:"./public/temp"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()
	return Parse()
}

// Parse builds a Config from the current environment without touching .env.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.AllowedOrigins = cleanOrigins(cfg.AllowedOrigins)

	// AllowedHost is only set in production; host check is skipped in development
	if cfg.IsProduction() {
		cfg.AllowedHost = hostname(cfg.Host)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the token issuer or stores cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET_KEY is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET_KEY is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRY must be positive"))
	}
	if c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRY must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.MediaTimeout <= 0 {
		errs = append(errs, errors.New("MEDIA_TIMEOUT must be positive"))
	}

	switch c.StoreDriver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.MediaDriver {
	case MediaCloudinary, MediaS3:
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_DRIVER %q", c.MediaDriver))
	}

	return errors.Join(errs...)
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CloudinaryConfigured reports whether all Cloudinary credentials are present.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// hostname strips scheme, path and port from a HOST value.
func hostname(host string) string {
	h := strings.TrimSpace(host)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func cleanOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o != "" && !containsOrigin(out, o) {
			out = append(out, o)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}
