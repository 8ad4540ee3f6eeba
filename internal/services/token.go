package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AnshRaj112/vidtube-backend/internal/config"
	"github.com/AnshRaj112/vidtube-backend/internal/models"
)

// Typed verification failures. Verify always wraps one of these in a
// *TokenError.
var (
	ErrTokenExpired           = errors.New("token expired")
	ErrTokenMalformed         = errors.New("token malformed")
	ErrTokenSignatureMismatch = errors.New("token signature mismatch")
)

// TokenKind selects the secret and TTL a token is issued or verified with.
type TokenKind int

const (
	AccessToken TokenKind = iota + 1
	RefreshToken
)

func (k TokenKind) String() string {
	switch k {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	default:
		return "unknown"
	}
}

// TokenError carries the typed reason and the underlying jwt error.
type TokenError struct {
	Kind   TokenKind
	Reason error
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %v: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %v", e.Kind, e.Reason)
}

func (e *TokenError) Unwrap() []error { return []error{e.Reason, e.Err} }

// Claims are the JWT claims for both token kinds. Subject is the user id.
// Refresh tokens leave the profile fields empty.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// TokenConfigFrom copies the token settings out of the process config.
func TokenConfigFrom(cfg *config.Config) TokenConfig {
	return TokenConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}
}

// TokenIssuer mints and verifies HS256 JWTs. It is immutable after
// construction and safe for concurrent use.
type TokenIssuer struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	switch {
	case cfg.AccessSecret == "" || cfg.RefreshSecret == "":
		return nil, errors.New("token secrets must not be empty")
	case cfg.AccessSecret == cfg.RefreshSecret:
		return nil, errors.New("access and refresh secrets must differ")
	case cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0:
		return nil, errors.New("token ttl must be positive")
	}

	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

func (i *TokenIssuer) IssueAccessToken(user *models.User) (string, error) {
	claims := i.baseClaims(user.ID, i.accessTTL)
	claims.Email = user.Email
	claims.Username = user.Username
	claims.FullName = user.FullName
	return i.sign(claims, i.accessSecret)
}

func (i *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	return i.sign(i.baseClaims(userID, i.refreshTTL), i.refreshSecret)
}

// baseClaims gives every token a fresh jti so two tokens issued within the
// same second never compare equal.
func (i *TokenIssuer) baseClaims(subject string, ttl time.Duration) *Claims {
	now := i.now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (i *TokenIssuer) sign(claims *Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry against the secret for kind.
func (i *TokenIssuer) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	secret := i.accessSecret
	if kind == RefreshToken {
		secret = i.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, &TokenError{Kind: kind, Reason: classifyJWTError(err), Err: err}
	}
	if !token.Valid || claims.Subject == "" {
		return nil, &TokenError{Kind: kind, Reason: ErrTokenMalformed}
	}
	return claims, nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureMismatch
	default:
		return ErrTokenMalformed
	}
}
