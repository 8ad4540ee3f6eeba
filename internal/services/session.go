package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/internal/models"
	"github.com/AnshRaj112/vidtube-backend/internal/repository"
	"github.com/AnshRaj112/vidtube-backend/pkg/utils"
)

// SessionStore is the part of the user store the session lifecycle needs.
type SessionStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindProfileByID(ctx context.Context, id string) (*models.Profile, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	SwapRefreshToken(ctx context.Context, id, expected, next string) error
}

// PasswordHasher is satisfied by *utils.Argon2Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hashedPassword string) (bool, error)
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResult struct {
	TokenPair
	User *models.Profile
}

// SessionManager drives login, refresh and logout. Each user has at most one
// trusted refresh token, stored on the user record.
type SessionManager struct {
	store   SessionStore
	hasher  PasswordHasher
	tokens  *TokenIssuer
	timeout time.Duration
	log     *slog.Logger
}

func NewSessionManager(store SessionStore, hasher PasswordHasher, tokens *TokenIssuer, storeTimeout time.Duration, log *slog.Logger) *SessionManager {
	return &SessionManager{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		timeout: storeTimeout,
		log:     log,
	}
}

// Login authenticates by email and password and starts a new session,
// replacing any previous one.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Auth(apperror.CodeMissingCredentials, "Email and password are required", nil)
	}

	user, err := withTimeout(ctx, m.timeout, func(ctx context.Context) (*models.User, error) {
		return m.store.FindByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Auth(apperror.CodeUserNotFound, "User does not exist", nil)
		}
		return nil, storeFailure("find user by email", err)
	}

	ok, err := m.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, apperror.Internal("Something went wrong", fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		m.log.InfoContext(ctx, "login rejected", slog.String("user_id", user.ID))
		return nil, apperror.Auth(apperror.CodeInvalidCredentials, "Invalid user credentials", nil)
	}

	pair, err := m.issuePair(user)
	if err != nil {
		return nil, err
	}

	err = runWithTimeout(ctx, m.timeout, func(ctx context.Context) error {
		return m.store.SetRefreshToken(ctx, user.ID, pair.RefreshToken)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Auth(apperror.CodeUserNotFound, "User does not exist", nil)
		}
		return nil, storeFailure("store refresh token", err)
	}

	m.log.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return &LoginResult{TokenPair: *pair, User: user.Profile()}, nil
}

// Refresh rotates the session. The presented token must be the one currently
// stored for the user; afterwards it is no longer accepted.
func (m *SessionManager) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, apperror.Auth(apperror.CodeMissingToken, "Unauthorized request", nil)
	}

	claims, err := m.tokens.Verify(presented, RefreshToken)
	if err != nil {
		return nil, apperror.Auth(apperror.CodeInvalidToken, "Invalid refresh token", err)
	}

	user, err := withTimeout(ctx, m.timeout, func(ctx context.Context) (*models.User, error) {
		return m.store.FindByID(ctx, claims.Subject)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Auth(apperror.CodeInvalidToken, "Invalid refresh token", err)
		}
		return nil, storeFailure("find user by id", err)
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		m.log.WarnContext(ctx, "stale refresh token presented", slog.String("user_id", user.ID))
		return nil, apperror.Auth(apperror.CodeTokenReuseDetected, "Refresh token is expired or used", nil)
	}

	pair, err := m.issuePair(user)
	if err != nil {
		return nil, err
	}

	err = runWithTimeout(ctx, m.timeout, func(ctx context.Context) error {
		return m.store.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrStaleRefreshToken):
		m.log.WarnContext(ctx, "concurrent refresh lost the race", slog.String("user_id", user.ID))
		return nil, apperror.Auth(apperror.CodeTokenReuseDetected, "Refresh token is expired or used", err)
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperror.Auth(apperror.CodeInvalidToken, "Invalid refresh token", err)
	default:
		return nil, storeFailure("rotate refresh token", err)
	}

	return pair, nil
}

// Logout clears the stored refresh token. Calling it again is a no-op.
func (m *SessionManager) Logout(ctx context.Context, userID string) error {
	err := runWithTimeout(ctx, m.timeout, func(ctx context.Context) error {
		return m.store.SetRefreshToken(ctx, userID, "")
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return storeFailure("clear refresh token", err)
	}
	m.log.InfoContext(ctx, "user logged out", slog.String("user_id", userID))
	return nil
}

// Revoke ends the user's session without a request from that session, for
// example after a password change.
func (m *SessionManager) Revoke(ctx context.Context, userID string) error {
	return m.Logout(ctx, userID)
}

// Authenticate resolves an access token to the user's public profile. Every
// credential failure is Unauthorized; store failures are DependencyError.
func (m *SessionManager) Authenticate(ctx context.Context, accessToken string) (*models.Profile, error) {
	if accessToken == "" {
		return nil, apperror.Unauthorized("Unauthorized request", apperror.ErrMissingToken)
	}

	claims, err := m.tokens.Verify(accessToken, AccessToken)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid access token", err)
	}

	profile, err := withTimeout(ctx, m.timeout, func(ctx context.Context) (*models.Profile, error) {
		return m.store.FindProfileByID(ctx, claims.Subject)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid access token", err)
		}
		return nil, storeFailure("load user profile", err)
	}
	return profile, nil
}

func (m *SessionManager) issuePair(user *models.User) (*TokenPair, error) {
	access, err := m.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, apperror.Internal("Something went wrong while generating tokens", err)
	}
	refresh, err := m.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperror.Internal("Something went wrong while generating tokens", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func runWithTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	_, err := withTimeout(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// withTimeout bounds a single store call.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

// storeFailure classifies any store error that is not a domain outcome.
// Timeouts included, these are retryable and never reported as 401.
func storeFailure(op string, err error) error {
	return apperror.Dependency("Service temporarily unavailable", fmt.Errorf("%s: %w", op, err))
}
