// Package repository persists users. Three interchangeable stores are
// provided: MongoDB (default), PostgreSQL and an in-process map used by tests
// and local development.
package repository

import (
	"context"
	"errors"

	"github.com/AnshRaj112/vidtube-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username or email already exists")
	// ErrStaleRefreshToken means the compare-and-set on the refresh token
	// found a different value than expected.
	ErrStaleRefreshToken = errors.New("stored refresh token changed")
)

// UserStore is implemented by every backing store.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindProfileByID(ctx context.Context, id string) (*models.Profile, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)

	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error)

	// SetRefreshToken overwrites the stored token. An empty token clears it.
	SetRefreshToken(ctx context.Context, id, token string) error
	// SwapRefreshToken replaces expected with next only if expected is still
	// the stored value. Otherwise it returns ErrStaleRefreshToken.
	SwapRefreshToken(ctx context.Context, id, expected, next string) error

	Ping(ctx context.Context) error
}
