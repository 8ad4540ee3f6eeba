package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/vidtube-backend/internal/models"
)

// MemoryUserStore keeps users in a map. It is safe for concurrent use.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string]models.User),
		now:   time.Now,
	}
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) FindProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Profile(), nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findFirst(ctx, func(u *models.User) bool {
		return strings.EqualFold(u.Email, email)
	})
}

func (s *MemoryUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findFirst(ctx, func(u *models.User) bool {
		return strings.EqualFold(u.Username, username)
	})
}

func (s *MemoryUserStore) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	return s.findFirst(ctx, func(u *models.User) bool {
		return (email != "" && strings.EqualFold(u.Email, email)) ||
			(username != "" && strings.EqualFold(u.Username, username))
	})
}

func (s *MemoryUserStore) findFirst(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(&u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflictLocked("", user.Email, user.Username) {
		return ErrDuplicate
	}

	now := s.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	var email, username string
	if update.Email != nil {
		email = *update.Email
	}
	if update.Username != nil {
		username = *update.Username
	}
	if s.conflictLocked(id, email, username) {
		return nil, ErrDuplicate
	}

	update.Apply(&u)
	u.UpdatedAt = s.now().UTC()
	s.users[id] = u
	return &u, nil
}

// conflictLocked reports whether another user already owns email or username.
func (s *MemoryUserStore) conflictLocked(selfID, email, username string) bool {
	for id, u := range s.users {
		if id == selfID {
			continue
		}
		if email != "" && strings.EqualFold(u.Email, email) {
			return true
		}
		if username != "" && strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

func (s *MemoryUserStore) SetRefreshToken(ctx context.Context, id, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = token
	s.users[id] = u
	return nil
}

func (s *MemoryUserStore) SwapRefreshToken(ctx context.Context, id, expected, next string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	if expected == "" || u.RefreshToken != expected {
		return ErrStaleRefreshToken
	}
	u.RefreshToken = next
	s.users[id] = u
	return nil
}

func (s *MemoryUserStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
