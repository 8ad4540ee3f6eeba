package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/AnshRaj112/vidtube-backend/internal/models"
)

const pgUniqueViolation = "23505"

const userColumns = `id, created_at, updated_at, username, email, full_name,
	avatar, avatar_ref, cover_image, cover_image_ref, password_hash, refresh_token`

// PostgresUserStore stores users in the "users" table created by the
// migrations in internal/database/migrations.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u       models.User
		refresh sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.UpdatedAt,
		&u.Username, &u.Email, &u.FullName,
		&u.Avatar, &u.AvatarRef, &u.CoverImage, &u.CoverImageRef,
		&u.PasswordHash, &refresh,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.RefreshToken = refresh.String
	return &u, nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresUserStore) FindProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var p models.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, full_name, avatar, cover_image, created_at, updated_at
		FROM users WHERE id = $1`, id,
	).Scan(&p.ID, &p.Username, &p.Email, &p.FullName, &p.Avatar, &p.CoverImage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (s *PostgresUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

func (s *PostgresUserStore) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	if email == "" && username == "" {
		return nil, ErrNotFound
	}
	return s.queryOne(ctx,
		`SELECT `+userColumns+` FROM users
		WHERE ($1 <> '' AND LOWER(email) = LOWER($1)) OR ($2 <> '' AND LOWER(username) = LOWER($2))
		LIMIT 1`, email, username)
}

func (s *PostgresUserStore) queryOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, err
}

func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, full_name, avatar, avatar_ref, cover_image, cover_image_ref, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.FullName,
		user.Avatar, user.AvatarRef, user.CoverImage, user.CoverImageRef,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	columns := []struct {
		name  string
		value *string
	}{
		{"username", update.Username},
		{"email", update.Email},
		{"full_name", update.FullName},
		{"avatar", update.Avatar},
		{"avatar_ref", update.AvatarRef},
		{"cover_image", update.CoverImage},
		{"cover_image_ref", update.CoverImageRef},
		{"password_hash", update.PasswordHash},
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	for _, c := range columns {
		if c.value == nil {
			continue
		}
		args = append(args, *c.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns
	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) SetRefreshToken(ctx context.Context, id, token string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $2 WHERE id = $1`,
		id, sql.NullString{String: token, Valid: token != ""},
	)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapRefreshToken is a single conditional UPDATE; the row lock taken by
// Postgres serializes concurrent swaps on the same user.
func (s *PostgresUserStore) SwapRefreshToken(ctx context.Context, id, expected, next string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	if expected == "" {
		return ErrStaleRefreshToken
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $3 WHERE id = $1 AND refresh_token = $2`,
		id, expected, next,
	)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if n == 0 {
		return ErrStaleRefreshToken
	}
	return nil
}

func (s *PostgresUserStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
