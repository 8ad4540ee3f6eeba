package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/internal/models"
	"github.com/AnshRaj112/vidtube-backend/internal/repository"
	"github.com/AnshRaj112/vidtube-backend/pkg/utils"
)

type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string

	Avatar     *LocalFile // required
	CoverImage *LocalFile
}

// AccountUpdate holds the editable account fields. Nil leaves a field as is.
type AccountUpdate struct {
	FullName *string
	Email    *string
	Username *string
}

// MediaUpdate is returned by the avatar and cover image updates. Warning is
// set when the previous file could not be deleted from storage.
type MediaUpdate struct {
	User    *models.Profile
	Warning error
}

// UserService implements registration and the profile routes.
type UserService struct {
	store    repository.UserStore
	hasher   PasswordHasher
	media    *MediaService
	sessions *SessionManager
	cache    *ProfileCache
	timeout  time.Duration
	log      *slog.Logger
}

func NewUserService(store repository.UserStore, hasher PasswordHasher, media *MediaService, sessions *SessionManager, cache *ProfileCache, storeTimeout time.Duration, log *slog.Logger) *UserService {
	return &UserService{
		store:    store,
		hasher:   hasher,
		media:    media,
		sessions: sessions,
		cache:    cache,
		timeout:  storeTimeout,
		log:      log,
	}
}

// Register validates input, checks uniqueness, uploads the media and creates
// the user. Uploaded files are deleted again if anything after them fails.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.Profile, error) {
	defer discardAll(in.Avatar, in.CoverImage)

	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.Username) == "" ||
		strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperror.Validation("All fields are required")
	}
	if err := firstInvalid(
		utils.ValidateFullName(in.FullName),
		utils.ValidateUsername(in.Username),
		utils.ValidateEmail(in.Email),
		utils.ValidatePassword(in.Password),
	); err != nil {
		return nil, err
	}
	if in.Avatar == nil {
		return nil, apperror.Validation("Avatar file is required")
	}

	username := utils.NormalizeUsername(in.Username)
	email := utils.NormalizeEmail(in.Email)

	_, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*models.User, error) {
		return s.store.FindByEmailOrUsername(ctx, email, username)
	})
	switch {
	case err == nil:
		return nil, apperror.Conflict("User with email or username already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeFailure("check existing user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal("Something went wrong while registering the user", err)
	}

	avatar, err := s.media.Upload(ctx, in.Avatar)
	if err != nil {
		return nil, err
	}

	var cover *Asset
	if in.CoverImage != nil {
		cover, err = s.media.Upload(ctx, in.CoverImage)
		if err != nil {
			s.media.Remove(context.WithoutCancel(ctx), avatar)
			return nil, err
		}
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Avatar:       avatar.URL,
		AvatarRef:    avatar.Ref,
		PasswordHash: hash,
	}
	if cover != nil {
		user.CoverImage = cover.URL
		user.CoverImageRef = cover.Ref
	}

	err = runWithTimeout(ctx, s.timeout, func(ctx context.Context) error { return s.store.Create(ctx, user) })
	if err != nil {
		s.media.Remove(context.WithoutCancel(ctx), avatar, cover)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("User with email or username already exists")
		}
		return nil, storeFailure("create user", err)
	}

	s.log.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return user.Profile(), nil
}

// ChangePassword verifies the old password, stores the new hash and ends the
// current session.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.Validation("Old and new password are required")
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return apperror.Validation(err.Error())
	}

	user, err := s.findByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return apperror.Internal("Something went wrong", fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return apperror.Auth(apperror.CodeInvalidCredentials, "Invalid old password", nil)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperror.Internal("Something went wrong", err)
	}

	if _, err := s.update(ctx, userID, models.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, userID)
}

// UpdateAccount changes name, email or username, re-checking uniqueness.
func (s *UserService) UpdateAccount(ctx context.Context, userID string, in AccountUpdate) (*models.Profile, error) {
	var upd models.UserUpdate

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if err := utils.ValidateFullName(name); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		upd.FullName = &name
	}
	if in.Email != nil {
		if err := utils.ValidateEmail(*in.Email); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		email := utils.NormalizeEmail(*in.Email)
		upd.Email = &email
	}
	if in.Username != nil {
		if err := utils.ValidateUsername(*in.Username); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		username := utils.NormalizeUsername(*in.Username)
		upd.Username = &username
	}
	if upd.Empty() {
		return nil, apperror.Validation("At least one field is required")
	}

	current, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var email, username string
	if upd.Email != nil && *upd.Email != current.Email {
		email = *upd.Email
	}
	if upd.Username != nil && *upd.Username != current.Username {
		username = *upd.Username
	}
	if email != "" || username != "" {
		other, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*models.User, error) {
			return s.store.FindByEmailOrUsername(ctx, email, username)
		})
		switch {
		case err == nil && other.ID != userID:
			return nil, apperror.Conflict("User with email or username already exists")
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, storeFailure("check existing user", err)
		}
	}

	updated, err := s.update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, current.Username, updated.Username)
	return updated.Profile(), nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *LocalFile) (*MediaUpdate, error) {
	return s.replaceMedia(ctx, userID, file, func(u *models.User) string { return u.AvatarRef },
		func(a *Asset) models.UserUpdate { return models.UserUpdate{Avatar: &a.URL, AvatarRef: &a.Ref} })
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, file *LocalFile) (*MediaUpdate, error) {
	return s.replaceMedia(ctx, userID, file, func(u *models.User) string { return u.CoverImageRef },
		func(a *Asset) models.UserUpdate { return models.UserUpdate{CoverImage: &a.URL, CoverImageRef: &a.Ref} })
}

// replaceMedia uploads the new file, deletes the old one and only then
// persists the new reference.
func (s *UserService) replaceMedia(ctx context.Context, userID string, file *LocalFile,
	currentRef func(*models.User) string, toUpdate func(*Asset) models.UserUpdate,
) (*MediaUpdate, error) {
	if file == nil {
		return nil, apperror.Validation("File is required")
	}
	defer discardAll(file)

	user, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rep, err := s.media.Replace(ctx, currentRef(user), file)
	if err != nil {
		return nil, err
	}

	updated, err := s.update(ctx, userID, toUpdate(rep.Asset))
	if err != nil {
		if rep.OldRemoved {
			// The record still points at the deleted asset; the new one is
			// the only copy, so keep it for manual repair.
			s.log.ErrorContext(ctx, "new media asset not persisted after old one was deleted",
				slog.String("user_id", userID), slog.String("ref", rep.Asset.Ref), slog.String("url", rep.Asset.URL))
			return nil, err
		}
		s.media.Remove(context.WithoutCancel(ctx), rep.Asset)
		return nil, err
	}

	s.cache.Invalidate(ctx, updated.Username)
	return &MediaUpdate{User: updated.Profile(), Warning: rep.Warning}, nil
}

// GetProfileByUsername serves the public channel page, through the cache when
// one is configured.
func (s *UserService) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	username = utils.NormalizeUsername(username)
	if username == "" {
		return nil, apperror.Validation("Username is missing")
	}

	if p, ok := s.cache.Get(ctx, username); ok {
		return p, nil
	}

	user, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*models.User, error) {
		return s.store.FindByUsername(ctx, username)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("Channel does not exist")
		}
		return nil, storeFailure("find user by username", err)
	}

	p := user.Profile()
	s.cache.Set(ctx, p)
	return p, nil
}

func (s *UserService) findByID(ctx context.Context, id string) (*models.User, error) {
	user, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*models.User, error) {
		return s.store.FindByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Auth(apperror.CodeUserNotFound, "User does not exist", nil)
		}
		return nil, storeFailure("find user by id", err)
	}
	return user, nil
}

func (s *UserService) update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	user, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*models.User, error) {
		return s.store.Update(ctx, id, upd)
	})
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperror.Auth(apperror.CodeUserNotFound, "User does not exist", nil)
	case errors.Is(err, repository.ErrDuplicate):
		return nil, apperror.Conflict("User with email or username already exists")
	default:
		return nil, storeFailure("update user", err)
	}
}

func discardAll(files ...*LocalFile) {
	for _, f := range files {
		if f != nil {
			_ = f.Discard()
		}
	}
}

// firstInvalid turns the first *utils.ValidationError into a ValidationError.
func firstInvalid(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return apperror.Validation(err.Error())
		}
	}
	return nil
}
