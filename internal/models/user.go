package models

import (
	"time"
)

// User is the account record as persisted by the repository layer.
type User struct {
	ID        string    `json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`

	Avatar        string `json:"avatar"`
	AvatarRef     string `json:"-"`
	CoverImage    string `json:"coverImage"`
	CoverImageRef string `json:"-"`

	// Internal only - never returned in JSON
	PasswordHash string `json:"-"`
	RefreshToken string `json:"-"`
}

// Profile is the client-facing projection of a User. It carries no
// credential material and no blob references.
type Profile struct {
	ID         string    `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Profile strips the password hash, refresh token and blob references.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// UserUpdate lists the profile fields a caller may change. Nil means
// "leave unchanged".
type UserUpdate struct {
	Username      *string
	Email         *string
	FullName      *string
	Avatar        *string
	AvatarRef     *string
	CoverImage    *string
	CoverImageRef *string
	PasswordHash  *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.FullName == nil &&
		u.Avatar == nil && u.AvatarRef == nil &&
		u.CoverImage == nil && u.CoverImageRef == nil &&
		u.PasswordHash == nil
}

// Apply copies the set fields onto user.
func (u UserUpdate) Apply(user *User) {
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.FullName != nil {
		user.FullName = *u.FullName
	}
	if u.Avatar != nil {
		user.Avatar = *u.Avatar
	}
	if u.AvatarRef != nil {
		user.AvatarRef = *u.AvatarRef
	}
	if u.CoverImage != nil {
		user.CoverImage = *u.CoverImage
	}
	if u.CoverImageRef != nil {
		user.CoverImageRef = *u.CoverImageRef
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
}
