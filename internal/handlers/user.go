package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/internal/middleware"
	"github.com/AnshRaj112/vidtube-backend/internal/models"
	"github.com/AnshRaj112/vidtube-backend/internal/respond"
	"github.com/AnshRaj112/vidtube-backend/internal/services"
)

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UpdateAccountRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Username *string `json:"username"`
}

func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.Profile, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, r, h.log, apperror.Unauthorized("Unauthorized request", nil))
	}
	return user, ok
}

// ChangePassword also ends the session, so the client has to log in again.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	if err := h.users.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	h.clearSessionCookies(w)
	respond.OK(w, http.StatusOK, "Password changed successfully", struct{}{})
}

func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	respond.OK(w, http.StatusOK, "Current user fetched successfully", user)
}

func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	updated, err := h.users.UpdateAccount(r.Context(), user.ID, services.AccountUpdate{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
	})
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, "Account details updated successfully", updated)
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "avatar", "Avatar", h.users.UpdateAvatar)
}

func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "coverImage", "Cover image", h.users.UpdateCoverImage)
}

type mediaUpdater func(ctx context.Context, userID string, file *services.LocalFile) (*services.MediaUpdate, error)

func (h *UserHandler) updateMedia(w http.ResponseWriter, r *http.Request, field, label string, update mediaUpdater) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	cleanup, err := parseMultipart(w, r, h.upload.maxBytes)
	defer cleanup()
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	file, err := saveUpload(r, field, h.upload.dir)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if file == nil {
		respond.Error(w, r, h.log, apperror.Validation(label+" file is missing"))
		return
	}

	res, err := update(r.Context(), user.ID, file)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	body := respond.Envelope{Success: true, Message: label + " updated successfully", Data: res.User}
	if res.Warning != nil {
		h.log.WarnContext(r.Context(), "previous media not deleted",
			slog.String("user_id", user.ID), slog.String("error", res.Warning.Error()))
		body.Warning = apperror.As(res.Warning).Message
	}
	respond.JSON(w, http.StatusOK, body)
}

// GetChannelProfile returns another user's public profile.
func (h *UserHandler) GetChannelProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfileByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, "User channel fetched successfully", profile)
}
