package handlers

import (
	"net/http"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/internal/middleware"
	"github.com/AnshRaj112/vidtube-backend/internal/respond"
	"github.com/AnshRaj112/vidtube-backend/internal/services"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles multipart sign-up with an avatar and optional cover image.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	cleanup, err := parseMultipart(w, r, h.upload.maxBytes)
	defer cleanup()
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	avatar, err := saveUpload(r, "avatar", h.upload.dir)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	cover, err := saveUpload(r, "coverImage", h.upload.dir)
	if err != nil {
		if avatar != nil {
			_ = avatar.Discard()
		}
		respond.Error(w, r, h.log, err)
		return
	}

	profile, err := h.users.Register(r.Context(), services.RegisterInput{
		FullName:   r.FormValue("fullName"),
		Username:   r.FormValue("username"),
		Email:      r.FormValue("email"),
		Password:   r.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	respond.OK(w, http.StatusCreated, "User registered successfully", profile)
}

// Login sets the session cookies and also returns the tokens in the body for
// clients that cannot use cookies.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.log, apperror.Auth(apperror.CodeMissingCredentials, "Email and password are required", err))
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	h.setSessionCookies(w, &res.TokenPair)
	respond.Fields(w, http.StatusOK, "User logged in successfully", res.User, map[string]any{
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	})
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, r, h.log, apperror.Unauthorized("Unauthorized request", nil))
		return
	}

	if err := h.sessions.Logout(r.Context(), user.ID); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	h.clearSessionCookies(w)
	respond.OK(w, http.StatusOK, "User logged out", struct{}{})
}

// RefreshAccessToken rotates the session. The refresh token comes from the
// cookie or, failing that, the refreshToken header.
func (h *UserHandler) RefreshAccessToken(w http.ResponseWriter, r *http.Request) {
	presented := middleware.ResolveToken(r, middleware.RefreshTokenSources()...)

	pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	h.setSessionCookies(w, pair)
	respond.OK(w, http.StatusOK, "Access token refreshed", pair)
}
