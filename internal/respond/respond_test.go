package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/internal/logging"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", apperror.Validation("Email is invalid"), http.StatusBadRequest, "Email is invalid"},
		{"conflict", apperror.Conflict("taken"), http.StatusConflict, "taken"},
		{"missing token", apperror.Auth(apperror.CodeMissingToken, "Unauthorized request", nil), http.StatusUnauthorized, "Unauthorized request"},
		{"dependency", apperror.Dependency("Service temporarily unavailable", errors.New("dial tcp: refused")), http.StatusServiceUnavailable, "Service temporarily unavailable"},
		{"raw error is hidden", errors.New("pq: relation users does not exist"), http.StatusInternalServerError, "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)

			Error(rec, req, logging.Discard(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.NotContains(t, rec.Body.String(), "refused")
		})
	}
}

func TestError_RetryAfterOnDependency(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	Error(rec, req, logging.Discard(), apperror.Dependency("down", nil))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Fields(rec, http.StatusOK, "User logged in", map[string]string{"username": "alice"}, map[string]any{"accessToken": "a"})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "a", body["accessToken"])
	assert.Equal(t, "alice", body["data"].(map[string]any)["username"])
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}
