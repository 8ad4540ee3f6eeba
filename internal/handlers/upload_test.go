package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
)

func TestUploadExt(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"avatar.PNG", ".png"},
		{"../../etc/passwd", ""},
		{"photo.tar.gz", ".gz"},
		{"noext", ""},
		{"weird.p$g", ""},
		{"long.abcdefghij", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uploadExt(tt.name))
		})
	}
}

func multipartBody(t *testing.T, field, name string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("x"), size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSaveUpload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "temp")
	body, ct := multipartBody(t, "avatar", "me.jpg", 10)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	cleanup, err := parseMultipart(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	defer cleanup()

	file, err := saveUpload(req, "avatar", dir)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "me.jpg", file.Name)
	assert.True(t, strings.HasPrefix(file.Path, dir))
	assert.Equal(t, ".jpg", filepath.Ext(file.Path))

	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Len(t, data, 10)

	missing, err := saveUpload(req, "coverImage", dir)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, file.Discard())
}

func TestParseMultipart_Errors(t *testing.T) {
	body, ct := multipartBody(t, "avatar", "big.png", 4096)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	cleanup, err := parseMultipart(httptest.NewRecorder(), req, 1024)
	cleanup()
	assert.ErrorIs(t, err, apperror.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	cleanup, err = parseMultipart(httptest.NewRecorder(), req, 1024)
	cleanup()
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
