package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/internal/services"
)

// multipartMemory is how much of a multipart body is held in memory before
// the stdlib spills to its own temp files.
const multipartMemory = 8 << 20

// parseMultipart parses a multipart body no larger than maxBytes. The caller
// must call the returned cleanup.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) (func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return func() {}, apperror.Validation("File is too large")
		}
		return func() {}, apperror.Validation("Invalid multipart form")
	}
	return func() { _ = r.MultipartForm.RemoveAll() }, nil
}

// saveUpload copies the named form file into dir. A missing field returns
// (nil, nil).
func saveUpload(r *http.Request, field, dir string) (*services.LocalFile, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}
	header := r.MultipartForm.File[field][0]

	path, err := copyToTemp(header, dir)
	if err != nil {
		return nil, apperror.Internal("Error while saving upload", fmt.Errorf("save %s: %w", field, err))
	}
	return services.NewLocalFile(path, header.Filename), nil
}

func copyToTemp(header *multipart.FileHeader, dir string) (path string, err error) {
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	dst, err := os.CreateTemp(dir, "upload-*"+uploadExt(header.Filename))
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := dst.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst.Name())
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return dst.Name(), nil
}

// uploadExt keeps a short, plain extension from the client file name.
func uploadExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
