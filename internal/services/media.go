package services

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
)

// Asset is a stored media object. URL is what clients see; Ref is what the
// blob store needs to delete it.
type Asset struct {
	URL string
	Ref string
}

// BlobStore is the remote media storage (Cloudinary or S3).
type BlobStore interface {
	Upload(ctx context.Context, localPath, folder string) (*Asset, error)
	Delete(ctx context.Context, ref string) error
}

// LocalFile is a temporary upload on disk. Discard removes it exactly once,
// however many times it is called.
type LocalFile struct {
	Path string
	Name string

	once sync.Once
	err  error
}

func NewLocalFile(path, name string) *LocalFile {
	return &LocalFile{Path: path, Name: name}
}

func (f *LocalFile) Discard() error {
	f.once.Do(func() {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.err = err
		}
	})
	return f.err
}

// Replacement is the outcome of MediaService.Replace. Asset is always the
// value to persist; Warning is set when the previous asset could not be
// deleted. OldRemoved reports whether the previous asset is gone, in which
// case Asset is the only copy left.
type Replacement struct {
	Asset      *Asset
	Warning    error
	OldRemoved bool
}

// MediaService bounds every blob store call by timeout, so a hung provider
// surfaces as a dependency failure.
type MediaService struct {
	blobs   BlobStore
	folder  string
	timeout time.Duration
	log     *slog.Logger
}

func NewMediaService(blobs BlobStore, folder string, timeout time.Duration, log *slog.Logger) *MediaService {
	return &MediaService{blobs: blobs, folder: folder, timeout: timeout, log: log}
}

// Upload sends file to the blob store and always removes the local copy.
func (s *MediaService) Upload(ctx context.Context, file *LocalFile) (*Asset, error) {
	if file == nil {
		return nil, apperror.Validation("File is required")
	}
	defer s.discard(ctx, file)

	asset, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*Asset, error) {
		return s.blobs.Upload(ctx, file.Path, s.folder)
	})
	if err != nil {
		return nil, apperror.DependencyCode(apperror.CodeUploadFailed, "Error while uploading file", err)
	}
	if asset == nil || asset.URL == "" {
		return nil, apperror.DependencyCode(apperror.CodeUploadFailed, "Error while uploading file", errors.New("blob store returned no url"))
	}
	return asset, nil
}

// Replace uploads file first and only then deletes existingRef. A failed
// upload leaves everything untouched. A failed delete still returns the new
// asset, with ErrCleanupFailed as the warning.
func (s *MediaService) Replace(ctx context.Context, existingRef string, file *LocalFile) (*Replacement, error) {
	asset, err := s.Upload(ctx, file)
	if err != nil {
		return nil, err
	}

	out := &Replacement{Asset: asset}
	if existingRef == "" || existingRef == asset.Ref {
		return out, nil
	}

	if err := s.delete(ctx, existingRef); err != nil {
		s.log.WarnContext(ctx, "old media asset not deleted",
			slog.String("ref", existingRef), slog.String("error", err.Error()))
		out.Warning = apperror.DependencyCode(apperror.CodeCleanupFailed, "Previous file could not be deleted", err)
		return out, nil
	}
	out.OldRemoved = true
	return out, nil
}

// Remove deletes assets uploaded during a request that later failed.
func (s *MediaService) Remove(ctx context.Context, assets ...*Asset) {
	for _, a := range assets {
		if a == nil || a.Ref == "" {
			continue
		}
		if err := s.delete(ctx, a.Ref); err != nil {
			s.log.WarnContext(ctx, "rollback of uploaded asset failed",
				slog.String("ref", a.Ref), slog.String("error", err.Error()))
		}
	}
}

func (s *MediaService) delete(ctx context.Context, ref string) error {
	return runWithTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return s.blobs.Delete(ctx, ref)
	})
}

func (s *MediaService) discard(ctx context.Context, file *LocalFile) {
	if err := file.Discard(); err != nil {
		s.log.WarnContext(ctx, "temp upload not removed", slog.String("path", file.Path), slog.String("error", err.Error()))
	}
}
