package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/vidtube-backend/internal/apperror"
	"github.com/AnshRaj112/vidtube-backend/internal/logging"
)

// fakeBlobStore records calls and fails on demand.
type fakeBlobStore struct {
	mu        sync.Mutex
	uploadErr error
	deleteErr error
	uploads   []string
	deletes   []string
	n         int
}

func (b *fakeBlobStore) Upload(_ context.Context, localPath, folder string) (*Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := os.Stat(localPath); err != nil {
		return nil, err
	}
	if b.uploadErr != nil {
		return nil, b.uploadErr
	}
	b.n++
	ref := folder + "/" + filepath.Base(localPath)
	b.uploads = append(b.uploads, ref)
	return &Asset{URL: "https://cdn.example.com/" + ref, Ref: ref}, nil
}

func (b *fakeBlobStore) Delete(_ context.Context, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, ref)
	return b.deleteErr
}

func tempUpload(t *testing.T, name string) *LocalFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o600))
	return NewLocalFile(path, name)
}

func assertRemoved(t *testing.T, f *LocalFile) {
	t.Helper()
	_, err := os.Stat(f.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp file %s still exists", f.Path)
}

func TestMediaService_Upload(t *testing.T) {
	blobs := &fakeBlobStore{}
	media := NewMediaService(blobs, "vidtube", time.Second, logging.Discard())
	file := tempUpload(t, "avatar.png")

	asset, err := media.Upload(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "vidtube/avatar.png", asset.Ref)
	assertRemoved(t, file)
}

func TestMediaService_UploadFailureStillRemovesTempFile(t *testing.T) {
	blobs := &fakeBlobStore{uploadErr: errors.New("cloud down")}
	media := NewMediaService(blobs, "vidtube", time.Second, logging.Discard())
	file := tempUpload(t, "avatar.png")

	_, err := media.Upload(context.Background(), file)
	assert.ErrorIs(t, err, apperror.ErrUploadFailed)
	assertRemoved(t, file)
}

func TestMediaService_Replace(t *testing.T) {
	blobs := &fakeBlobStore{}
	media := NewMediaService(blobs, "vidtube", time.Second, logging.Discard())

	res, err := media.Replace(context.Background(), "vidtube/old.png", tempUpload(t, "new.png"))
	require.NoError(t, err)
	assert.Equal(t, "vidtube/new.png", res.Asset.Ref)
	assert.NoError(t, res.Warning)
	assert.True(t, res.OldRemoved)
	assert.Equal(t, []string{"vidtube/old.png"}, blobs.deletes)
}

func TestMediaService_ReplaceUploadFailureTouchesNothing(t *testing.T) {
	blobs := &fakeBlobStore{uploadErr: errors.New("cloud down")}
	media := NewMediaService(blobs, "vidtube", time.Second, logging.Discard())
	file := tempUpload(t, "new.png")

	res, err := media.Replace(context.Background(), "vidtube/old.png", file)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperror.ErrUploadFailed)
	assert.Empty(t, blobs.deletes)
	assertRemoved(t, file)
}

func TestMediaService_ReplaceCleanupFailureKeepsNewAsset(t *testing.T) {
	blobs := &fakeBlobStore{deleteErr: errors.New("delete refused")}
	media := NewMediaService(blobs, "vidtube", time.Second, logging.Discard())

	res, err := media.Replace(context.Background(), "vidtube/old.png", tempUpload(t, "new.png"))
	require.NoError(t, err)
	assert.Equal(t, "vidtube/new.png", res.Asset.Ref)
	assert.ErrorIs(t, res.Warning, apperror.ErrCleanupFailed)
	assert.False(t, res.OldRemoved)
}

func TestMediaService_ReplaceWithoutPreviousAsset(t *testing.T) {
	blobs := &fakeBlobStore{}
	media := NewMediaService(blobs, "vidtube", time.Second, logging.Discard())

	res, err := media.Replace(context.Background(), "", tempUpload(t, "cover.png"))
	require.NoError(t, err)
	assert.NotNil(t, res.Asset)
	assert.False(t, res.OldRemoved)
	assert.Empty(t, blobs.deletes)
}

// hangingBlobStore blocks until the caller's context ends.
type hangingBlobStore struct{}

func (hangingBlobStore) Upload(ctx context.Context, _, _ string) (*Asset, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingBlobStore) Delete(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestMediaService_HungProviderTimesOut(t *testing.T) {
	media := NewMediaService(hangingBlobStore{}, "vidtube", 20*time.Millisecond, logging.Discard())
	file := tempUpload(t, "a.png")

	start := time.Now()
	_, err := media.Upload(context.Background(), file)
	assert.ErrorIs(t, err, apperror.ErrUploadFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, apperror.As(err).Retryable())
	assert.Less(t, time.Since(start), 2*time.Second)
	assertRemoved(t, file)
}

// hangingDeleteStore uploads normally and hangs on delete.
type hangingDeleteStore struct {
	*fakeBlobStore
}

func (s hangingDeleteStore) Delete(ctx context.Context, ref string) error {
	return hangingBlobStore{}.Delete(ctx, ref)
}

func TestMediaService_HungDeleteIsAWarning(t *testing.T) {
	media := NewMediaService(hangingDeleteStore{&fakeBlobStore{}}, "vidtube", 20*time.Millisecond, logging.Discard())

	res, err := media.Replace(context.Background(), "vidtube/old.png", tempUpload(t, "new.png"))
	require.NoError(t, err)
	assert.Equal(t, "vidtube/new.png", res.Asset.Ref)
	assert.ErrorIs(t, res.Warning, apperror.ErrCleanupFailed)
	assert.ErrorIs(t, res.Warning, context.DeadlineExceeded)
	assert.False(t, res.OldRemoved)
}

func TestLocalFile_DiscardOnce(t *testing.T) {
	file := tempUpload(t, "a.png")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, file.Discard())
		}()
	}
	wg.Wait()
	assertRemoved(t, file)

	// Recreating the path after discard must not be removed by a later call.
	require.NoError(t, os.WriteFile(file.Path, []byte("x"), 0o600))
	require.NoError(t, file.Discard())
	_, err := os.Stat(file.Path)
	assert.NoError(t, err)
}

func TestMediaService_Remove(t *testing.T) {
	blobs := &fakeBlobStore{deleteErr: errors.New("nope")}
	media := NewMediaService(blobs, "vidtube", time.Second, logging.Discard())

	media.Remove(context.Background(), &Asset{Ref: "a"}, nil, &Asset{}, &Asset{Ref: "b"})
	assert.Equal(t, []string{"a", "b"}, blobs.deletes)
}
