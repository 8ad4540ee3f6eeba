package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	putKey      string
	putBody     string
	contentType string
	deletedKey  string
	err         error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.putKey = aws.ToString(in.Key)
	f.putBody = string(body)
	f.contentType = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletedKey = aws.ToString(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_UploadAndDelete(t *testing.T) {
	client := &fakeS3{}
	store := NewS3StoreWithClient(client, S3Config{Bucket: "media", Region: "eu-west-1"})

	path := filepath.Join(t.TempDir(), "avatar.PNG")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	asset, err := store.Upload(context.Background(), path, "/vidtube/")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.Ref, "vidtube/"), asset.Ref)
	assert.True(t, strings.HasSuffix(asset.Ref, ".png"), asset.Ref)
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/"+asset.Ref, asset.URL)
	assert.Equal(t, asset.Ref, client.putKey)
	assert.Equal(t, "png", client.putBody)
	assert.Equal(t, "image/png", client.contentType)

	require.NoError(t, store.Delete(context.Background(), asset.Ref))
	assert.Equal(t, asset.Ref, client.deletedKey)
}

func TestS3Store_PublicURLAndEndpoint(t *testing.T) {
	s := NewS3StoreWithClient(&fakeS3{}, S3Config{Bucket: "b", Region: "r", Endpoint: "http://minio:9000/"})
	assert.Equal(t, "http://minio:9000/b", s.baseURL)

	s = NewS3StoreWithClient(&fakeS3{}, S3Config{Bucket: "b", Region: "r", PublicURL: "https://cdn.vidtube.dev/"})
	assert.Equal(t, "https://cdn.vidtube.dev", s.baseURL)
}

func TestS3Store_Errors(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	store := NewS3StoreWithClient(&fakeS3{err: apiErr}, S3Config{Bucket: "b", Region: "r"})

	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := store.Upload(context.Background(), path, "f")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.True(t, errors.Is(err, apiErr))

	assert.Error(t, store.Delete(context.Background(), ""))
	assert.Error(t, store.Delete(context.Background(), "../etc/passwd"))

	_, err = store.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "f")
	assert.Error(t, err)
}

func TestCloudinaryRef(t *testing.T) {
	ref := cloudinaryRef("video", "vidtube/abc")
	assert.Equal(t, "video:vidtube/abc", ref)

	kind, id := parseCloudinaryRef(ref)
	assert.Equal(t, "video", kind)
	assert.Equal(t, "vidtube/abc", id)

	kind, id = parseCloudinaryRef("vidtube/legacy")
	assert.Equal(t, defaultResourceType, kind)
	assert.Equal(t, "vidtube/legacy", id)

	assert.Equal(t, "image:x", cloudinaryRef("", "x"))
}

func TestNewCloudinaryStore(t *testing.T) {
	store, err := NewCloudinaryStore("demo", "key", "secret")
	require.NoError(t, err)
	assert.NotNil(t, store)
}
