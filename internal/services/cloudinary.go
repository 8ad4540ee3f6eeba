package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const defaultResourceType = "image"

// CloudinaryStore is the default BlobStore.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryStore{cld: cld}, nil
}

// Upload sends a local file. The returned Ref is "<resource_type>:<public_id>"
// because Destroy needs both.
func (s *CloudinaryStore) Upload(ctx context.Context, localPath, folder string) (*Asset, error) {
	res, err := s.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto", // Automatically detect image, video, or raw
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	// API failures come back in the result, not as err.
	if res.Error.Message != "" {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %s", res.Error.Message)
	}

	return &Asset{
		URL: res.SecureURL,
		Ref: cloudinaryRef(res.ResourceType, res.PublicID),
	}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	resourceType, publicID := parseCloudinaryRef(ref)
	if publicID == "" {
		return errors.New("empty cloudinary public id")
	}

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to delete from Cloudinary: %s", res.Error.Message)
	}

	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("failed to delete from Cloudinary: result %q", res.Result)
	}
}

func cloudinaryRef(resourceType, publicID string) string {
	if resourceType == "" {
		resourceType = defaultResourceType
	}
	return resourceType + ":" + publicID
}

func parseCloudinaryRef(ref string) (resourceType, publicID string) {
	kind, id, ok := strings.Cut(ref, ":")
	if !ok {
		return defaultResourceType, ref
	}
	return kind, id
}
