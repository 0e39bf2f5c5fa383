package helpers

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const AvatarFolder = "talknet/avatars"

var ErrImageStoreDisabled = errors.New("image storage is not configured")

type UploadedImage struct {
	URL      string
	PublicID string
}

// ImageStore uploads and deletes profile images.
type ImageStore interface {
	Upload(ctx context.Context, filePath string) (*UploadedImage, error)
	Destroy(ctx context.Context, publicID string) error
}

type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cld *cloudinary.Cloudinary) *CloudinaryStore {
	return &CloudinaryStore{cld: cld}
}

func (s *CloudinaryStore) Upload(ctx context.Context, filePath string) (*UploadedImage, error) {
	if s.cld == nil {
		return nil, ErrImageStoreDisabled
	}
	res, err := s.cld.Upload.Upload(ctx, filePath, uploader.UploadParams{
		Folder: AvatarFolder,
		Tags:   []string{"talknet-profile"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image %s: %w", filePath, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("failed to upload image %s: %s", filePath, res.Error.Message)
	}
	return &UploadedImage{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	if s.cld == nil {
		return ErrImageStoreDisabled
	}
	if publicID == "" {
		return nil
	}
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("failed to delete image %s: %w", publicID, err)
	}
	return nil
}
