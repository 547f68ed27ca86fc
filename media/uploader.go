// Package media uploads product and logo images to Cloudinary so stores can
// reference hosted URLs instead of pasting external links.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrDisabled is returned when no Cloudinary credentials are configured.
var ErrDisabled = errors.New("media uploads are not configured")

// Uploader stores images and returns their public URLs.
type Uploader interface {
	// Upload stores the image read from r and returns its hosted URL.
	Upload(ctx context.Context, r io.Reader) (string, error)
	// Enabled reports whether uploads are available.
	Enabled() bool
}

// CloudinaryUploader uploads images to a Cloudinary account.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
	folder string
	logger *slog.Logger
}

// CloudinaryOption configures a CloudinaryUploader.
type CloudinaryOption func(*CloudinaryUploader)

// WithLogger sets the logger for the uploader.
func WithLogger(logger *slog.Logger) CloudinaryOption {
	return func(u *CloudinaryUploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewCloudinaryUploader creates an uploader from a cloudinary:// URL. When
// url is empty the CLOUDINARY_URL environment variable is consulted; if
// neither is set the uploader is disabled rather than failing, so the rest
// of the server keeps working without media support.
func NewCloudinaryUploader(url, folder string, opts ...CloudinaryOption) (*CloudinaryUploader, error) {
	u := &CloudinaryUploader{
		folder: folder,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}

	if url == "" {
		url = os.Getenv("CLOUDINARY_URL")
	}
	if url == "" {
		u.logger.Info("Media uploads disabled, no Cloudinary credentials")
		return u, nil
	}

	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	u.client = cld
	return u, nil
}

// Enabled reports whether the uploader has credentials.
func (u *CloudinaryUploader) Enabled() bool {
	return u.client != nil
}

// Upload stores the image and returns its secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	if u.client == nil {
		return "", ErrDisabled
	}

	result, err := u.client.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder: u.folder,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}

	u.logger.Debug("Uploaded image",
		slog.String("public_id", result.PublicID),
		slog.String("url", result.SecureURL))
	return result.SecureURL, nil
}
