package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	// Registered decoders determine which formats Validate accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"net/http"

	"forum/internal/models"
	"forum/internal/observability"

	"github.com/google/uuid"
)

// allowedImageTypes maps sniffed MIME types to the stored file extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageService stores uploaded images on disk and serves back their URLs.
type ImageService struct {
	uploadDir string
	maxBytes  int64
	logger    *observability.StructuredLogger
}

// NewImageService returns a new ImageService writing into uploadDir.
func NewImageService(uploadDir string, maxSizeMB int) *ImageService {
	return &ImageService{
		uploadDir: uploadDir,
		maxBytes:  int64(maxSizeMB) * 1024 * 1024,
		logger:    observability.NewStructuredLogger(),
	}
}

// MaxBytes returns the configured upload size limit in bytes.
func (s *ImageService) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates and persists one uploaded image, returning its public URL
// path. The content type is sniffed from the bytes, never trusted from the
// request, and the payload must decode as an actual image.
func (s *ImageService) Save(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", models.NewValidationError("Image data is required")
	}
	if int64(len(data)) > s.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("Image exceeds maximum size of %d MB", s.maxBytes/(1024*1024)))
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", models.NewValidationError("Unsupported image type; allowed: jpeg, png, gif, webp")
	}

	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", models.NewValidationError("File is not a valid image")
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), data, 0o644); err != nil {
		return "", models.NewInternalError(err)
	}

	observability.ImageUploadsTotal.WithLabelValues(contentType).Inc()
	s.logger.LogServiceCall(ctx, "ImageService", "Save", map[string]interface{}{
		"file": name,
		"type": contentType,
		"size": len(data),
	})
	return "/uploads/" + name, nil
}
