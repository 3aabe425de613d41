package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// MaxUploadSize limits accepted image uploads.
const MaxUploadSize = 10 * 1024 * 1024 // 10MB

// ErrInvalidImage is returned for uploads that are not a decodable image
// of a supported type.
var ErrInvalidImage = errors.New("upload a valid image: the file is either not an image or a corrupted image")

// ErrImageTooLarge is returned for uploads over MaxUploadSize.
var ErrImageTooLarge = errors.New("image exceeds maximum upload size")

// extensions maps accepted content types to stored file extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload describes a stored image.
type Upload struct {
	Name        string // file name inside the storage
	RelPath     string // path relative to the media root
	ContentType string
	Width       int
	Height      int
	Size        int
	BlurHash    string // empty if it could not be computed
}

// Processor validates uploaded images and stores them under fresh names.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Storage returns the underlying storage.
func (p *Processor) Storage() *Storage {
	return p.storage
}

// Process checks that data is a supported image, stores it under a random
// name and returns its description. The content type comes from sniffing the
// bytes, never from the client.
func (p *Processor) Process(ctx context.Context, data []byte) (*Upload, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	if len(data) > MaxUploadSize {
		return nil, ErrImageTooLarge
	}

	mime := mimetype.Detect(data)
	ext, ok := extensions[mime.String()]
	if !ok {
		p.logger.Debug("rejected upload", "detected_type", mime.String(), "size", len(data))
		return nil, ErrInvalidImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		p.logger.Debug("rejected undecodable upload", "detected_type", mime.String(), "error", err)
		return nil, ErrInvalidImage
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	upload := &Upload{
		Name:        uuid.NewString() + ext,
		ContentType: mime.String(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Size:        len(data),
	}
	upload.RelPath = p.storage.RelPath(upload.Name)

	// A missing placeholder does not fail the upload.
	if hash, err := ComputeBlurHash(img); err != nil {
		p.logger.Warn("failed to compute blurhash", "name", upload.Name, "error", err)
	} else {
		upload.BlurHash = hash
	}

	if err := p.storage.Save(upload.Name, data); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	p.logger.Debug("stored image",
		"name", upload.Name,
		"type", upload.ContentType,
		"width", upload.Width,
		"height", upload.Height,
		"size", upload.Size,
	)

	return upload, nil
}

// Remove deletes a previously stored image by its media-relative path.
// Paths outside the storage are ignored.
func (p *Processor) Remove(relPath string) error {
	name := p.storage.NameFromRelPath(relPath)
	if name == "" {
		return nil
	}
	return p.storage.Delete(name)
}
