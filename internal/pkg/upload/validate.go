package upload

import (
	"errors"
	"fmt"
)

// MaxImageBytes is the hard ceiling for a source selfie (10 MB).
const MaxImageBytes = 10 * 1024 * 1024

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	// Note: GIF/SVG intentionally excluded; the prediction provider only
	// accepts still photo formats.
}

var (
	ErrUnsupportedType = errors.New("Unsupported file type. Allowed formats: JPG, PNG, WebP")
	ErrTooLarge        = fmt.Errorf("File is too large. Maximum size: %d MB", MaxImageBytes/(1024*1024))
)

// ValidateSourceImage checks the declared MIME type and byte size of a
// candidate source image against the whitelist. No content inspection is
// performed; decodability is the provider's problem.
func ValidateSourceImage(mimeType string, size int64) error {
	if !allowedMime[mimeType] {
		return ErrUnsupportedType
	}
	if size > MaxImageBytes {
		return ErrTooLarge
	}
	return nil
}
