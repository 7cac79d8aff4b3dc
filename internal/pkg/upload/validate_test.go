package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSourceImage(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		size     int64
		wantErr  error
	}{
		{"JPEG accepted", "image/jpeg", 1024, nil},
		{"PNG accepted", "image/png", 1024, nil},
		{"WebP accepted", "image/webp", 1024, nil},
		{"GIF rejected", "image/gif", 1024, ErrUnsupportedType},
		{"SVG rejected", "image/svg+xml", 1024, ErrUnsupportedType},
		{"PDF rejected", "application/pdf", 1024, ErrUnsupportedType},
		{"Empty MIME rejected", "", 1024, ErrUnsupportedType},
		{"Exactly at limit accepted", "image/jpeg", MaxImageBytes, nil},
		{"One byte over limit rejected", "image/jpeg", MaxImageBytes + 1, ErrTooLarge},
		{"Zero bytes accepted", "image/png", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceImage(tt.mimeType, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSourceImage_TypeCheckedBeforeSize(t *testing.T) {
	// An oversized file of a forbidden type reports the type error.
	err := ValidateSourceImage("image/gif", MaxImageBytes+1)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
