package archive

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Thumbnail size
const (
	ThumbnailSize = 200
)

// Provider result URLs are short-lived, so downloads are bounded tightly.
var resultHTTPClient = &http.Client{Timeout: 60 * time.Second}

var (
	globalClient *Client
	clientErr    error
	clientOnce   sync.Once
)

// GetClient returns the shared archive client, initializing it on first use.
func GetClient() (*Client, error) {
	clientOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			clientErr = err
			return
		}
		if !cfg.IsEnabled() {
			clientErr = fmt.Errorf("result archiving is disabled")
			return
		}
		globalClient, clientErr = NewClient(cfg)
	})
	return globalClient, clientErr
}

// Result describes where an archived generation result ended up.
type Result struct {
	ObjectKey    string
	ThumbnailKey string
	Size         int64
}

// ArchiveResult downloads a generation result, stores it as WebP in the
// archive bucket and produces a small thumbnail next to it.
func (c *Client) ArchiveResult(generationUUID, resultURL string) (*Result, error) {
	data, err := downloadResult(resultURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download result for %s: %w", generationUUID, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode result image for %s: %w", generationUUID, err)
	}

	now := time.Now()
	objectKey := c.config.GetObjectKey(generationUUID, now.Year(), int(now.Month()))
	thumbKey := c.config.GetThumbnailKey(generationUUID, now.Year(), int(now.Month()))

	encoded, err := encodeWebP(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result for %s: %w", generationUUID, err)
	}
	upload, err := c.UploadBytes(encoded, objectKey, "image/webp")
	if err != nil {
		return nil, err
	}

	thumb := imaging.Resize(img, ThumbnailSize, 0, imaging.Lanczos)
	thumbEncoded, err := encodeWebP(thumb)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail for %s: %w", generationUUID, err)
	}
	if _, err := c.UploadBytes(thumbEncoded, thumbKey, "image/webp"); err != nil {
		return nil, err
	}

	log.Infof("[Archive] Archived result for %s (%d bytes)", generationUUID, upload.Size)
	return &Result{
		ObjectKey:    objectKey,
		ThumbnailKey: thumbKey,
		Size:         upload.Size,
	}, nil
}

// downloadResult fetches the provider-hosted result image
func downloadResult(resultURL string) ([]byte, error) {
	resp, err := resultHTTPClient.Get(resultURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching result", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// encodeWebP converts an image to lossy WebP
func encodeWebP(img image.Image) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 85)
	if err != nil {
		return nil, fmt.Errorf("error creating encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("error encoding WebP image: %w", err)
	}
	return buf.Bytes(), nil
}
