package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wizerunkowo/wizerunkowo/internal/pkg/env"
)

const (
	DefaultBaseURL = "https://api.replicate.com/v1"

	// ModelVersion is the image-to-image model used for all styles.
	ModelVersion = "google/nano-banana:latest"
)

// Prediction statuses as reported by the provider.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Prediction is the provider-side job state.
type Prediction struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// PredictionInput is the model input for a create call.
type PredictionInput struct {
	Image       string `json:"image"` // data URL or base64 payload
	Prompt      string `json:"prompt"`
	Quality     string `json:"quality,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

type createRequest struct {
	Version string          `json:"version"`
	Input   PredictionInput `json:"input"`
}

// ProviderError is returned for any non-2xx provider response. Body carries
// the provider's error text verbatim; the API token is never part of it.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("replicate: status %d: %s", e.StatusCode, e.Body)
}

// Client is a thin HTTP client for the Replicate predictions API. It is
// constructed explicitly and injected wherever needed; there is no
// package-level instance.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a client for the given API token. A nil httpClient
// falls back to a default with a 30s request timeout.
func NewClient(apiToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    DefaultBaseURL,
		apiToken:   apiToken,
		httpClient: httpClient,
	}
}

// NewClientFromEnv builds a client from the REPLICATE_API_KEY variable.
func NewClientFromEnv() (*Client, error) {
	token := env.GetEnv("REPLICATE_API_KEY", "")
	if token == "" {
		return nil, fmt.Errorf("REPLICATE_API_KEY is not configured")
	}
	return NewClient(token, nil), nil
}

// WithBaseURL overrides the API base URL (used by tests).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// CreatePrediction submits a new prediction job and returns its provider
// state. The returned prediction carries the opaque job ID used for polling.
func (c *Client) CreatePrediction(ctx context.Context, input PredictionInput) (*Prediction, error) {
	if input.Quality == "" {
		input.Quality = "high"
	}
	if input.AspectRatio == "" {
		input.AspectRatio = "1:1"
	}

	body, err := json.Marshal(createRequest{Version: ModelVersion, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	return c.do(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
}

// GetPrediction fetches the current state of a prediction job.
func (c *Client) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	return c.do(ctx, http.MethodGet, c.baseURL+"/predictions/"+id, nil)
}

// CancelPrediction asks the provider to cancel a running job.
func (c *Client) CancelPrediction(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, c.baseURL+"/predictions/"+id+"/cancel", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read replicate response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var prediction Prediction
	if err := json.Unmarshal(respBody, &prediction); err != nil {
		return nil, fmt.Errorf("failed to parse replicate response: %w", err)
	}
	return &prediction, nil
}
