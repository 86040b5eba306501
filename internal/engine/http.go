package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/visionpipe/visionpipe/internal/model"
)

// Default HTTPEngine settings.
const (
	// defaultTimeout is the per-request timeout. Batched requests carry
	// several encoded images, so this is generous.
	defaultTimeout = 60 * time.Second

	// defaultMaxBodySize limits the response body size to prevent memory
	// exhaustion from a misbehaving server.
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// ErrEmptyBatch is returned when PredictBatch is called with no images.
var ErrEmptyBatch = errors.New("empty batch")

// HTTPEngine talks to a remote detection server over JSON.
//
// The server exposes two endpoints:
//   - POST /predict        one image, one result
//   - POST /predict/batch  n images, n results in input order
//
// Images travel base64-encoded PNG inside the JSON request body together
// with the inference Options.
//
// Design decision: We use a struct with the http.Client rather than
// passing the client on each call because:
//  1. Client configuration (transport, timeouts) should be consistent
//  2. Connection pooling works better with a shared client
//  3. Easier to test with mock transport
type HTTPEngine struct {
	// client is the HTTP client used for all requests.
	client *http.Client

	// baseURL is the engine server base URL without a trailing slash.
	baseURL string

	// opts are the inference parameters sent with every request.
	opts Options

	// maxBodySize limits the response body size.
	maxBodySize int64

	// timeout is the per-request timeout.
	timeout time.Duration
}

// HTTPEngineOption configures an HTTPEngine.
type HTTPEngineOption func(*HTTPEngine)

// WithHTTPClient sets a custom HTTP client (e.g. with a mock transport in
// tests). By default, http.DefaultClient semantics with the configured
// timeout are used.
func WithHTTPClient(client *http.Client) HTTPEngineOption {
	return func(e *HTTPEngine) {
		e.client = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) HTTPEngineOption {
	return func(e *HTTPEngine) {
		e.timeout = timeout
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) HTTPEngineOption {
	return func(e *HTTPEngine) {
		if size > 0 {
			e.maxBodySize = size
		}
	}
}

// NewHTTPEngine creates an engine client for the server at baseURL.
// The inference options are sent with every request.
func NewHTTPEngine(baseURL string, opts Options, engineOpts ...HTTPEngineOption) *HTTPEngine {
	e := &HTTPEngine{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		opts:        opts,
		maxBodySize: defaultMaxBodySize,
		timeout:     defaultTimeout,
	}

	for _, opt := range engineOpts {
		opt(e)
	}

	if e.client == nil {
		e.client = &http.Client{Timeout: e.timeout}
	}

	return e
}

// predictRequest is the JSON request body for both endpoints.
type predictRequest struct {
	// Images are base64-encoded PNG payloads, one per frame.
	Images []string `json:"images"`

	// Options are the inference parameters.
	Options Options `json:"options"`
}

// predictResponse is the JSON response body for both endpoints.
type predictResponse struct {
	// Results holds one result per submitted image, in input order.
	Results []*model.Result `json:"results"`
}

// PredictSingle runs inference on one image.
func (e *HTTPEngine) PredictSingle(ctx context.Context, img image.Image) (*model.Result, error) {
	results, err := e.post(ctx, e.baseURL+"/predict", []image.Image{img})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("engine returned %d results for one image", len(results))
	}
	if results[0] == nil {
		return nil, errors.New("engine returned null result")
	}
	return results[0], nil
}

// PredictBatch runs inference on a batch of images. The returned slice has
// one result per image, in input order. Any transport, status, or shape
// problem is a batch-level error.
func (e *HTTPEngine) PredictBatch(ctx context.Context, images []image.Image) ([]*model.Result, error) {
	if len(images) == 0 {
		return nil, ErrEmptyBatch
	}

	results, err := e.post(ctx, e.baseURL+"/predict/batch", images)
	if err != nil {
		return nil, err
	}
	if len(results) != len(images) {
		return nil, fmt.Errorf("engine returned %d results for %d images", len(results), len(images))
	}
	for i, r := range results {
		if r == nil {
			return nil, fmt.Errorf("engine returned null result at index %d", i)
		}
	}
	return results, nil
}

// post encodes the images, performs the request, and decodes the results.
func (e *HTTPEngine) post(ctx context.Context, url string, images []image.Image) ([]*model.Result, error) {
	encoded := make([]string, 0, len(images))
	for i, img := range images {
		payload, err := encodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("failed to encode image %d: %w", i, err)
		}
		encoded = append(encoded, payload)
	}

	body, err := json.Marshal(predictRequest{Images: encoded, Options: e.opts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Response body cleanup

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("engine returned status %d", resp.StatusCode)
	}

	// Bound the body read; a body at exactly the limit is suspicious and
	// treated as truncated.
	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read engine response: %w", err)
	}
	if int64(len(data)) >= e.maxBodySize {
		return nil, fmt.Errorf("engine response exceeds %d bytes", e.maxBodySize)
	}

	var pr predictResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return nil, fmt.Errorf("failed to decode engine response: %w", err)
	}

	return pr.Results, nil
}

// encodePNG renders an image as a base64 PNG payload.
func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
