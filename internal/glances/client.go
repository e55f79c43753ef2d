package glances

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jamesprial/oled-status/internal/config"
)

const defaultTimeout = 2 * time.Second

// maxBodyBytes caps a single response body.
const maxBodyBytes = 4 << 20

// HTTPClient is a concrete implementation of the Client interface that sends
// GET requests over HTTP using the standard library net/http package.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPClient constructs an HTTPClient from the provided GlancesConfig.
// It returns an error if cfg.URL is empty. When cfg.Timeout is zero, a
// default timeout of 2 seconds is used so a stalled endpoint can never stall
// the caller indefinitely.
func NewHTTPClient(cfg config.GlancesConfig) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("glances: URL is required")
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    normalizeURL(cfg.URL),
	}, nil
}

// normalizeURL trims any trailing slashes from rawURL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}

// Get requests {baseURL}/{endpoint} and returns the response body.
//
// Get returns an error if:
//   - the HTTP request cannot be created or sent
//   - the server responds with a non-2xx status code
//   - the response body cannot be read
func (c *HTTPClient) Get(ctx context.Context, endpoint string) ([]byte, error) {
	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("glances: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("glances: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("glances: unexpected HTTP status %d for %s", resp.StatusCode, endpoint)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("glances: read body: %w", err)
	}
	return body, nil
}
