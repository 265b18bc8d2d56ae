// Package remote fetches retention-time datasets from a PredRet-style
// data service over HTTP.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is 5 requests per second, the documented limit for the
	// public PredRet service.
	RateLimit = 5.0
)

// APIError is a non-2xx response from the data service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote API error (status %d): %s", e.StatusCode, e.Message)
}

// SystemInfo describes one system available on the service.
type SystemInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SystemType    string `json:"system_type,omitempty"`
	CompoundCount int    `json:"compound_count"`
}

// Client is a rate-limited HTTP client for the data service.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    baseURL,
	}

	// Check for API key in environment
	if key := os.Getenv("PREDRET_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListSystems returns the systems available on the service.
func (c *Client) ListSystems(ctx context.Context) ([]SystemInfo, error) {
	var systems []SystemInfo
	if err := c.getJSON(ctx, "/systems", &systems); err != nil {
		return nil, err
	}
	return systems, nil
}

// FetchSystem returns the retention-time table for one system.
func (c *Client) FetchSystem(ctx context.Context, id string) ([]dataset.Measurement, error) {
	var ms []dataset.Measurement
	if err := c.getJSON(ctx, "/systems/"+id+"/rts", &ms); err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("system %s has no measurements", id)
	}
	return ms, nil
}

// getJSON performs a rate-limited GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	return nil
}
