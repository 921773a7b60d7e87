// Package clients holds the shared HTTP plumbing for outbound integrations.
package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BaseClient wraps an http.Client with a base URL and default headers.
type BaseClient struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

func NewBaseClient(baseURL string) *BaseClient {
	return &BaseClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		headers: make(map[string]string),
	}
}

// SetHeader adds a header sent on every request, e.g. authorization.
func (c *BaseClient) SetHeader(key, value string) {
	c.headers[key] = value
}

// Get issues a GET against the base URL and returns the body of a 2xx
// response.
func (c *BaseClient) Get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, endpoint, body)
	}
	return body, nil
}
