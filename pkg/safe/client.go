package safe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to a Safe Transaction Service instance
type Client struct {
	serviceURL string
	httpClient *http.Client
	debug      bool
}

// NewClient creates a client for the transaction service of chainID
func NewClient(chainID uint64) (*Client, error) {
	serviceURL, ok := TransactionServiceURLs[chainID]
	if !ok {
		return nil, fmt.Errorf("unsupported chain ID: %d", chainID)
	}
	return NewClientWithURL(serviceURL, nil), nil
}

// NewClientWithURL creates a client for a self-hosted or custom service
func NewClientWithURL(serviceURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &Client{
		serviceURL: strings.TrimSuffix(serviceURL, "/"),
		httpClient: httpClient,
	}
}

// SetDebug enables request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// ServiceURL returns the base URL requests are sent to
func (c *Client) ServiceURL() string {
	return c.serviceURL
}

// APIError is returned for non-2xx responses
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether the service answered 404
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	url := c.serviceURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.debug {
		slog.Debug("safe service request", "method", method, "url", url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
