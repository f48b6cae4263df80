package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ClientOption configures the HTTP-based clients.
type ClientOption func(*transport)

// WithBaseURL points the client at a different API host, such as a proxy or
// a test server.
func WithBaseURL(url string) ClientOption { return func(t *transport) { t.baseURL = url } }

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption { return func(t *transport) { t.httpClient = c } }

// WithRetryDelay sets the delay before the first retry. It doubles on each
// further attempt.
func WithRetryDelay(d time.Duration) ClientOption { return func(t *transport) { t.retryDelay = d } }

// transport posts JSON to a provider API, retrying network failures and 5xx
// responses. 4xx responses are returned immediately.
type transport struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
	headers    map[string]string
}

func newTransport(provider, baseURL string, headers map[string]string, opts []ClientOption) transport {
	t := transport{
		provider:   provider,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryDelay: initialRetryDelay,
		headers:    headers,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func (t *transport) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	var lastErr error
	delay := t.retryDelay

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s request cancelled: %w (last error: %v)", t.provider, ctx.Err(), lastErr)
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create http request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", i+1, maxRetries, err)
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}
		lastErr = fmt.Errorf("%s API error (attempt %d/%d): status %d, body: %s", t.provider, i+1, maxRetries, resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, lastErr
}
