// Package httpbus is a bus.Bus that talks to an external queue service
// over HTTP, using a fixed path shape: POST /queues/{name}/push and
// POST /queues/{name}/pop.
package httpbus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/correlator-io/correlator/internal/bus"
)

const defaultTimeout = 5 * time.Second

// Client is an HTTP-backed Bus implementation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client that issues requests against baseURL (no trailing
// slash expected, but one is tolerated).
func New(baseURL string) *Client {
	return &Client{
		baseURL:    trimTrailingSlash(baseURL),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Push POSTs env as JSON to /queues/{queue}/push. A non-2xx response is
// treated as a push failure; per the bus contract this is transient and
// callers should log-and-continue rather than retry inline.
func (c *Client) Push(ctx context.Context, queue string, env bus.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	url := fmt.Sprintf("%s/queues/%s/push", c.baseURL, queue)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push to %s: %w", queue, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push to %s: unexpected status %d", queue, resp.StatusCode)
	}

	return nil
}

// Pop POSTs to /queues/{queue}/pop. A 200 response with a body is decoded
// as the popped envelope; a 204 (or any empty body) means the queue was
// empty and ok is false.
func (c *Client) Pop(ctx context.Context, queue string) (bus.Envelope, bool, error) {
	url := fmt.Sprintf("%s/queues/%s/pop", c.baseURL, queue)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return bus.Envelope{}, false, fmt.Errorf("build pop request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return bus.Envelope{}, false, fmt.Errorf("pop from %s: %w", queue, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode == http.StatusNoContent {
		return bus.Envelope{}, false, nil
	}

	if resp.StatusCode != http.StatusOK {
		return bus.Envelope{}, false, fmt.Errorf("pop from %s: unexpected status %d", queue, resp.StatusCode)
	}

	var env bus.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return bus.Envelope{}, false, nil
		}

		return bus.Envelope{}, false, fmt.Errorf("decode popped envelope: %w", err)
	}

	return env, true, nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

func trimTrailingSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}

	return s
}
