// Package cdn talks to the CDN purge API and builds the public URL an image
// is served from.
package cdn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PurgeError reports a failed purge. StatusCode is the CDN response status, or
// 502 when the CDN could not be reached.
type PurgeError struct {
	StatusCode int
	Message    string
}

func (e *PurgeError) Error() string {
	return fmt.Sprintf("cdn purge failed (%d): %s", e.StatusCode, e.Message)
}

// PublicURL is the canonical CDN address of the image stored under hash.
func PublicURL(base, hash string) string {
	return strings.TrimRight(base, "/") + "/" + hash
}

// Client calls a purge endpoint of the form POST {endpoint}?url={escaped url}
// authenticated with an AccessKey header.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient builds a Client. A zero timeout disables the client deadline and
// leaves it to the caller's context.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Purge evicts target from the CDN cache. Any non-2xx answer is a *PurgeError.
func (c *Client) Purge(ctx context.Context, target string) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return &PurgeError{StatusCode: http.StatusBadGateway, Message: fmt.Sprintf("bad purge endpoint: %v", err)}
	}
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return &PurgeError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	req.Header.Set("AccessKey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &PurgeError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &PurgeError{StatusCode: resp.StatusCode, Message: msg}
}
