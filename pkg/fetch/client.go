// Package fetch downloads CIF dictionaries over HTTP. It carries the
// catalog of official COMCIFS dictionaries and a small client with timeout
// and user-agent control; the dictionary manager uses it to load remote
// dictionaries without owning any network code itself.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds a single dictionary download.
const DefaultTimeout = 30 * time.Second

const defaultUserAgent = "go-cifmodel/1.0"

// Client fetches dictionary content over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option mutates a Client during construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient builds a Client with the default timeout applied.
func NewClient(options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Fetch downloads rawURL and returns the body. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch: get %s: unexpected status %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", rawURL, err)
	}
	return body, nil
}

// Download fetches rawURL into destDir and returns the final path. The file
// is written to a temp name first and renamed into place so a failed
// download never leaves a truncated dictionary behind. The filename comes
// from the URL path, falling back to downloaded_dictionary.dic.
func (c *Client) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	body, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	name := "downloaded_dictionary.dic"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			name = base
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("fetch: create %s: %w", destDir, err)
	}

	tmp, err := os.CreateTemp(destDir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("fetch: temp file in %s: %w", destDir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("fetch: write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("fetch: close %s: %w", tmpPath, err)
	}

	dest := filepath.Join(destDir, name)
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("fetch: rename to %s: %w", dest, err)
	}
	return dest, nil
}
