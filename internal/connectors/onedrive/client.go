package onedrive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/logger"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// DefaultTimeout bounds each request.
	DefaultTimeout = 60 * time.Second

	// maxErrorBody caps how much of an error response is kept for diagnostics.
	maxErrorBody = 512
)

// Client performs authenticated Graph requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     driven.TokenProvider
	limiter    *RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Graph endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(base, "/")
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimiter replaces the default limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a Graph client.
func NewClient(tokens driven.TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		limiter:    NewRateLimiter(RequestsPerSecond, BurstSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// response is a fully read Graph response.
type response struct {
	status int
	header http.Header
	body   []byte
}

// ok reports a 200 or 201.
func (r *response) ok() bool {
	return r.status == http.StatusOK || r.status == http.StatusCreated
}

// request describes a Graph call. url may be absolute, as with
// @odata.nextLink, or relative to the base URL.
type request struct {
	method      string
	url         string
	body        []byte
	contentType string
}

// do sends the request, replaying it once with a fresh token after a 401.
// Non-2xx responses are returned without error so callers can branch on
// the status.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusUnauthorized {
		return resp, nil
	}

	logger.Debug("onedrive: 401 on %s %s, refreshing token", req.method, req.url)
	c.tokens.Invalidate()
	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, req request) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	var body io.Reader = http.NoBody
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.resolve(req.url), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrSourceUnavailable, req.method, req.url, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrSourceUnavailable, err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		c.limiter.Throttled(httpResp)
	}

	return &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}, nil
}

func (c *Client) resolve(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return c.baseURL + u
}

// mapStatus converts a non-success Graph response into a domain error.
func mapStatus(resp *response) error {
	detail := strings.TrimSpace(string(resp.body))
	if len(detail) > maxErrorBody {
		detail = detail[:maxErrorBody]
	}

	switch resp.status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: onedrive: token rejected after refresh", domain.ErrAuthExpired)
	case http.StatusForbidden:
		return fmt.Errorf("%w: onedrive: forbidden: %s", domain.ErrSourceUnavailable, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: onedrive: %s", domain.ErrNotFound, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: onedrive: %s", domain.ErrRateLimited, detail)
	default:
		return fmt.Errorf("%w: onedrive: unexpected status %d: %s", domain.ErrSourceUnavailable, resp.status, detail)
	}
}

// escapePath escapes each segment of a slash-separated drive path.
func escapePath(p string) string {
	parts := splitPath(p)
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// splitPath returns the non-empty segments of a drive path.
func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// itemURL addresses a drive item by path. The empty path is the root.
func itemURL(p string) string {
	if len(splitPath(p)) == 0 {
		return "/me/drive/root"
	}
	return "/me/drive/root:/" + escapePath(p)
}

// childrenURL addresses the children collection of a folder path.
func childrenURL(p string) string {
	if len(splitPath(p)) == 0 {
		return "/me/drive/root/children"
	}
	return itemURL(p) + ":/children"
}
