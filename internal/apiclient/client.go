// Package apiclient talks to the remote flower REST API.
//
// Public calls take no credentials. Protected calls take the caller's
// session explicitly and send "Authorization: token <value>".
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/metrics"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

type request struct {
	method string
	// endpoint is the path template used as metrics label, e.g. "/flower/flower_detail/{id}/".
	endpoint string
	path     string
	query    url.Values
	session  *session.Session
	body     any
}

// at fills the {id} placeholder of endpoint.
func at(endpoint string, id int64) string {
	return strings.Replace(endpoint, "{id}", strconv.FormatInt(id, 10), 1)
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if req.session != nil && req.session.Token == "" {
		return &Error{Kind: KindAuthorization, Message: "Please log in first.", Err: session.ErrNoSession}
	}
	if req.path == "" {
		req.path = req.endpoint
	}

	u := *c.base
	u.Path = c.base.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return &Error{Kind: KindUnknown, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return &Error{Kind: KindUnknown, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.session != nil {
		httpReq.Header.Set("Authorization", "token "+req.session.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordUpstream(req.method, req.endpoint, "network", time.Since(start))
		slog.Warn("API request failed", "method", req.method, "endpoint", req.endpoint, "error", err)
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		metrics.RecordUpstream(req.method, req.endpoint, "network", time.Since(start))
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	slog.Debug("API request", "method", req.method, "endpoint", req.endpoint, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := kindForStatus(resp.StatusCode)
		metrics.RecordUpstream(req.method, req.endpoint, kind.String(), time.Since(start))
		return &Error{
			Kind:    kind,
			Status:  resp.StatusCode,
			Message: extractMessage(raw),
			Err:     fmt.Errorf("%s %s: %s", req.method, req.endpoint, resp.Status),
		}
	}
	metrics.RecordUpstream(req.method, req.endpoint, "ok", time.Since(start))

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Err: fmt.Errorf("decode %s: %w", req.endpoint, err)}
	}
	return nil
}

// Ping checks that the API answers the public catalogue endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, endpoint: "/flower/flower_all/"}, nil)
}

// IsTimeout reports whether err is a network failure caused by a deadline.
func IsTimeout(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindNetwork {
		return false
	}
	if errors.Is(apiErr.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(apiErr.Err, &netErr) && netErr.Timeout()
}
