package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"bugsync/core/errs"
	"bugsync/core/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerAPIKey    = "X-Bugzilla-API-Key"
	headerToken     = "X-Bugzilla-Token"
	headerLogin     = "X-Bugzilla-Login"
	headerPassword  = "X-Bugzilla-Password"
	headerRequestID = "X-Request-ID"
)

// Client is the net/http implementation of Requester.
type Client struct {
	cfg     Config
	base    *url.URL
	http    *http.Client
	logger  *zap.Logger
	metrics *Metrics

	mu       sync.RWMutex
	token    string
	username string
	authed   bool
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates an unauthenticated client for the configured REST root.
// Call Login to exchange credentials, or use Connect.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	raw := strings.TrimRight(cfg.URL, "/")
	if raw == "" {
		return nil, fmt.Errorf("remote url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid remote url %q: %w", cfg.URL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid remote url %q: scheme and host are required", cfg.URL)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "bugsync"
	}

	c := &Client{
		cfg:      cfg,
		base:     base,
		logger:   zap.NewNop(),
		username: cfg.Username,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = newHTTPClient(cfg.TimeoutSeconds)
	}
	if cfg.Mode() == AuthAPIKey && cfg.Username == "" {
		// Without a login name there is nothing to validate the key against.
		c.authed = true
	}
	return c, nil
}

// Connect creates a client and logs in with whatever credentials cfg holds.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	c, err := NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Mode() == AuthNone {
		return c, nil
	}
	if err := c.Login(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newHTTPClient(timeoutSeconds int) *http.Client {
	timeout := utils.Seconds(timeoutSeconds, 30*time.Second)
	return &http.Client{Transport: utils.NewTransport(timeout), Timeout: timeout}
}

// Authenticated reports whether the tracker accepted the credentials.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authed
}

// Username returns the login name, resolved from the tracker in cookie mode.
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// Do sends req and returns the 2xx response, or an *errs.Error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.do(ctx, req, nil)
}

func (c *Client) do(ctx context.Context, req *Request, extra http.Header) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	for k, vs := range extra {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	requestID := httpReq.Header.Get(headerRequestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(req.method(), "error", elapsed)
		c.logger.Debug("request failed",
			zap.String("request_id", requestID),
			zap.String("method", req.method()),
			zap.String("path", req.Path),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", req, err)
	}

	c.metrics.observe(req.method(), strconv.Itoa(resp.StatusCode), elapsed)
	c.logger.Debug("request",
		zap.String("request_id", requestID),
		zap.String("method", req.method()),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	if err := checkResponse(req, resp.StatusCode, body); err != nil {
		return nil, err
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) newRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", req, err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set(headerRequestID, uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		httpReq.Header.Set(headerAPIKey, c.cfg.APIKey)
	}
	c.mu.RLock()
	if c.token != "" {
		httpReq.Header.Set(headerToken, c.token)
	}
	c.mu.RUnlock()
	return httpReq, nil
}

type remoteError struct {
	Error   bool   `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// checkResponse maps non-2xx answers, and 2xx answers flagged as errors, to
// *errs.Error. Bodies without an upstream message are quoted as received.
func checkResponse(req *Request, status int, body []byte) error {
	ok := status >= 200 && status < 300
	var re remoteError
	isJSON := json.Unmarshal(body, &re) == nil

	if ok && !(isJSON && re.Error) {
		return nil
	}
	e := &errs.Error{
		Kind:    kindFor(status, re.Code),
		Op:      req.String(),
		Status:  status,
		Code:    re.Code,
		Message: re.Message,
	}
	if !isJSON || e.Message == "" {
		e.Message = fmt.Sprintf("We received a %d error with the following: %s", status, strings.TrimSpace(string(body)))
	}
	return e
}

// Code 101 is the tracker's "bug does not exist".
func kindFor(status, code int) errs.Kind {
	if status == http.StatusNotFound || code == 101 {
		return errs.NotFound
	}
	return errs.RemoteError
}
