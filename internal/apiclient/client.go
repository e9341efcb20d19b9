// Package apiclient is the HTTP wrapper every backend call goes through. It
// attaches the bearer token from the session context and decodes envelopes.
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
	"strings"
	"time"

	"bookshelf/internal/util"
	"bookshelf/pkg/domain"
)

const maxResponseBytes = 8 << 20

// TokenSource yields the bearer token for outgoing requests.
type TokenSource interface {
	AccessToken() string
}

// Client calls the library backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a backend client. tokens may be nil for anonymous use.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is a raw backend answer.
type Response struct {
	Status int
	Body   []byte
}

// Do sends one request. Transport failures come back as network errors; any
// HTTP status is returned as a Response for Decode to classify.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	ctx, requestID := util.EnsureRequestID(ctx)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(util.RequestIDHeader, requestID)
	c.addAuthHeader(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api call failed", "method", method, "path", path, "request_id", requestID, "err", err)
		return nil, &domain.Error{Kind: domain.KindNetwork, Message: "cannot reach the server", Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindNetwork, Status: resp.StatusCode, Message: "connection interrupted", Err: err}
	}
	util.LogOutgoing(c.logger, method, path, resp.StatusCode, start, requestID)
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

func (c *Client) addAuthHeader(req *http.Request) {
	if c.tokens == nil {
		return
	}
	token := strings.TrimSpace(c.tokens.AccessToken())
	if token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// Call performs a request and decodes its envelope into T.
func Call[T any](ctx context.Context, c *Client, method, path string, query url.Values, payload any) Result[T] {
	resp, err := c.Do(ctx, method, path, query, payload)
	if err != nil {
		return Fail[T](asDomainError(err))
	}
	return Decode[T](resp)
}

func asDomainError(err error) *domain.Error {
	var e *domain.Error
	if errors.As(err, &e) {
		return e
	}
	return &domain.Error{Kind: domain.KindNetwork, Message: err.Error(), Err: err}
}
