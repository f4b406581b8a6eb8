// Package client is a typed HTTP client for the studio desk API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// SessionIDHeader mirrors the server's template session header.
const SessionIDHeader = "X-Session-ID"

// Config represents client configuration.
type Config struct {
	BaseURL    string
	Token      string
	SessionID  string
	UserAgent  string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	Debug      bool
}

// Client talks to the dashboard API. It remembers the template session id
// the server assigns so successive calls share one catalog.
type Client struct {
	httpClient *resty.Client
	baseURL    string

	mu        sync.RWMutex
	sessionID string
}

// New creates a client. A zero RetryCount disables retries.
func New(cfg Config) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "deskctl/1.0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryWait == 0 {
		cfg.RetryWait = 200 * time.Millisecond
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetError(&errorEnvelope{})
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}
	if cfg.Debug {
		httpClient.SetDebug(true)
	}

	c := &Client{httpClient: httpClient, baseURL: cfg.BaseURL, sessionID: cfg.SessionID}

	httpClient.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return resp != nil && resp.StatusCode() == http.StatusServiceUnavailable
	})
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if id := c.SessionID(); id != "" {
			req.SetHeader(SessionIDHeader, id)
		}
		return nil
	})
	httpClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if id := resp.Header().Get(SessionIDHeader); id != "" {
			c.mu.Lock()
			c.sessionID = id
			c.mu.Unlock()
		}
		return nil
	})

	return c
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.httpClient.SetAuthToken(token)
}

// SessionID returns the template session in use, empty before the first
// session scoped call.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// call executes req and unwraps the data envelope into T.
func call[T any](ctx context.Context, c *Client, method, path string, configure func(*resty.Request)) (T, error) {
	var zero T
	result := &envelope[T]{}
	req := c.httpClient.R().SetContext(ctx).SetResult(result)
	if configure != nil {
		configure(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return zero, &NetworkError{Operation: method, URL: c.baseURL + path, Err: err}
	}
	if resp.IsError() {
		return zero, apiErrorFrom(resp)
	}
	return result.Data, nil
}

// send executes a request whose success response carries no body.
func (c *Client) send(ctx context.Context, method, path string) error {
	resp, err := c.httpClient.R().SetContext(ctx).Execute(method, path)
	if err != nil {
		return &NetworkError{Operation: method, URL: c.baseURL + path, Err: err}
	}
	if resp.IsError() {
		return apiErrorFrom(resp)
	}
	return nil
}

// raw executes a GET whose body is not an envelope.
func (c *Client) raw(ctx context.Context, path string, configure func(*resty.Request)) (*resty.Response, error) {
	req := c.httpClient.R().SetContext(ctx)
	if configure != nil {
		configure(req)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, &NetworkError{Operation: http.MethodGet, URL: c.baseURL + path, Err: err}
	}
	if resp.IsError() {
		return nil, apiErrorFrom(resp)
	}
	return resp, nil
}

// Ping checks the liveness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := call[map[string]any](ctx, c, http.MethodGet, "/health/live", nil)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
