package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/cmaclient/internal/version"
)

// Client is the net/http implementation of Doer. It is safe for concurrent
// use and is shared read-only by every wrapped entity.
type Client struct {
	config    *Config
	client    *http.Client
	logger    hclog.Logger
	userAgent string
}

var _ Doer = (*Client)(nil)

// New creates a new API transport.
func New(cfg *Config) (*Client, error) {
	cfg.applyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "cmaclient/" + version.Version
	}

	return &Client{
		config:    cfg,
		client:    cfg.NewHTTPClient(),
		logger:    cfg.Logger.Named("transport"),
		userAgent: userAgent,
	}, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Do executes req. Reads are retried with exponential backoff on network
// errors, 429 and 5xx responses; writes are sent exactly once.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	endpoint, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: req.Path, Err: err}
	}

	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, &RequestError{
				Method: req.Method,
				URL:    endpoint,
				Err:    fmt.Errorf("failed to marshal request body: %w", err),
			}
		}
	}

	requestID := uuid.NewString()

	if !req.idempotent() || c.config.MaxRetries == 0 {
		return c.roundTrip(ctx, req, endpoint, payload, requestID)
	}

	var resp *Response
	operation := func() error {
		r, err := c.roundTrip(ctx, req, endpoint, payload, requestID)
		if err != nil {
			if ctx.Err() == nil && retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.RetryDelay
	b.MaxElapsedTime = 0 // bounded by MaxRetries

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying request",
			"method", req.Method,
			"url", endpoint,
			"request_id", requestID,
			"wait", wait,
			"error", err,
		)
	}

	err = backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.config.MaxRetries)), ctx),
		notify,
	)
	if err != nil {
		var statusErr *StatusError
		var reqErr *RequestError
		if errors.As(err, &statusErr) || errors.As(err, &reqErr) {
			return nil, err
		}
		// backoff reports the context error on its own once ctx is done.
		return nil, &RequestError{Method: req.Method, URL: endpoint, Err: err}
	}

	return resp, nil
}

// roundTrip performs a single HTTP exchange.
func (c *Client) roundTrip(ctx context.Context, req *Request, endpoint string, payload []byte, requestID string) (*Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, bodyReader)
	if err != nil {
		return nil, &RequestError{
			Method: req.Method,
			URL:    endpoint,
			Err:    fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", ContentType)
	}

	c.logger.Debug("sending request",
		"method", req.Method,
		"url", endpoint,
		"request_id", requestID,
	)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	// Read response body
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{
			Method: req.Method,
			URL:    endpoint,
			Err:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	out := &Response{
		Status:     resp.StatusCode,
		StatusText: StatusText(resp.Status, resp.StatusCode),
		Header:     resp.Header,
		Body:       respBody,
		URL:        endpoint,
	}

	c.logger.Debug("received response",
		"method", req.Method,
		"url", endpoint,
		"request_id", requestID,
		"status", out.Status,
	)

	if out.Status < 200 || out.Status >= 300 {
		return nil, NewStatusError(req.Method, endpoint, httpReq.Header, out)
	}

	return out, nil
}

// buildURL constructs a URL with query parameters.
func (c *Client) buildURL(path string, params url.Values) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.config.BaseURL, "/") + path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}

	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// retryable reports whether a failed read may be attempted again.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == http.StatusTooManyRequests || statusErr.Status >= 500
	}
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}
