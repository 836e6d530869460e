package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ContentType is sent with every request body.
const ContentType = "application/vnd.contentful.management.v1+json"

// Request describes a single API call. Path is relative to the configured
// base URL; Body is JSON-encoded when non-nil.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// idempotent reports whether the request may be retried safely.
func (r *Request) idempotent() bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

// Response is a fully read 2xx API response.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
	URL        string
}

// Decode unmarshals the response body into v, keeping numbers as json.Number.
func (r *Response) Decode(v any) error {
	return DecodeJSON(r.Body, v)
}

// Doer issues API requests. Implementations must return *StatusError for
// non-2xx responses and *RequestError when no response was received.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// DoerFunc adapts a function to the Doer interface.
type DoerFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req).
func (f DoerFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// DecodeJSON decodes data into v with UseNumber so integer values round-trip
// without float conversion.
func DecodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError is returned for every non-2xx response.
type StatusError struct {
	Method        string
	URL           string
	RequestHeader http.Header
	Status        int
	StatusText    string
	Header        http.Header
	Body          []byte
}

// NewStatusError builds a StatusError for resp. The Authorization header of
// the recorded request headers is redacted.
func NewStatusError(method, url string, reqHeader http.Header, resp *Response) *StatusError {
	return &StatusError{
		Method:        method,
		URL:           url,
		RequestHeader: RedactHeader(reqHeader),
		Status:        resp.Status,
		StatusText:    resp.StatusText,
		Header:        resp.Header,
		Body:          resp.Body,
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.StatusText)
}

// RequestError is returned when the request could not be completed, e.g. on
// connection failures, timeouts or cancellation.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed because a deadline was exceeded.
func (e *RequestError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// StatusText returns the reason phrase of an HTTP status line such as
// "409 Conflict", falling back to the standard text for code.
func StatusText(status string, code int) string {
	text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	if text == "" {
		return http.StatusText(code)
	}
	return text
}

// RedactHeader returns a copy of h with the bearer token masked down to its
// last five characters.
func RedactHeader(h http.Header) http.Header {
	out := h.Clone()
	if out == nil {
		return http.Header{}
	}
	if auth := out.Get("Authorization"); auth != "" {
		token := strings.TrimPrefix(auth, "Bearer ")
		if len(token) > 5 {
			token = token[len(token)-5:]
		} else {
			token = ""
		}
		out.Set("Authorization", "Bearer ..."+token)
	}
	return out
}
