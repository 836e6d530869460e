// Package transporttest provides a scripted transport.Doer for tests.
package transporttest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

// BaseURL is the fake origin used to build request URLs.
const BaseURL = "https://cma.test"

// HandlerFunc answers a single request.
type HandlerFunc func(req *transport.Request) (*transport.Response, error)

// Doer records every request and answers with its handler.
type Doer struct {
	mu       sync.Mutex
	handler  HandlerFunc
	requests []*transport.Request
}

var _ transport.Doer = (*Doer)(nil)

// New creates a Doer answering with h.
func New(h HandlerFunc) *Doer {
	return &Doer{handler: h}
}

// Do records req and returns the handler's answer. A done context fails the
// request the same way the real transport does.
func (d *Doer) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	handler := d.handler
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &transport.RequestError{Method: req.Method, URL: BaseURL + req.Path, Err: err}
	}
	return handler(req)
}

// Requests returns the recorded requests in order.
func (d *Doer) Requests() []*transport.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*transport.Request, len(d.requests))
	copy(out, d.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (d *Doer) LastRequest() *transport.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.requests) == 0 {
		return nil
	}
	return d.requests[len(d.requests)-1]
}

// Reply answers every request with status and a JSON-encoded body.
func Reply(status int, body any) HandlerFunc {
	return func(req *transport.Request) (*transport.Response, error) {
		return Respond(req, status, body)
	}
}

// Fail answers every request with err.
func Fail(err error) HandlerFunc {
	return func(req *transport.Request) (*transport.Response, error) {
		return nil, err
	}
}

// Sequence answers with each handler in turn and repeats the last one.
func Sequence(handlers ...HandlerFunc) HandlerFunc {
	var mu sync.Mutex
	i := 0
	return func(req *transport.Request) (*transport.Response, error) {
		mu.Lock()
		h := handlers[i]
		if i < len(handlers)-1 {
			i++
		}
		mu.Unlock()
		return h(req)
	}
}

// Respond applies the transport contract to a canned answer: 2xx becomes a
// Response, anything else a *transport.StatusError. body may be nil, raw
// bytes or any JSON-encodable value.
func Respond(req *transport.Request, status int, body any) (*transport.Response, error) {
	var data []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		data = b
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		data = encoded
	}

	url := BaseURL + req.Path
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}

	resp := &transport.Response{
		Status:     status,
		StatusText: http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       data,
		URL:        url,
	}
	if status < 200 || status >= 300 {
		return nil, transport.NewStatusError(req.Method, url, req.Header, resp)
	}
	return resp, nil
}
