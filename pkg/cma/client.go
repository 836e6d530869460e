package cma

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/cmaclient/pkg/apierror"
	"github.com/hashicorp-forge/cmaclient/pkg/entity"
	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

// Scope selects where kinds are read from and written to. Fields left empty
// must be supplied by the entities themselves (through their sys links).
type Scope struct {
	OrganizationID string
	SpaceID        string
	EnvironmentID  string

	// Params fills any other placeholder, e.g. team_id.
	Params entity.Params
}

func (s Scope) params() entity.Params {
	p := make(entity.Params, len(s.Params)+3)
	for k, v := range s.Params {
		p[k] = v
	}
	if s.OrganizationID != "" {
		p["organization_id"] = s.OrganizationID
	}
	if s.SpaceID != "" {
		p["space_id"] = s.SpaceID
	}
	if s.EnvironmentID != "" {
		p["environment_id"] = s.EnvironmentID
	}
	return p
}

// Client fetches and creates entities and hands them back wrapped, with their
// instance actions bound to the same transport.
type Client struct {
	doer          transport.Doer
	registry      *entity.Registry
	scope         Scope
	versionHeader string
	logger        hclog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithScope sets the default scope.
func WithScope(s Scope) Option {
	return func(c *Client) {
		c.scope = s
	}
}

// WithRegistry replaces the built-in kind registry.
func WithRegistry(r *entity.Registry) Option {
	return func(c *Client) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithVersionHeader overrides the version header sent on writes.
func WithVersionHeader(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.versionHeader = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client sending requests through doer.
func New(doer transport.Doer, opts ...Option) (*Client, error) {
	if doer == nil {
		return nil, fmt.Errorf("transport is required")
	}
	c := &Client{
		doer:          doer,
		registry:      entity.DefaultRegistry(),
		versionHeader: entity.DefaultVersionHeader,
		logger:        hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig creates a client backed by the HTTP transport.
func NewFromConfig(cfg *transport.Config, opts ...Option) (*Client, error) {
	t, err := transport.New(cfg)
	if err != nil {
		return nil, err
	}
	return New(t, opts...)
}

// WithScope returns a copy of c using scope s.
func (c *Client) WithScope(s Scope) *Client {
	clone := *c
	clone.scope = s
	return &clone
}

// Scope returns the client's scope.
func (c *Client) Scope() Scope {
	return c.scope
}

// Registry returns the kind registry.
func (c *Client) Registry() *entity.Registry {
	return c.registry
}

// Kind looks up a kind by name.
func (c *Client) Kind(name string) (entity.Kind, error) {
	k, ok := c.registry.Lookup(name)
	if !ok {
		return entity.Kind{}, fmt.Errorf("unknown kind %q", name)
	}
	return k, nil
}

// Wrapper returns a wrapper for kind bound to the client's transport and
// scope.
func (c *Client) Wrapper(kind entity.Kind) (*entity.Wrapper, error) {
	return entity.NewWrapper(c.doer, kind,
		entity.WithParams(c.scope.params()),
		entity.WithVersionHeader(c.versionHeader),
		entity.WithLogger(c.logger),
	)
}

// Query narrows a List call.
type Query struct {
	Skip  int
	Limit int

	// Order is a comma separated list of sort fields, e.g. "-sys.createdAt".
	Order string

	// Filters are passed through as query parameters, e.g. "sys.id[in]".
	Filters url.Values
}

func (q Query) values() url.Values {
	v := url.Values{}
	for key, vals := range q.Filters {
		for _, val := range vals {
			v.Add(key, val)
		}
	}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	return v
}

// Get fetches one entity of kind.
func (c *Client) Get(ctx context.Context, kind entity.Kind, id string) (*entity.Entity, error) {
	w, err := c.Wrapper(kind)
	if err != nil {
		return nil, err
	}
	path, err := kind.EntityPath(c.scope.params(), id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind.Name, err)
	}

	resp, err := c.doer.Do(ctx, &transport.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, apierror.FromTransport("get", err)
	}
	return w.WrapJSON(resp.Body)
}

// List fetches one page of kind.
func (c *Client) List(ctx context.Context, kind entity.Kind, q Query) (*entity.Collection, error) {
	w, err := c.Wrapper(kind)
	if err != nil {
		return nil, err
	}
	path, err := kind.CollectionPath(c.scope.params())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Name, err)
	}

	resp, err := c.doer.Do(ctx, &transport.Request{Method: http.MethodGet, Path: path, Query: q.values()})
	if err != nil {
		return nil, apierror.FromTransport("list", err)
	}
	return w.WrapCollectionJSON(resp.Body)
}

// Create creates an entity of kind from fields. With an empty id the server
// assigns one (POST); otherwise the entity is created under id (PUT).
func (c *Client) Create(ctx context.Context, kind entity.Kind, id string, fields map[string]any) (*entity.Entity, error) {
	w, err := c.Wrapper(kind)
	if err != nil {
		return nil, err
	}

	body := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "sys" {
			body[k] = v
		}
	}

	req := &transport.Request{Method: http.MethodPost, Body: body}
	if id == "" {
		req.Path, err = kind.CollectionPath(c.scope.params())
	} else {
		req.Method = http.MethodPut
		req.Path, err = kind.EntityPath(c.scope.params(), id)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind.Name, err)
	}

	c.logger.Debug("creating entity", "kind", kind.Name, "id", id)
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, apierror.FromTransport("create", err)
	}
	return w.WrapJSON(resp.Body)
}

// GetSpaceMember fetches a space member of the scoped space.
func (c *Client) GetSpaceMember(ctx context.Context, id string) (*entity.Entity, error) {
	return c.Get(ctx, entity.SpaceMember, id)
}

// GetSpaceMembers lists the space members of the scoped space.
func (c *Client) GetSpaceMembers(ctx context.Context, q Query) (*entity.Collection, error) {
	return c.List(ctx, entity.SpaceMember, q)
}
