package entity

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/cmaclient/pkg/apierror"
	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

// DefaultVersionHeader carries the expected version on writes.
const DefaultVersionHeader = "X-Contentful-Version"

// Option configures a Wrapper.
type Option func(*options)

type options struct {
	versionHeader string
	logger        hclog.Logger
	params        Params
}

// WithVersionHeader overrides the version header name.
func WithVersionHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.versionHeader = name
		}
	}
}

// WithLogger sets the logger used by entity actions.
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithParams supplies path parameters for placeholders that the entity's
// own sys links do not fill, e.g. organization_id for org-scoped kinds.
func WithParams(params Params) Option {
	return func(o *options) {
		o.params = make(Params, len(params))
		for k, v := range params {
			o.params[k] = v
		}
	}
}

// Wrapper turns raw API data of one kind into entities bound to a transport.
// A Wrapper is immutable and safe for concurrent use.
type Wrapper struct {
	doer    transport.Doer
	kind    Kind
	actions map[Action]ActionFunc
}

// NewWrapper returns a wrapper for kind that sends actions through doer.
func NewWrapper(doer transport.Doer, kind Kind, opts ...Option) (*Wrapper, error) {
	if doer == nil {
		return nil, fmt.Errorf("wrapper for %q requires a transport", kind.Name)
	}
	if err := kind.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kind %q: %w", kind.Name, err)
	}

	o := options{
		versionHeader: DefaultVersionHeader,
		logger:        hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	w := &Wrapper{doer: doer, kind: kind}
	w.actions = NewActions(ActionConfig{
		Doer:          doer,
		Kind:          kind,
		VersionHeader: o.versionHeader,
		Params:        o.params,
		Rewrap:        w.Wrap,
		Logger:        o.logger.Named("entity"),
	})
	return w, nil
}

// Kind returns the wrapped kind.
func (w *Wrapper) Kind() Kind {
	return w.kind
}

// Wrap deep-copies raw into a new entity. raw must carry sys.type and sys.id;
// nothing else is checked. raw is never retained or modified.
func (w *Wrapper) Wrap(raw map[string]any) (*Entity, error) {
	if err := checkSys(raw); err != nil {
		return nil, err
	}
	fields, err := copyMap(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to copy %s: %w", w.kind.Name, err)
	}
	sys := fields["sys"].(map[string]any)
	delete(fields, "sys")

	return &Entity{
		sys:     Sys{fields: sys},
		Fields:  fields,
		kind:    w.kind,
		actions: w.actions,
	}, nil
}

// WrapJSON decodes data and wraps it.
func (w *Wrapper) WrapJSON(data []byte) (*Entity, error) {
	var raw map[string]any
	if err := transport.DecodeJSON(data, &raw); err != nil {
		return nil, err
	}
	return w.Wrap(raw)
}

// WrapCollection wraps a list response. Every item is checked and all
// malformed items are reported together.
func (w *Wrapper) WrapCollection(raw map[string]any) (*Collection, error) {
	rawItems, ok := raw["items"].([]any)
	if !ok {
		if _, present := raw["items"]; present {
			return nil, &apierror.MalformedEntityError{Missing: []string{"items"}, Err: fmt.Errorf("items is not a list")}
		}
		return nil, &apierror.MalformedEntityError{Missing: []string{"items"}}
	}

	c := &Collection{Items: make([]*Entity, 0, len(rawItems))}
	var result *multierror.Error
	for i, item := range rawItems {
		m, ok := item.(map[string]any)
		if !ok {
			result = multierror.Append(result, fmt.Errorf("items[%d]: %w", i,
				&apierror.MalformedEntityError{Missing: []string{"sys"}}))
			continue
		}
		e, err := w.Wrap(m)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("items[%d]: %w", i, err))
			continue
		}
		c.Items = append(c.Items, e)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	meta := make(map[string]any, len(raw))
	for k, v := range raw {
		if k != "items" && k != "sys" {
			meta[k] = v
		}
	}
	meta, err := copyMap(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to copy collection: %w", err)
	}
	c.meta = meta

	if sys, ok := raw["sys"].(map[string]any); ok {
		sysCopy, err := copyMap(sys)
		if err != nil {
			return nil, fmt.Errorf("failed to copy collection: %w", err)
		}
		c.sys = Sys{fields: sysCopy}
	}
	return c, nil
}

// WrapCollectionJSON decodes data and wraps it as a collection.
func (w *Wrapper) WrapCollectionJSON(data []byte) (*Collection, error) {
	var raw map[string]any
	if err := transport.DecodeJSON(data, &raw); err != nil {
		return nil, err
	}
	return w.WrapCollection(raw)
}

// Wrap wraps raw as kind in one call.
func Wrap(doer transport.Doer, kind Kind, raw map[string]any, opts ...Option) (*Entity, error) {
	w, err := NewWrapper(doer, kind, opts...)
	if err != nil {
		return nil, err
	}
	return w.Wrap(raw)
}

// WrapCollection wraps a list response as kind in one call.
func WrapCollection(doer transport.Doer, kind Kind, raw map[string]any, opts ...Option) (*Collection, error) {
	w, err := NewWrapper(doer, kind, opts...)
	if err != nil {
		return nil, err
	}
	return w.WrapCollection(raw)
}

func checkSys(raw map[string]any) error {
	sys, ok := raw["sys"].(map[string]any)
	if !ok {
		return &apierror.MalformedEntityError{Missing: []string{"sys"}}
	}

	var missing []string
	var result *multierror.Error
	for _, key := range []string{"type", "id"} {
		if v, _ := sys[key].(string); v == "" {
			missing = append(missing, "sys."+key)
			result = multierror.Append(result, fmt.Errorf("sys.%s is missing or empty", key))
		}
	}
	if result != nil {
		return &apierror.MalformedEntityError{Missing: missing, Err: result}
	}
	return nil
}
