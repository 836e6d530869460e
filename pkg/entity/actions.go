package entity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/cmaclient/pkg/apierror"
	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

// ActionConfig is what the action constructors close over. It is shared
// read-only by every entity of one kind.
type ActionConfig struct {
	Doer transport.Doer
	Kind Kind

	// VersionHeader carries sys.version on writes.
	VersionHeader string

	// Params fill path placeholders not covered by the entity's sys links.
	Params Params

	// Rewrap turns a response body into an entity.
	Rewrap func(raw map[string]any) (*Entity, error)

	Logger hclog.Logger
}

// NewActions builds the action set of cfg.Kind.
func NewActions(cfg ActionConfig) map[Action]ActionFunc {
	actions := make(map[Action]ActionFunc, len(cfg.Kind.Actions))
	for _, a := range cfg.Kind.Actions {
		switch a {
		case ActionUpdate:
			actions[a] = NewUpdateAction(cfg)
		case ActionDelete:
			actions[a] = NewDeleteAction(cfg)
		case ActionPublish:
			actions[a] = NewStateAction(cfg, a, http.MethodPut, "published")
		case ActionUnpublish:
			actions[a] = NewStateAction(cfg, a, http.MethodDelete, "published")
		case ActionArchive:
			actions[a] = NewStateAction(cfg, a, http.MethodPut, "archived")
		case ActionUnarchive:
			actions[a] = NewStateAction(cfg, a, http.MethodDelete, "archived")
		}
	}
	return actions
}

// NewUpdateAction returns an action that PUTs the entity's payload, without
// sys, to its own path and wraps the response.
func NewUpdateAction(cfg ActionConfig) ActionFunc {
	return func(ctx context.Context, e *Entity) (*Entity, error) {
		body, err := e.payload()
		if err != nil {
			return nil, fmt.Errorf("update %s %s: failed to copy payload: %w", e.kind.Name, e.ID(), err)
		}
		return cfg.send(ctx, e, ActionUpdate, http.MethodPut, "", body, true)
	}
}

// NewDeleteAction returns an action that DELETEs the entity. It returns no
// entity on success.
func NewDeleteAction(cfg ActionConfig) ActionFunc {
	return func(ctx context.Context, e *Entity) (*Entity, error) {
		_, err := cfg.send(ctx, e, ActionDelete, http.MethodDelete, "", nil, false)
		return nil, err
	}
}

// NewStateAction returns an action that toggles a state sub-resource, e.g.
// PUT .../published, and wraps the response.
func NewStateAction(cfg ActionConfig, action Action, method, state string) ActionFunc {
	return func(ctx context.Context, e *Entity) (*Entity, error) {
		return cfg.send(ctx, e, action, method, state, nil, true)
	}
}

func (cfg ActionConfig) send(ctx context.Context, e *Entity, action Action, method, state string, body any, rewrap bool) (*Entity, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	id := e.ID()

	path, err := cfg.Kind.EntityPath(mergeParams(cfg.Params, e.sys.params()), id)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", action, cfg.Kind.Name, id, err)
	}
	if state != "" {
		path += "/" + state
	}

	header := http.Header{}
	version, hasVersion := e.sys.intValue("version")
	if hasVersion {
		header.Set(cfg.versionHeader(), strconv.Itoa(version))
	}

	logger.Debug("sending entity action",
		"action", action,
		"kind", cfg.Kind.Name,
		"id", id,
		"version", version,
	)

	resp, err := cfg.Doer.Do(ctx, &transport.Request{
		Method: method,
		Path:   path,
		Header: header,
		Body:   body,
	})
	if err != nil {
		err = classify(action, e, version, err)
		logger.Debug("entity action failed", "action", action, "id", id, "error", err)
		return nil, err
	}
	if !rewrap {
		return nil, nil
	}

	var raw map[string]any
	if err := resp.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", action, cfg.Kind.Name, id, err)
	}
	if cfg.Rewrap == nil {
		return nil, fmt.Errorf("%s %s %s: no rewrap function configured", action, cfg.Kind.Name, id)
	}
	return cfg.Rewrap(raw)
}

func (cfg ActionConfig) versionHeader() string {
	if cfg.VersionHeader == "" {
		return DefaultVersionHeader
	}
	return cfg.VersionHeader
}

// classify turns a transport failure into an API error, singling out
// version conflicts.
func classify(action Action, e *Entity, version int, err error) error {
	err = apierror.FromTransport(string(action), err)

	var apiErr *apierror.Error
	if errors.As(err, &apiErr) && errors.Is(apiErr.Err, apierror.ErrVersionMismatch) {
		return &apierror.VersionMismatchError{
			API:      apiErr,
			Kind:     e.sys.Type(),
			EntityID: e.ID(),
			Version:  version,
		}
	}
	return err
}

func mergeParams(base, override Params) Params {
	out := make(Params, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
