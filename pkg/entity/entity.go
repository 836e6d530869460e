package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// ErrUnsupportedAction is returned when an action is invoked on an entity
// whose kind does not carry it.
var ErrUnsupportedAction = errors.New("action not supported")

// ActionFunc performs an action on behalf of e. Actions that produce a new
// server state return it as a fresh entity; e itself is never modified.
type ActionFunc func(ctx context.Context, e *Entity) (*Entity, error)

// Updater is implemented by entities that can be saved.
type Updater interface {
	Update(ctx context.Context) (*Entity, error)
}

// Deleter is implemented by entities that can be deleted.
type Deleter interface {
	Delete(ctx context.Context) error
}

// Publisher is implemented by entities with a published state.
type Publisher interface {
	Publish(ctx context.Context) (*Entity, error)
	Unpublish(ctx context.Context) (*Entity, error)
}

// Archiver is implemented by entities with an archived state.
type Archiver interface {
	Archive(ctx context.Context) (*Entity, error)
	Unarchive(ctx context.Context) (*Entity, error)
}

var (
	_ Updater   = (*Entity)(nil)
	_ Deleter   = (*Entity)(nil)
	_ Publisher = (*Entity)(nil)
	_ Archiver  = (*Entity)(nil)
)

// Entity is a wrapped API resource: its sys block, its payload fields, and
// the actions of its kind.
type Entity struct {
	sys Sys

	// Fields holds every top-level property except sys. It is owned by the
	// entity and may be edited before calling Update. A "sys" key placed here
	// is ignored.
	Fields map[string]any

	kind    Kind
	actions map[Action]ActionFunc
}

// Sys returns the read-only metadata block.
func (e *Entity) Sys() Sys {
	return e.sys
}

// Kind returns the kind the entity was wrapped as.
func (e *Entity) Kind() Kind {
	return e.kind
}

// ID returns sys.id.
func (e *Entity) ID() string {
	return e.sys.ID()
}

// Version returns sys.version.
func (e *Entity) Version() int {
	return e.sys.Version()
}

// Get returns the payload field under key.
func (e *Entity) Get(key string) (any, bool) {
	v, ok := e.Fields[key]
	return v, ok
}

// Set stores a payload field.
func (e *Entity) Set(key string, value any) {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
}

// Supports reports whether the entity carries action a.
func (e *Entity) Supports(a Action) bool {
	_, ok := e.actions[a]
	return ok
}

// Update sends the current payload with the current version and returns the
// saved entity. On a version conflict the error is an
// *apierror.VersionMismatchError and e keeps its old version.
func (e *Entity) Update(ctx context.Context) (*Entity, error) {
	return e.invoke(ctx, ActionUpdate)
}

// Delete deletes the entity.
func (e *Entity) Delete(ctx context.Context) error {
	_, err := e.invoke(ctx, ActionDelete)
	return err
}

func (e *Entity) Publish(ctx context.Context) (*Entity, error) {
	return e.invoke(ctx, ActionPublish)
}

func (e *Entity) Unpublish(ctx context.Context) (*Entity, error) {
	return e.invoke(ctx, ActionUnpublish)
}

func (e *Entity) Archive(ctx context.Context) (*Entity, error) {
	return e.invoke(ctx, ActionArchive)
}

func (e *Entity) Unarchive(ctx context.Context) (*Entity, error) {
	return e.invoke(ctx, ActionUnarchive)
}

func (e *Entity) invoke(ctx context.Context, a Action) (*Entity, error) {
	fn, ok := e.actions[a]
	if !ok {
		return nil, fmt.Errorf("%s %s %s: %w", a, e.kind.Name, e.ID(), ErrUnsupportedAction)
	}
	return fn(ctx, e)
}

// payload returns a deep copy of the fields without sys.
func (e *Entity) payload() (map[string]any, error) {
	p, err := copyMap(e.Fields)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = make(map[string]any)
	}
	delete(p, "sys")
	return p, nil
}

// ToPlainObject returns the entity as plain data with no actions attached.
// The result is a deep copy: wrapping it again gives an equivalent entity and
// modifying it does not affect e.
func (e *Entity) ToPlainObject() map[string]any {
	out, err := e.payload()
	if err != nil {
		out = make(map[string]any, len(e.Fields)+1)
		for k, v := range e.Fields {
			out[k] = v
		}
	}
	if !e.sys.IsZero() {
		out["sys"] = e.sys.Map()
	}
	return out
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToPlainObject())
}

// DecodeFields decodes the payload into out, a pointer to a struct whose
// fields carry json tags. Links in any of the forms LinkFrom accepts decode
// into Link.
func (e *Entity) DecodeFields(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       linkDecodeHook,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(e.Fields); err != nil {
		return fmt.Errorf("failed to decode %s fields: %w", e.kind.Name, err)
	}
	return nil
}

var linkType = reflect.TypeOf(Link{})

func linkDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != linkType {
		return data, nil
	}
	if l, ok := LinkFrom(data); ok {
		return map[string]any{"type": l.Type, "linkType": l.LinkType, "id": l.ID}, nil
	}
	return data, nil
}
