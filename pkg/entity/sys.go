package entity

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/araddon/dateparse"
	"github.com/iancoleman/strcase"
)

// Sys is the server-managed metadata block of an entity. It is read-only:
// every accessor returns a copy, so nothing obtained from a Sys can change the
// entity it belongs to.
type Sys struct {
	fields map[string]any
}

// ID returns sys.id.
func (s Sys) ID() string {
	return s.str("id")
}

// Type returns sys.type, e.g. "SpaceMember".
func (s Sys) Type() string {
	return s.str("type")
}

// Version returns sys.version, or 0 if absent.
func (s Sys) Version() int {
	v, _ := s.intValue("version")
	return v
}

// HasVersion reports whether sys.version is present and numeric.
func (s Sys) HasVersion() bool {
	_, ok := s.intValue("version")
	return ok
}

// PublishedVersion returns sys.publishedVersion, or 0 if never published.
func (s Sys) PublishedVersion() int {
	v, _ := s.intValue("publishedVersion")
	return v
}

// ArchivedVersion returns sys.archivedVersion, or 0 if not archived.
func (s Sys) ArchivedVersion() int {
	v, _ := s.intValue("archivedVersion")
	return v
}

// Space returns the sys.space link.
func (s Sys) Space() (Link, bool) {
	return s.Link("space")
}

// Environment returns the sys.environment link.
func (s Sys) Environment() (Link, bool) {
	return s.Link("environment")
}

// Link returns the link stored under key.
func (s Sys) Link(key string) (Link, bool) {
	return LinkFrom(s.fields[key])
}

func (s Sys) CreatedAt() time.Time   { return s.time("createdAt") }
func (s Sys) UpdatedAt() time.Time   { return s.time("updatedAt") }
func (s Sys) PublishedAt() time.Time { return s.time("publishedAt") }

// Get returns a copy of the value under key.
func (s Sys) Get(key string) (any, bool) {
	v, ok := s.fields[key]
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// Keys returns the sorted sys keys.
func (s Sys) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a deep copy of the whole block, or nil for an empty Sys.
func (s Sys) Map() map[string]any {
	m, err := copyMap(s.fields)
	if err != nil {
		return nil
	}
	return m
}

// IsZero reports whether the block is absent.
func (s Sys) IsZero() bool {
	return s.fields == nil
}

func (s Sys) MarshalJSON() ([]byte, error) {
	if s.fields == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.fields)
}

func (s Sys) str(key string) string {
	v, _ := s.fields[key].(string)
	return v
}

func (s Sys) intValue(key string) (int, bool) {
	v, ok := s.fields[key]
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// time parses a timestamp; unparseable values yield the zero time.
func (s Sys) time(key string) time.Time {
	v := s.str(key)
	if v == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// params collects path parameters from the links in sys, keyed by the
// placeholder they fill: sys.space gives space_id, sys.contentType gives
// content_type_id.
func (s Sys) params() Params {
	p := Params{}
	for key, v := range s.fields {
		if l, ok := LinkFrom(v); ok {
			p[strcase.ToSnake(key)+"_id"] = l.ID
		}
	}
	return p
}
