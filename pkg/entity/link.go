package entity

import (
	"encoding/json"
	"fmt"
)

// TypeLink is the sys.type of every link.
const TypeLink = "Link"

// Link is an unresolved reference to another entity. Links are never
// followed automatically; fetch the target separately.
type Link struct {
	Type     string `json:"type"`
	LinkType string `json:"linkType"`
	ID       string `json:"id"`
}

// NewLink returns a link to the linkType entity with the given id.
func NewLink(linkType, id string) Link {
	return Link{Type: TypeLink, LinkType: linkType, ID: id}
}

// LinkFrom reads a link out of a raw value. It accepts the wire form
// {"sys": {"type": "Link", "linkType": ..., "id": ...}}, the flat form
// {"type": "Link", "linkType": ..., "id": ...}, and an embedded entity, whose
// sys.type becomes the link type.
func LinkFrom(v any) (Link, bool) {
	switch l := v.(type) {
	case Link:
		return l, l.ID != ""
	case *Link:
		if l == nil {
			return Link{}, false
		}
		return *l, l.ID != ""
	}

	m, ok := v.(map[string]any)
	if !ok {
		return Link{}, false
	}
	if sys, ok := m["sys"].(map[string]any); ok {
		m = sys
	}

	id, _ := m["id"].(string)
	if id == "" {
		return Link{}, false
	}
	typ, _ := m["type"].(string)
	linkType, _ := m["linkType"].(string)
	if typ != TypeLink && linkType == "" {
		linkType = typ
	}
	return NewLink(linkType, id), true
}

type linkSys struct {
	Type     string `json:"type"`
	LinkType string `json:"linkType"`
	ID       string `json:"id"`
}

// MarshalJSON encodes the link in wire form.
func (l Link) MarshalJSON() ([]byte, error) {
	typ := l.Type
	if typ == "" {
		typ = TypeLink
	}
	return json.Marshal(struct {
		Sys linkSys `json:"sys"`
	}{Sys: linkSys{Type: typ, LinkType: l.LinkType, ID: l.ID}})
}

// UnmarshalJSON accepts every form LinkFrom does.
func (l *Link) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	link, ok := LinkFrom(raw)
	if !ok {
		return fmt.Errorf("not a link: %s", data)
	}
	*l = link
	return nil
}
