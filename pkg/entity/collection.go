package entity

import "encoding/json"

// Collection is a wrapped list response. Items are wrapped entities; every
// other top-level property (total, skip, limit, ...) is kept as metadata.
type Collection struct {
	sys   Sys
	meta  map[string]any
	Items []*Entity
}

// Sys returns the collection's sys block, which is zero if the response had
// none.
func (c *Collection) Sys() Sys {
	return c.sys
}

func (c *Collection) Total() int { return c.metaInt("total") }
func (c *Collection) Skip() int  { return c.metaInt("skip") }
func (c *Collection) Limit() int { return c.metaInt("limit") }

// Len returns the number of items in this page.
func (c *Collection) Len() int {
	return len(c.Items)
}

// Get returns a copy of the metadata property under key.
func (c *Collection) Get(key string) (any, bool) {
	v, ok := c.meta[key]
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// ToPlainObject returns the collection as plain data, with every item
// projected by Entity.ToPlainObject.
func (c *Collection) ToPlainObject() map[string]any {
	out, err := copyMap(c.meta)
	if err != nil || out == nil {
		out = make(map[string]any, len(c.meta)+2)
		for k, v := range c.meta {
			out[k] = v
		}
	}
	items := make([]any, len(c.Items))
	for i, item := range c.Items {
		items[i] = item.ToPlainObject()
	}
	out["items"] = items
	if !c.sys.IsZero() {
		out["sys"] = c.sys.Map()
	}
	return out
}

func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToPlainObject())
}

func (c *Collection) metaInt(key string) int {
	n, _ := toInt(c.meta[key])
	return n
}
