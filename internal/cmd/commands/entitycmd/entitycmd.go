// Package entitycmd implements the commands that read and change entities.
package entitycmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/cmaclient/internal/cmd/base"
	"github.com/hashicorp-forge/cmaclient/pkg/cma"
	"github.com/hashicorp-forge/cmaclient/pkg/entity"
	"github.com/hashicorp-forge/cmaclient/pkg/transport"
)

// setup loads configuration, creates the client and resolves the kind name.
func setup(c *base.Command, cf *base.ClientFlags, kindName string) (*cma.Client, entity.Kind, error) {
	cfg, err := c.LoadConfig(cf)
	if err != nil {
		return nil, entity.Kind{}, fmt.Errorf("error loading config: %w", err)
	}
	client, err := c.NewClient(cfg)
	if err != nil {
		return nil, entity.Kind{}, fmt.Errorf("error creating client: %w", err)
	}
	kind, err := client.Kind(kindName)
	if err != nil {
		return nil, entity.Kind{}, err
	}
	return client, kind, nil
}

// parseAssignments turns key=value pairs into a nested map. Dotted keys
// create nested objects ("fields.title.en-US=Hi"). Values are parsed as JSON
// when possible and kept as strings otherwise.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any)
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", pair)
		}
		if err := setPath(out, strings.Split(key, "."), parseValue(raw)); err != nil {
			return nil, fmt.Errorf("invalid assignment %q: %w", pair, err)
		}
	}
	return out, nil
}

func parseValue(raw string) any {
	var v any
	if err := transport.DecodeJSON([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func setPath(m map[string]any, path []string, value any) error {
	for i, key := range path {
		if key == "" {
			return fmt.Errorf("empty key segment")
		}
		if key == "sys" && i == 0 {
			return fmt.Errorf("sys is read-only")
		}
		if i == len(path)-1 {
			m[key] = value
			return nil
		}
		next, ok := m[key].(map[string]any)
		if !ok {
			if _, exists := m[key]; exists {
				return fmt.Errorf("%s is not an object", strings.Join(path[:i+1], "."))
			}
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	return nil
}

// merge copies src into dst, descending into nested objects.
func merge(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			merge(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}

// fetch gets one entity.
func fetch(ctx context.Context, client *cma.Client, kind entity.Kind, id string) (*entity.Entity, error) {
	e, err := client.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("error getting %s %q: %w", kind.Name, id, err)
	}
	return e, nil
}
