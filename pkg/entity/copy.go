package entity

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/mitchellh/copystructure"
)

// copyMap deep-copies m so the result shares no maps or slices with it.
func copyMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	c, err := copystructure.Copy(m)
	if err != nil {
		return nil, err
	}
	return c.(map[string]any), nil
}

// copyValue deep-copies v. Values already copied once at wrap time cannot
// fail; for anything else the original is returned.
func copyValue(v any) any {
	c, err := copystructure.Copy(v)
	if err != nil {
		return v
	}
	return c
}

// toInt converts the numeric shapes produced by Go literals and by JSON
// decoding (float64 or json.Number) to int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, true
		}
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
