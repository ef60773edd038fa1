// MODUL: block
// ZWECK: Typisierte Zugriffe auf einen generischen Key/Value-Konfigurationsblock
// INPUT: Dekodierte JSON-Objekte (map[string]any)
// OUTPUT: Skalare, Listen und verschachtelte Bloecke
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: encoding/json, types/errtypes
// HINWEISE: Unbekannte Keys werden ignoriert, fehlende Pflicht-Keys sind
//           InvalidConfiguration mit dem Key-Namen
package config

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ollama/embedforge/types/errtypes"
)

// Block is one configuration object. Values are whatever encoding/json
// produced (with UseNumber) or plain Go scalars when built in code.
type Block map[string]any

// Has reports whether key is present.
func (b Block) Has(key string) bool {
	_, ok := b[key]
	return ok
}

func (b Block) lookup(key string) (any, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return nil, errtypes.Missing(key)
	}
	return v, nil
}

// ============================================================================
// Strings und Bools
// ============================================================================

func (b Block) String(key string) (string, error) {
	v, err := b.lookup(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errtypes.Invalid(key, "expected string, got %T", v)
	}
	return s, nil
}

func (b Block) StringOr(key, def string) (string, error) {
	if !b.Has(key) {
		return def, nil
	}
	return b.String(key)
}

func (b Block) Bool(key string) (bool, error) {
	v, err := b.lookup(key)
	if err != nil {
		return false, err
	}
	x, ok := v.(bool)
	if !ok {
		return false, errtypes.Invalid(key, "expected bool, got %T", v)
	}
	return x, nil
}

func (b Block) BoolOr(key string, def bool) (bool, error) {
	if !b.Has(key) {
		return def, nil
	}
	return b.Bool(key)
}

// ============================================================================
// Zahlen
// ============================================================================

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	}

	if f, ok := toFloat64(v); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f), true
	}
	return 0, false
}

func (b Block) Float64(key string) (float64, error) {
	v, err := b.lookup(key)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat64(v)
	if !ok {
		return 0, errtypes.Invalid(key, "expected number, got %v", v)
	}
	return f, nil
}

func (b Block) Float64Or(key string, def float64) (float64, error) {
	if !b.Has(key) {
		return def, nil
	}
	return b.Float64(key)
}

func (b Block) Float32(key string) (float32, error) {
	f, err := b.Float64(key)
	return float32(f), err
}

func (b Block) Float32Or(key string, def float32) (float32, error) {
	f, err := b.Float64Or(key, float64(def))
	return float32(f), err
}

func (b Block) Int(key string) (int64, error) {
	v, err := b.lookup(key)
	if err != nil {
		return 0, err
	}
	i, ok := toInt64(v)
	if !ok {
		return 0, errtypes.Invalid(key, "expected integer, got %v", v)
	}
	return i, nil
}

func (b Block) IntOr(key string, def int64) (int64, error) {
	if !b.Has(key) {
		return def, nil
	}
	return b.Int(key)
}

func (b Block) Uint(key string) (uint64, error) {
	i, err := b.Int(key)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, errtypes.Invalid(key, "expected non-negative integer, got %d", i)
	}
	return uint64(i), nil
}

func (b Block) UintOr(key string, def uint64) (uint64, error) {
	if !b.Has(key) {
		return def, nil
	}
	return b.Uint(key)
}

// ============================================================================
// Listen und verschachtelte Bloecke
// ============================================================================

func (b Block) Uints(key string) ([]uint64, error) {
	v, err := b.lookup(key)
	if err != nil {
		return nil, err
	}

	var items []any
	switch l := v.(type) {
	case []any:
		items = l
	case []uint64:
		return append([]uint64(nil), l...), nil
	case []int:
		for _, x := range l {
			items = append(items, x)
		}
	default:
		return nil, errtypes.Invalid(key, "expected array, got %T", v)
	}

	out := make([]uint64, len(items))
	for i, item := range items {
		n, ok := toInt64(item)
		if !ok || n < 0 {
			return nil, errtypes.Invalid(fmt.Sprintf("%s[%d]", key, i), "expected non-negative integer, got %v", item)
		}
		out[i] = uint64(n)
	}
	return out, nil
}

func asBlock(v any) (Block, bool) {
	switch m := v.(type) {
	case Block:
		return m, true
	case map[string]any:
		return Block(m), true
	}
	return nil, false
}

func (b Block) Block(key string) (Block, error) {
	v, err := b.lookup(key)
	if err != nil {
		return nil, err
	}
	m, ok := asBlock(v)
	if !ok {
		return nil, errtypes.Invalid(key, "expected object, got %T", v)
	}
	return m, nil
}

func (b Block) Blocks(key string) ([]Block, error) {
	v, err := b.lookup(key)
	if err != nil {
		return nil, err
	}

	var items []any
	switch l := v.(type) {
	case []any:
		items = l
	case []Block:
		return append([]Block(nil), l...), nil
	default:
		return nil, errtypes.Invalid(key, "expected array of objects, got %T", v)
	}

	out := make([]Block, len(items))
	for i, item := range items {
		m, ok := asBlock(item)
		if !ok {
			return nil, errtypes.Invalid(fmt.Sprintf("%s[%d]", key, i), "expected object, got %T", item)
		}
		out[i] = m
	}
	return out, nil
}
