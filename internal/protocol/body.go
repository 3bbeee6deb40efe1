package protocol

import (
	"encoding/json"
	"math"
	"strconv"
)

// Body is the untyped key/value part of a packet. Values are JSON values:
// string, bool, nil, numbers, []any and map[string]any. Parsed numbers are
// json.Number so integers keep their full precision.
type Body map[string]any

// Has reports whether key is present, even with a null value.
func (b Body) Has(key string) bool {
	_, ok := b[key]
	return ok
}

func (b Body) String(key string) (string, bool) {
	s, ok := b[key].(string)
	return s, ok
}

func (b Body) Bool(key string) (bool, bool) {
	v, ok := b[key].(bool)
	return v, ok
}

// Int returns an integral number stored under key.
func (b Body) Int(key string) (int64, bool) {
	v, ok := b[key]
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

// Uint returns a non-negative integral number stored under key that does not
// exceed max.
func (b Body) Uint(key string, max uint64) (uint64, bool) {
	v, ok := b[key]
	if !ok {
		return 0, false
	}
	u, ok := toUint64(v)
	if !ok || u > max {
		return 0, false
	}
	return u, true
}

// Strings returns an array of strings stored under key.
func (b Body) Strings(key string) ([]string, bool) {
	v, ok := b[key]
	if !ok {
		return nil, false
	}
	return toStrings(v)
}

// Clone returns a shallow copy of the body.
func (b Body) Clone() Body {
	out := make(Body, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return u, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToUint64(f)
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case float32:
		return floatToUint64(float64(n))
	case float64:
		return floatToUint64(n)
	}
	i, ok := toInt64(v)
	if !ok || i < 0 {
		return 0, false
	}
	return uint64(i), true
}

func uintToInt64(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

// 2^63 is exactly representable, anything at or above it overflows int64.
func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func floatToUint64(f float64) (uint64, bool) {
	if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []Capability:
		out := make([]string, len(s))
		for i, c := range s {
			out[i] = string(c)
		}
		return out, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			switch str := item.(type) {
			case string:
				out = append(out, str)
			case Capability:
				out = append(out, string(str))
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}
