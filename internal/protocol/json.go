package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// codec decodes numbers as json.Number and sorts map keys so encoded packets
// are deterministic.
var codec = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

const maxBodyDepth = 1000

// valueError carries the path to a value the codec cannot encode. Segments
// are collected innermost first while the walk unwinds.
type valueError struct {
	segments []string
	msg      string
}

func (e *valueError) Error() string {
	var b strings.Builder
	b.WriteString("body")
	for i := len(e.segments) - 1; i >= 0; i-- {
		b.WriteString(e.segments[i])
	}
	b.WriteString(": ")
	b.WriteString(e.msg)
	return b.String()
}

func (e *valueError) at(segment string) *valueError {
	e.segments = append(e.segments, segment)
	return e
}

// visit identifies a map, slice or pointer on the current walk path. Slices
// include their length so a shorter reslice of the same array is not
// mistaken for a cycle.
type visit struct {
	kind reflect.Kind
	ptr  uintptr
	len  int
}

// encodeCheck walks a body and rejects anything that is not a plain JSON
// value: non-finite floats, maps without string keys, structs, channels,
// functions, self-referencing containers and nesting deeper than
// maxBodyDepth.
type encodeCheck struct {
	active map[visit]struct{}
}

func checkBody(body Body) error {
	c := encodeCheck{active: make(map[visit]struct{})}
	if err := c.value(map[string]any(body), 0); err != nil {
		return err
	}
	return nil
}

func (c *encodeCheck) value(v any, depth int) *valueError {
	if depth > maxBodyDepth {
		return &valueError{msg: fmt.Sprintf("nested deeper than %d levels", maxBodyDepth)}
	}

	switch x := v.(type) {
	case nil, string, bool:
		return nil
	case json.Number:
		if _, err := x.Float64(); err != nil {
			return &valueError{msg: fmt.Sprintf("invalid number %q", string(x))}
		}
		return nil
	case float64:
		return checkFloat(x)
	case float32:
		return checkFloat(float64(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nil
	case reflect.Float32, reflect.Float64:
		return checkFloat(rv.Float())
	case reflect.Array:
		return c.elements(rv, depth)
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		key := visit{kind: reflect.Slice, ptr: rv.Pointer(), len: rv.Len()}
		if err := c.enter(key); err != nil {
			return err
		}
		defer c.leave(key)
		return c.elements(rv, depth)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return &valueError{msg: fmt.Sprintf("map key type %s is not a string", rv.Type().Key())}
		}
		if rv.IsNil() {
			return nil
		}
		key := visit{kind: reflect.Map, ptr: rv.Pointer()}
		if err := c.enter(key); err != nil {
			return err
		}
		defer c.leave(key)
		iter := rv.MapRange()
		for iter.Next() {
			if err := c.value(iter.Value().Interface(), depth+1); err != nil {
				return err.at("." + iter.Key().String())
			}
		}
		return nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		key := visit{kind: reflect.Pointer, ptr: rv.Pointer()}
		if err := c.enter(key); err != nil {
			return err
		}
		defer c.leave(key)
		return c.value(rv.Elem().Interface(), depth+1)
	}
	return &valueError{msg: fmt.Sprintf("unsupported type %T", v)}
}

func (c *encodeCheck) elements(rv reflect.Value, depth int) *valueError {
	for i := 0; i < rv.Len(); i++ {
		if err := c.value(rv.Index(i).Interface(), depth+1); err != nil {
			return err.at("[" + strconv.Itoa(i) + "]")
		}
	}
	return nil
}

func (c *encodeCheck) enter(key visit) *valueError {
	if _, ok := c.active[key]; ok {
		return &valueError{msg: "cycle"}
	}
	c.active[key] = struct{}{}
	return nil
}

func (c *encodeCheck) leave(key visit) {
	delete(c.active, key)
}

func checkFloat(f float64) *valueError {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &valueError{msg: fmt.Sprintf("unsupported value %v", f)}
	}
	return nil
}
