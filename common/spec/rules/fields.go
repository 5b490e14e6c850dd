package rules

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
)

// Fields reads typed values out of an untyped JSON object on behalf of a
// model builder. Keys the builder never asks for are ignored; keys that are
// absent (or null) leave the destination at its default.
//
// A value of the wrong JSON type is not fatal: it is recorded as a finding
// and the destination is left untouched, so the owning model reports it from
// Validate alongside every other problem. Only a failing nested factory makes
// construction itself fail (see Err).
type Fields struct {
	src      map[string]any
	problems []string
	err      error
}

// Read wraps src. A nil src behaves like an empty object.
func Read(src map[string]any) *Fields {
	return &Fields{src: src}
}

// Has reports whether key is present with a non-null value.
func (f *Fields) Has(key string) bool {
	v, ok := f.src[key]
	return ok && v != nil
}

// Raw returns the value stored under key, or nil.
func (f *Fields) Raw(key string) any {
	return f.src[key]
}

// Problems returns the type mismatches recorded so far.
func (f *Fields) Problems() []string {
	return f.problems
}

// Err returns the first nested construction failure, or nil.
func (f *Fields) Err() error {
	return f.err
}

func (f *Fields) mismatch(key, want string, got any) {
	f.problems = append(f.problems, fmt.Sprintf("%s must be %s, got %s", key, want, kindOf(got)))
}

func (f *Fields) fail(key string, err error) {
	if f.err == nil {
		f.err = fmt.Errorf("%s: %w", key, err)
	}
}

// String copies a string value into dst.
func (f *Fields) String(key string, dst **string) {
	if !f.Has(key) {
		return
	}
	s, ok := f.src[key].(string)
	if !ok {
		f.mismatch(key, "a string", f.src[key])
		return
	}
	*dst = &s
}

// Number copies a numeric value into dst.
func (f *Fields) Number(key string, dst **float64) {
	if !f.Has(key) {
		return
	}
	n, ok := toFloat(f.src[key])
	if !ok {
		f.mismatch(key, "a number", f.src[key])
		return
	}
	*dst = &n
}

// Int copies an integral numeric value into dst.
func (f *Fields) Int(key string, dst **int) {
	if !f.Has(key) {
		return
	}
	n, ok := toFloat(f.src[key])
	if !ok || n != math.Trunc(n) || math.IsInf(n, 0) {
		f.mismatch(key, "an integer", f.src[key])
		return
	}
	i := int(n)
	*dst = &i
}

// Bool copies a boolean value into dst.
func (f *Fields) Bool(key string, dst **bool) {
	if !f.Has(key) {
		return
	}
	b, ok := f.src[key].(bool)
	if !ok {
		f.mismatch(key, "a boolean", f.src[key])
		return
	}
	*dst = &b
}

// Strings copies a list of strings into dst. An empty JSON array yields an
// empty, non-nil slice.
func (f *Fields) Strings(key string, dst *[]string) {
	if !f.Has(key) {
		return
	}
	items, ok := f.list(key)
	if !ok {
		return
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			f.mismatch(fmt.Sprintf("%s[%d]", key, i), "a string", item)
			continue
		}
		out = append(out, s)
	}
	*dst = out
}

// StringMap copies a string→string dictionary into dst.
func (f *Fields) StringMap(key string, dst *map[string]string) {
	if !f.Has(key) {
		return
	}
	m, ok := f.src[key].(map[string]any)
	if !ok {
		f.mismatch(key, "an object", f.src[key])
		return
	}
	out := make(map[string]string, len(m))
	for _, k := range sortedKeys(m) {
		s, ok := m[k].(string)
		if !ok {
			f.mismatch(fmt.Sprintf("%s[%q]", key, k), "a string", m[k])
			continue
		}
		out[k] = s
	}
	*dst = out
}

// Object copies an opaque JSON object into dst without interpreting it.
func (f *Fields) Object(key string, dst *map[string]any) {
	if !f.Has(key) {
		return
	}
	m, ok := f.src[key].(map[string]any)
	if !ok {
		f.mismatch(key, "an object", f.src[key])
		return
	}
	*dst = m
}

func (f *Fields) list(key string) ([]any, bool) {
	items, ok := f.src[key].([]any)
	if !ok {
		f.mismatch(key, "an array", f.src[key])
		return nil, false
	}
	return items, true
}

// ReadEnum copies a string-backed enum value into dst. Membership is checked by
// the owning model's Validate.
func ReadEnum[T ~string](f *Fields, key string, dst **T) {
	var s *string
	f.String(key, &s)
	if s != nil {
		v := T(*s)
		*dst = &v
	}
}

// EnumList copies a list of string-backed enum values into dst.
func EnumList[T ~string](f *Fields, key string, dst *[]T) {
	var ss []string
	f.Strings(key, &ss)
	if ss == nil {
		return
	}
	out := make([]T, len(ss))
	for i, s := range ss {
		out[i] = T(s)
	}
	*dst = out
}

// Nested constructs a nested model from a JSON object using build.
func Nested[T any](f *Fields, key string, dst **T, build func(map[string]any) (*T, error)) {
	if !f.Has(key) {
		return
	}
	m, ok := f.src[key].(map[string]any)
	if !ok {
		f.mismatch(key, "an object", f.src[key])
		return
	}
	v, err := build(m)
	if err != nil {
		f.fail(key, err)
		return
	}
	*dst = v
}

// NestedList constructs each element of a JSON array with build, preserving
// order. Elements that are not objects are recorded and left nil.
func NestedList[T any](f *Fields, key string, dst *[]*T, build func(map[string]any) (*T, error)) {
	if !f.Has(key) {
		return
	}
	items, ok := f.list(key)
	if !ok {
		return
	}
	out := make([]*T, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			f.mismatch(fmt.Sprintf("%s[%d]", key, i), "an object", item)
			continue
		}
		v, err := build(m)
		if err != nil {
			f.fail(fmt.Sprintf("%s[%d]", key, i), err)
			return
		}
		out[i] = v
	}
	*dst = out
}

// Dispatch constructs a member of a discriminated family with factory. The
// factory sees the raw value and is responsible for rejecting non-objects.
func Dispatch[T any](f *Fields, key string, dst *T, factory func(any) (T, error)) {
	if !f.Has(key) {
		return
	}
	v, err := factory(f.src[key])
	if err != nil {
		f.fail(key, err)
		return
	}
	*dst = v
}

// DispatchList constructs each element of a JSON array with factory.
func DispatchList[T any](f *Fields, key string, dst *[]T, factory func(any) (T, error)) {
	if !f.Has(key) {
		return
	}
	items, ok := f.list(key)
	if !ok {
		return
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := factory(item)
		if err != nil {
			f.fail(fmt.Sprintf("%s[%d]", key, i), err)
			return
		}
		out = append(out, v)
	}
	*dst = out
}

// Decoded is embedded by models to carry the findings recorded by Fields
// while they were populated.
type Decoded struct {
	problems []string
}

// SetDecodeProblems stores the findings recorded during population.
func (d *Decoded) SetDecodeProblems(p []string) {
	d.problems = p
}

// DecodeProblems returns the findings recorded during population.
func (d *Decoded) DecodeProblems() []string {
	if d == nil {
		return nil
	}
	return d.problems
}

// ToMap converts v into its untyped JSON representation.
func ToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return m, nil
}

// AsObject returns v as a JSON object, rejecting null, arrays, and scalars.
func AsObject(v any) (map[string]any, error) {
	switch m := v.(type) {
	case nil:
		return nil, fmt.Errorf("input must not be null")
	case map[string]any:
		return m, nil
	case []any:
		return nil, fmt.Errorf("input must be an object, got an array")
	default:
		return nil, fmt.Errorf("input must be an object, got %s", kindOf(v))
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case float64, float32, int, int64, json.Number:
		return "a number"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	}
	return fmt.Sprintf("%T", v)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// Ref returns a pointer to v. Models use pointers for every field so an
// absent value can be told apart from a zero one.
func Ref[T any](v T) *T {
	return &v
}
