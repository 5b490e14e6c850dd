// Package rules is the field-level validation engine shared by every Kaiwa
// wire model.
//
// Validators never fail fast. Each one returns the list of human-readable
// findings for a single field (nil when the value is acceptable) and callers
// concatenate those lists in the order the fields are checked. An entity is
// valid iff the concatenated list is empty.
//
// Required validators reject absent values (nil pointers, nil slices). The
// Optional* variants return nil for absent values and delegate otherwise.
package rules

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator is implemented by every model that can check itself.
type Validator interface {
	Validate() []string
}

// Numeric is the set of number types the number validators accept.
type Numeric interface {
	~int | ~int64 | ~float64
}

// StringOpts bounds a string value. Max == 0 means no upper bound.
type StringOpts struct {
	Min        int
	Max        int
	AllowBlank bool
}

// ArrayOpts constrains a list value. Max == 0 means no upper bound.
type ArrayOpts struct {
	AllowEmpty bool
	Unique     bool
	Max        int
}

func missing(name string) []string {
	return []string{fmt.Sprintf("%s must be set", name)}
}

// ── scalars ──────────────────────────────────────────────────────────────────

// String checks a required string value.
func String(name string, v *string, opts StringOpts) []string {
	if v == nil {
		return missing(name)
	}
	if !opts.AllowBlank && strings.TrimSpace(*v) == "" {
		return []string{fmt.Sprintf("%s must not be blank", name)}
	}
	n := utf8.RuneCountInString(*v)
	if n < opts.Min {
		return []string{fmt.Sprintf("%s must be at least %d characters long, got %d", name, opts.Min, n)}
	}
	if opts.Max > 0 && n > opts.Max {
		return []string{fmt.Sprintf("%s must be at most %d characters long, got %d", name, opts.Max, n)}
	}
	return nil
}

// OptionalString is String for values that may be absent.
func OptionalString(name string, v *string, opts StringOpts) []string {
	if v == nil {
		return nil
	}
	return String(name, v, opts)
}

// ByteLength checks that a required string is between min and max bytes
// long once encoded as UTF-8.
func ByteLength(name string, v *string, min, max int) []string {
	if v == nil {
		return missing(name)
	}
	if n := len(*v); n < min {
		return []string{fmt.Sprintf("%s must be at least %d bytes, got %d", name, min, n)}
	} else if n > max {
		return []string{fmt.Sprintf("%s must be at most %d bytes, got %d", name, max, n)}
	}
	return nil
}

// Number checks that a required number lies in [min, max]. The lower bound
// is checked first and at most one bound violation is reported.
func Number[N Numeric](name string, v *N, min, max N) []string {
	if v == nil {
		return missing(name)
	}
	f := float64(*v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []string{fmt.Sprintf("%s must be a finite number", name)}
	}
	if *v < min {
		return []string{fmt.Sprintf("%s must be >= %v, got %v", name, min, *v)}
	}
	if *v > max {
		return []string{fmt.Sprintf("%s must be <= %v, got %v", name, max, *v)}
	}
	return nil
}

// OptionalNumber is Number for values that may be absent.
func OptionalNumber[N Numeric](name string, v *N, min, max N) []string {
	if v == nil {
		return nil
	}
	return Number(name, v, min, max)
}

// Bool checks that a required boolean is present.
func Bool(name string, v *bool) []string {
	if v == nil {
		return missing(name)
	}
	return nil
}

// Pattern checks a required string against re. what describes the expected
// shape in the finding (e.g. "an ISO-8601 timestamp").
func Pattern(name string, v *string, re *regexp.Regexp, what string) []string {
	if errs := String(name, v, StringOpts{}); len(errs) > 0 {
		return errs
	}
	if !re.MatchString(*v) {
		return []string{fmt.Sprintf("%s must be %s, got %q", name, what, *v)}
	}
	return nil
}

// OptionalPattern is Pattern for values that may be absent.
func OptionalPattern(name string, v *string, re *regexp.Regexp, what string) []string {
	if v == nil {
		return nil
	}
	return Pattern(name, v, re, what)
}

var base64Alphabet = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// Base64 checks that a required string is standard base64 and at most max
// bytes long.
func Base64(name string, v *string, max int) []string {
	if v == nil {
		return missing(name)
	}
	var errs []string
	if strings.TrimSpace(*v) == "" {
		errs = append(errs, fmt.Sprintf("%s must not be blank", name))
	} else if len(*v)%4 != 0 || !base64Alphabet.MatchString(*v) {
		errs = append(errs, fmt.Sprintf("%s must be base64 encoded", name))
	}
	if max > 0 && len(*v) > max {
		errs = append(errs, fmt.Sprintf("%s must be at most %d bytes, got %d", name, max, len(*v)))
	}
	return errs
}

// OptionalBase64 is Base64 for values that may be absent.
func OptionalBase64(name string, v *string, max int) []string {
	if v == nil {
		return nil
	}
	return Base64(name, v, max)
}

// ── enums ────────────────────────────────────────────────────────────────────

// Enum checks that a required value is a member of allowed.
func Enum[T ~string](name string, v *T, allowed []T) []string {
	if v == nil {
		return missing(name)
	}
	for _, a := range allowed {
		if *v == a {
			return nil
		}
	}
	return []string{fmt.Sprintf("%s must be one of %s, got %q", name, join(allowed), string(*v))}
}

// OptionalEnum is Enum for values that may be absent.
func OptionalEnum[T ~string](name string, v *T, allowed []T) []string {
	if v == nil {
		return nil
	}
	return Enum(name, v, allowed)
}

// Forbidden reports a finding when a present value is one of forbidden. It is
// layered on top of Enum for fields that accept a subset of a shared enum.
func Forbidden[T ~string](name string, v T, forbidden []T) []string {
	for _, f := range forbidden {
		if v == f {
			return []string{fmt.Sprintf("%s must not be %q", name, string(v))}
		}
	}
	return nil
}

func join[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ── arrays ───────────────────────────────────────────────────────────────────

// Array checks the shape of a required list of scalar values.
func Array[T comparable](name string, v []T, opts ArrayOpts) []string {
	if v == nil {
		return missing(name)
	}
	if len(v) == 0 && !opts.AllowEmpty {
		return []string{fmt.Sprintf("%s must not be empty", name)}
	}
	var errs []string
	if opts.Unique {
		seen := make(map[T]struct{}, len(v))
		for _, e := range v {
			seen[e] = struct{}{}
		}
		if len(seen) != len(v) {
			errs = append(errs, fmt.Sprintf("%s must not contain duplicates", name))
		}
	}
	if opts.Max > 0 && len(v) > opts.Max {
		errs = append(errs, fmt.Sprintf("%s must contain at most %d items, got %d", name, opts.Max, len(v)))
	}
	return errs
}

// OptionalArray is Array for lists that may be absent.
func OptionalArray[T comparable](name string, v []T, opts ArrayOpts) []string {
	if v == nil {
		return nil
	}
	return Array(name, v, opts)
}

// EnumArray checks a required list whose members must all be in allowed.
func EnumArray[T ~string](name string, v []T, opts ArrayOpts, allowed []T) []string {
	errs := Array(name, v, opts)
	for i := range v {
		errs = append(errs, Enum(fmt.Sprintf("%s[%d]", name, i), &v[i], allowed)...)
	}
	return errs
}

// OptionalEnumArray is EnumArray for lists that may be absent.
func OptionalEnumArray[T ~string](name string, v []T, opts ArrayOpts, allowed []T) []string {
	if v == nil {
		return nil
	}
	return EnumArray(name, v, opts, allowed)
}

// ── typed objects ────────────────────────────────────────────────────────────

// Object checks that a required nested model is present and valid. Nested
// findings are returned as-is; each already names its own field.
func Object[T any, P interface {
	*T
	Validator
}](name string, v P) []string {
	if v == nil {
		return missing(name)
	}
	return v.Validate()
}

// OptionalObject is Object for nested models that may be absent.
func OptionalObject[T any, P interface {
	*T
	Validator
}](name string, v P) []string {
	if v == nil {
		return nil
	}
	return v.Validate()
}

// Variant is Object for interface-typed slots holding one member of a
// discriminated family.
func Variant(name string, v Validator) []string {
	if isNil(v) {
		return missing(name)
	}
	return v.Validate()
}

// ObjectArray checks a required list of nested models.
func ObjectArray[T any, P interface {
	*T
	Validator
}](name string, v []P, opts ArrayOpts) []string {
	if v == nil {
		return missing(name)
	}
	if len(v) == 0 && !opts.AllowEmpty {
		return []string{fmt.Sprintf("%s must not be empty", name)}
	}
	var errs []string
	if opts.Max > 0 && len(v) > opts.Max {
		errs = append(errs, fmt.Sprintf("%s must contain at most %d items, got %d", name, opts.Max, len(v)))
	}
	for i, e := range v {
		if e == nil {
			errs = append(errs, missing(fmt.Sprintf("%s[%d]", name, i))...)
			continue
		}
		errs = append(errs, e.Validate()...)
	}
	return errs
}

// OptionalObjectArray is ObjectArray for lists that may be absent.
func OptionalObjectArray[T any, P interface {
	*T
	Validator
}](name string, v []P, opts ArrayOpts) []string {
	if v == nil {
		return nil
	}
	return ObjectArray(name, v, opts)
}

// VariantArray is ObjectArray for lists of discriminated family members.
func VariantArray[V Validator](name string, v []V, opts ArrayOpts) []string {
	if v == nil {
		return missing(name)
	}
	if len(v) == 0 && !opts.AllowEmpty {
		return []string{fmt.Sprintf("%s must not be empty", name)}
	}
	var errs []string
	if opts.Max > 0 && len(v) > opts.Max {
		errs = append(errs, fmt.Sprintf("%s must contain at most %d items, got %d", name, opts.Max, len(v)))
	}
	for i, e := range v {
		if isNil(e) {
			errs = append(errs, missing(fmt.Sprintf("%s[%d]", name, i))...)
			continue
		}
		errs = append(errs, e.Validate()...)
	}
	return errs
}

// isNil reports whether v is a nil interface or holds a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// ── dictionaries ─────────────────────────────────────────────────────────────

// StringMap checks a required string→string dictionary. Keys and values must
// be non-blank, and the literal keys "null" and "undefined" are rejected.
func StringMap(name string, v map[string]string) []string {
	if v == nil {
		return missing(name)
	}
	var errs []string
	for _, k := range sortedKeys(v) {
		switch {
		case strings.TrimSpace(k) == "":
			errs = append(errs, fmt.Sprintf("%s keys must not be blank", name))
		case k == "null" || k == "undefined":
			errs = append(errs, fmt.Sprintf("%s key %q is not allowed", name, k))
		}
		if strings.TrimSpace(v[k]) == "" {
			errs = append(errs, fmt.Sprintf("%s[%q] must not be blank", name, k))
		}
	}
	return errs
}

// OptionalStringMap is StringMap for dictionaries that may be absent.
func OptionalStringMap(name string, v map[string]string) []string {
	if v == nil {
		return nil
	}
	return StringMap(name, v)
}
