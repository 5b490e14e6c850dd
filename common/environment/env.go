// Package environment reads configuration overrides from environment
// variables.
//
// Lookups go through an Env carrying a common prefix, so every variable a
// process reads is namespaced the same way (e.g. KAIWA_LISTEN_ADDR). The
// Override* helpers leave their destination untouched when a variable is
// unset or unparsable, which lets a config file provide the defaults.
package environment

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env looks up variables named Prefix + name.
type Env struct {
	Prefix string
}

// New returns an Env for prefix.
func New(prefix string) Env { return Env{Prefix: prefix} }

// Name returns the full variable name for name.
func (e Env) Name(name string) string { return e.Prefix + name }

// Lookup returns the raw value and whether the variable is set.
func (e Env) Lookup(name string) (string, bool) {
	return os.LookupEnv(e.Name(name))
}

// StringOr returns the variable's value, or def when unset or empty.
func (e Env) StringOr(name, def string) string {
	if v, _ := e.Lookup(name); v != "" {
		return v
	}
	return def
}

// Required returns the variable's value or an error naming it.
func (e Env) Required(name string) (string, error) {
	v, _ := e.Lookup(name)
	if v == "" {
		return "", fmt.Errorf("required environment variable %q is not set", e.Name(name))
	}
	return v, nil
}

// OverrideString replaces *dst with the variable's value when it is set and
// non-empty.
func (e Env) OverrideString(dst *string, name string) {
	if v, _ := e.Lookup(name); v != "" {
		*dst = v
	}
}

// OverrideBool parses the variable with strconv.ParseBool.
func (e Env) OverrideBool(dst *bool, name string) {
	if v, _ := e.Lookup(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// OverrideInt parses the variable as a decimal integer.
func (e Env) OverrideInt(dst *int, name string) {
	if v, _ := e.Lookup(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// OverrideDuration parses the variable with time.ParseDuration.
func (e Env) OverrideDuration(dst *time.Duration, name string) {
	if v, _ := e.Lookup(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// OverrideList splits the variable on commas, dropping blank elements. An
// all-blank value leaves *dst untouched.
func (e Env) OverrideList(dst *[]string, name string) {
	v, _ := e.Lookup(name)
	if v == "" {
		return
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}
