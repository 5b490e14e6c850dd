// Package redact keeps credentials out of log lines and journal rows.
//
// Bearer tokens issued by the platform's token endpoint, the app password,
// and broker/homeserver credentials must never be logged. Redaction works on
// string representations and is only a backstop for call sites that forgot
// to leave a secret out.
package redact

import (
	"net/http"
	"regexp"
	"strings"
)

// Placeholder replaces every redacted value.
const Placeholder = "[REDACTED]"

// String replaces each of secrets in s with Placeholder. Secrets shorter
// than 4 bytes are ignored.
func String(s string, secrets ...string) string {
	for _, v := range secrets {
		if len(v) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, v, Placeholder)
	}
	return s
}

var bearer = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`)

// Bearer masks every "Bearer <token>" occurrence in s.
func Bearer(s string) string {
	return bearer.ReplaceAllString(s, "${1}"+Placeholder)
}

// URL masks the userinfo password of a URL string such as an AMQP dial URL.
func URL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return raw
	}
	user, _, hasPass := strings.Cut(rest[:at], ":")
	if !hasPass {
		return raw
	}
	return scheme + "://" + user + ":" + Placeholder + rest[at:]
}

// Headers returns a copy of h with authentication headers masked.
func Headers(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		if isSensitiveKey(k) {
			out[k] = []string{Placeholder}
		}
	}
	return out
}

// Map returns a shallow copy of m with non-empty string values masked for
// every key that looks like it holds a secret.
func Map(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && s != "" && isSensitiveKey(k) {
			out[k] = Placeholder
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, word := range []string{"password", "secret", "token", "authorization", "credential", "apikey"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
