// Package trace carries a per-request correlation id from the webhook
// handler through classification, outbound calls and the journal.
package trace

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Header is the HTTP header a trace id travels in, both on inbound webhook
// requests and on outbound platform calls.
const Header = "X-Trace-Id"

type traceKey struct{}

// GenerateID returns a fresh trace id.
func GenerateID() string {
	return "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithTraceID returns a child context carrying id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// FromContext returns the trace id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceKey{}).(string); ok {
		return v
	}
	return ""
}

// FromRequest returns the request's trace id, generating one when the
// caller sent none.
func FromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(Header)); id != "" {
		return id
	}
	return GenerateID()
}

// Inject copies the trace id of ctx onto an outbound request.
func Inject(ctx context.Context, req *http.Request) {
	if id := FromContext(ctx); id != "" {
		req.Header.Set(Header, id)
	}
}
