package trace_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bdobrica/Kaiwa/common/trace"
)

func TestGenerateID(t *testing.T) {
	a, b := trace.GenerateID(), trace.GenerateID()
	if !strings.HasPrefix(a, "t_") || len(a) != 34 {
		t.Errorf("GenerateID: got %q, want t_ followed by 32 hex digits", a)
	}
	if a == b {
		t.Error("GenerateID returned the same id twice")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := trace.WithTraceID(context.Background(), "t_abc")
	if got := trace.FromContext(ctx); got != "t_abc" {
		t.Errorf("FromContext: got %q, want %q", got, "t_abc")
	}
	if got := trace.FromContext(context.Background()); got != "" {
		t.Errorf("FromContext empty: got %q, want empty", got)
	}
}

func TestFromRequestAndInject(t *testing.T) {
	in := httptest.NewRequest("POST", "/api/messages", nil)
	in.Header.Set(trace.Header, "t_upstream")
	if got := trace.FromRequest(in); got != "t_upstream" {
		t.Errorf("FromRequest: got %q, want %q", got, "t_upstream")
	}
	if got := trace.FromRequest(httptest.NewRequest("POST", "/", nil)); !strings.HasPrefix(got, "t_") {
		t.Errorf("FromRequest generated: got %q, want t_ prefix", got)
	}

	out := httptest.NewRequest("POST", "/v3/conversations", nil)
	trace.Inject(trace.WithTraceID(context.Background(), "t_abc"), out)
	if got := out.Header.Get(trace.Header); got != "t_abc" {
		t.Errorf("Inject: got %q, want %q", got, "t_abc")
	}
}
