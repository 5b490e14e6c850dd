package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bdobrica/Kaiwa/common/retry"
	"github.com/bdobrica/Kaiwa/common/spec/messaging"
	"github.com/bdobrica/Kaiwa/common/trace"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/auth"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/transport"
)

var fast = retry.Policy{Attempts: 3, Base: time.Millisecond, Cap: time.Millisecond}

func newClient(url string, tokens auth.TokenProvider) *transport.Client {
	return transport.New(transport.Config{ServiceURL: url + "/", Retry: fast}, tokens)
}

// ── SendMessage ──────────────────────────────────────────────────────────────

func TestSendMessage(t *testing.T) {
	var gotPath, gotAuth, gotTrace string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotTrace = r.Header.Get(trace.Header)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ctx := trace.WithTraceID(context.Background(), "t_send")
	if err := newClient(srv.URL, auth.Static("tok")).SendText(ctx, "8:alice", "hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if gotPath != "/v3/conversations/8:alice/activities" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization: got %q, want %q", gotAuth, "Bearer tok")
	}
	if gotTrace != "t_send" {
		t.Errorf("trace header: got %q, want t_send", gotTrace)
	}
	msg, _ := gotBody["message"].(map[string]any)
	if msg["content"] != "hi" {
		t.Errorf("body: got %v", gotBody)
	}
}

func TestSendMessage_RejectsInvalidPayloadLocally(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	err := newClient(srv.URL, auth.Static("tok")).SendText(context.Background(), "8:alice", "")
	if !errors.Is(err, transport.ErrInvalidPayload) {
		t.Errorf("err: got %v, want ErrInvalidPayload", err)
	}
	if calls.Load() != 0 {
		t.Error("invalid payload reached the server")
	}
}

func TestSendMessage_RefreshesRejectedToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tokens := &countingTokens{}
	if err := newClient(srv.URL, tokens).SendText(context.Background(), "8:alice", "hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if tokens.invalidated != 1 {
		t.Errorf("Invalidate calls: got %d, want 1", tokens.invalidated)
	}
}

func TestSendMessage_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newClient(srv.URL, auth.Static("tok")).SendText(context.Background(), "8:alice", "hi")
	var se *retry.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Errorf("err: got %v, want StatusError 400", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}

type countingTokens struct {
	invalidated int
}

func (c *countingTokens) Token(context.Context) (string, error) { return "tok", nil }
func (c *countingTokens) Invalidate()                          { c.invalidated++ }

// ── attachments ──────────────────────────────────────────────────────────────

func TestSendAttachment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/conversations/8:alice/attachments" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["type"] != "Image" || body["originalBase64"] != "aGVsbG8=" {
			t.Errorf("body: got %v", body)
		}
		_, _ = io.WriteString(w, `{"id":"0-weu-d1-abc"}`)
	}))
	defer srv.Close()

	a := messaging.EncodeAttachment(messaging.AttachmentImage, "pic.png", []byte("hello"), nil)
	resp, err := newClient(srv.URL, auth.Static("tok")).SendAttachment(context.Background(), "8:alice", a)
	if err != nil {
		t.Fatalf("SendAttachment: %v", err)
	}
	if resp.ID == nil || *resp.ID != "0-weu-d1-abc" {
		t.Errorf("ID: got %v, want 0-weu-d1-abc", resp.ID)
	}
}

func TestSendAttachment_InvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	a := messaging.EncodeAttachment(messaging.AttachmentImage, "", []byte("hello"), nil)
	_, err := newClient(srv.URL, auth.Static("tok")).SendAttachment(context.Background(), "8:alice", a)
	if !errors.Is(err, transport.ErrInvalidResponse) {
		t.Errorf("err: got %v, want ErrInvalidResponse", err)
	}
}

func TestGetAttachmentInfoAndView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/attachments/a1":
			_, _ = io.WriteString(w, `{"name":"pic.png","type":"Image","views":[{"view_id":"original","size":5}]}`)
		case "/v3/attachments/a1/views/original":
			_, _ = io.WriteString(w, "hello")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newClient(srv.URL, auth.Static("tok"))
	info, err := c.GetAttachmentInfo(context.Background(), "a1")
	if err != nil {
		t.Fatalf("GetAttachmentInfo: %v", err)
	}
	if v := info.Views[0]; v.Size == nil || *v.Size != 5 {
		t.Errorf("view size: got %v, want 5", v.Size)
	}
	data, err := c.GetAttachmentView(context.Background(), "a1", messaging.ViewOriginal)
	if err != nil {
		t.Fatalf("GetAttachmentView: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("view: got %q, want hello", data)
	}
	if _, err := c.GetAttachmentView(context.Background(), "a1", messaging.ViewThumbnail); err == nil {
		t.Error("missing view: expected error, got nil")
	} else if !strings.Contains(err.Error(), "404") {
		t.Errorf("missing view: got %v, want a 404 error", err)
	}
}
