package webhook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bdobrica/Kaiwa/common/dispatch"
	"github.com/bdobrica/Kaiwa/common/spec/calling"
	"github.com/bdobrica/Kaiwa/common/trace"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/webhook"
)

// ── fakes ────────────────────────────────────────────────────────────────────

type fakeEvents struct {
	mu     sync.Mutex
	events []dispatch.Event
	err    error
	calls  int
}

func (f *fakeEvents) HandleEvents(_ context.Context, evs []dispatch.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.events = append(f.events, evs...)
	return f.err
}

type fakeCalls struct {
	workflow     *calling.Workflow
	result       *calling.ConversationResult
	notification calling.Notification
	conv         *calling.Conversation
}

func (f *fakeCalls) HandleCall(_ context.Context, c *calling.Conversation) (*calling.Workflow, error) {
	f.conv = c
	return f.workflow, nil
}

func (f *fakeCalls) HandleResult(_ context.Context, r *calling.ConversationResult) (*calling.Workflow, error) {
	f.result = r
	return nil, nil
}

func (f *fakeCalls) HandleNotification(_ context.Context, n calling.Notification) error {
	f.notification = n
	return nil
}

type fakeJournal struct {
	events    int
	callbacks []string
}

func (j *fakeJournal) RecordEvents(_ context.Context, _ string, evs []dispatch.Event) error {
	j.events += len(evs)
	return nil
}

func (j *fakeJournal) RecordCallback(_ context.Context, _, kind, _ string, _ []byte) error {
	j.callbacks = append(j.callbacks, kind)
	return nil
}

type harness struct {
	mux     *http.ServeMux
	events  *fakeEvents
	calls   *fakeCalls
	journal *fakeJournal
}

func newHarness(cfg webhook.Config) *harness {
	h := &harness{
		mux:     http.NewServeMux(),
		events:  &fakeEvents{},
		calls:   &fakeCalls{},
		journal: &fakeJournal{},
	}
	if cfg.BotID == "" {
		cfg.BotID = "28:bot"
	}
	webhook.New(cfg, h.events, h.calls, h.journal).RegisterRoutes(h.mux)
	return h
}

func (h *harness) post(path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

const batch = `[{"activity":"conversationUpdate","from":"A","to":"B","time":"2024-01-01T00:00:00Z",
  "membersAdded":["28:bot","8:alice"],"topicName":"hi"}]`

// ── /api/messages ────────────────────────────────────────────────────────────

func TestMessages_ClassifiesAndDelivers(t *testing.T) {
	h := newHarness(webhook.Config{})
	rec := h.post("/api/messages", "application/json", []byte(batch))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rec.Code, rec.Body)
	}
	want := []dispatch.Kind{dispatch.KindTopicUpdated, dispatch.KindBotAdded, dispatch.KindMemberAdded}
	if len(h.events.events) != len(want) {
		t.Fatalf("events: got %d, want %d", len(h.events.events), len(want))
	}
	for i, k := range want {
		if got := h.events.events[i].Kind; got != k {
			t.Errorf("events[%d]: got %q, want %q", i, got, k)
		}
	}
	if h.journal.events != 3 {
		t.Errorf("journaled events: got %d, want 3", h.journal.events)
	}
	if rec.Header().Get(trace.Header) == "" {
		t.Error("response carries no trace id")
	}
}

func TestMessages_RejectsInvalidBatch(t *testing.T) {
	h := newHarness(webhook.Config{})
	for _, body := range []string{`{"activity":"message"}`, `not json`, `[{"activity":"message"}]`} {
		rec := h.post("/api/messages", "application/json", []byte(body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status got %d, want 400", body, rec.Code)
		}
	}
	if h.events.calls != 0 {
		t.Errorf("handler calls: got %d, want 0", h.events.calls)
	}
}

func TestMessages_HandlerError(t *testing.T) {
	h := newHarness(webhook.Config{})
	h.events.err = errors.New("downstream")
	if rec := h.post("/api/messages", "", []byte(batch)); rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

func TestMessages_BodyCap(t *testing.T) {
	h := newHarness(webhook.Config{MaxBodyBytes: 16})
	if rec := h.post("/api/messages", "", []byte(batch)); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", rec.Code)
	}
}

func TestMessages_RateLimit(t *testing.T) {
	h := newHarness(webhook.Config{RateLimit: 1})
	if rec := h.post("/api/messages", "", []byte(batch)); rec.Code != http.StatusCreated {
		t.Fatalf("first: got %d, want 201", rec.Code)
	}
	if rec := h.post("/api/messages", "", []byte(batch)); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second: got %d, want 429", rec.Code)
	}
}

func TestMessages_WrongMethod(t *testing.T) {
	h := newHarness(webhook.Config{})
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}

// ── /api/calling/call ────────────────────────────────────────────────────────

const incomingCall = `{"id":"call-1","participants":[{"identity":"8:alice","originator":true},
  {"identity":"28:bot","originator":false}],"isMultiparty":false,"callState":"incoming",
  "presentedModalityTypes":["audio"]}`

func TestCall_AnswersWithWorkflow(t *testing.T) {
	h := newHarness(webhook.Config{})
	h.calls.workflow = calling.NewWorkflowFor("https://bot.example.com/api/calling/callback",
		calling.AnswerWith(calling.ModalityAudio),
		calling.Play(calling.Say("hello")),
		calling.HangUp(),
	)
	rec := h.post("/api/calling/call", "application/json", []byte(incomingCall))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body)
	}
	if h.calls.conv == nil || *h.calls.conv.ID != "call-1" {
		t.Fatalf("conversation not delivered: %+v", h.calls.conv)
	}
	var got struct {
		Actions []map[string]any  `json:"actions"`
		Links   map[string]string `json:"links"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode workflow: %v", err)
	}
	if len(got.Actions) != 3 || got.Actions[0]["action"] != "answer" || got.Actions[2]["action"] != "hangup" {
		t.Errorf("actions: got %v", got.Actions)
	}
	if got.Links["callback"] == "" {
		t.Errorf("links: got %v, want a callback", got.Links)
	}
}

func TestCall_RejectsInvalidConversation(t *testing.T) {
	h := newHarness(webhook.Config{})
	body := strings.Replace(incomingCall, `"isMultiparty":false`, `"isMultiparty":true`, 1)
	rec := h.post("/api/calling/call", "application/json", []byte(body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "threadId") {
		t.Errorf("body: got %q, want it to name threadId", rec.Body)
	}
	if h.calls.conv != nil {
		t.Error("invalid conversation reached the handler")
	}
}

func TestCall_InvalidWorkflowIsNotSent(t *testing.T) {
	h := newHarness(webhook.Config{})
	h.calls.workflow = calling.NewWorkflowFor("https://bot/cb", calling.HangUp(), calling.AnswerWith())
	if rec := h.post("/api/calling/call", "", []byte(incomingCall)); rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

// ── /api/calling/callback ────────────────────────────────────────────────────

const recordResult = `{"id":"call-1","callState":"established","operationOutcome":{
  "type":"recordOutcome","id":"op-1","outcome":"success","completionReason":"completedSilenceDetected",
  "lengthOfRecordingInSecs":12.5,"format":"wav"}}`

func TestCallback_Result(t *testing.T) {
	h := newHarness(webhook.Config{})
	rec := h.post("/api/calling/callback", "application/json", []byte(recordResult))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204 (%s)", rec.Code, rec.Body)
	}
	out, ok := h.calls.result.OperationOutcome.(*calling.RecordOutcome)
	if !ok {
		t.Fatalf("outcome: got %T, want *calling.RecordOutcome", h.calls.result.OperationOutcome)
	}
	if !out.Succeeded() {
		t.Error("outcome should be a success")
	}
}

func TestCallback_MultipartRecording(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormField("conversationResult")
	_, _ = part.Write([]byte(recordResult))
	audio, _ := mw.CreateFormFile("recordedAudio", "audio.wav")
	_, _ = audio.Write([]byte("RIFF...."))
	_ = mw.Close()

	h := newHarness(webhook.Config{})
	rec := h.post("/api/calling/callback", mw.FormDataContentType(), buf.Bytes())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204 (%s)", rec.Code, rec.Body)
	}
	if got := string(h.calls.result.RecordedAudio); got != "RIFF...." {
		t.Errorf("RecordedAudio: got %q, want %q", got, "RIFF....")
	}
}

func TestCallback_UnknownOutcomeKind(t *testing.T) {
	h := newHarness(webhook.Config{})
	body := strings.Replace(recordResult, "recordOutcome", "danceOutcome", 1)
	if rec := h.post("/api/calling/callback", "application/json", []byte(body)); rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestCallback_Notification(t *testing.T) {
	h := newHarness(webhook.Config{})
	body := `{"id":"call-1","type":"callStateChange","currentState":"terminated"}`
	rec := h.post("/api/calling/callback", "application/json", []byte(body))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204 (%s)", rec.Code, rec.Body)
	}
	n, ok := h.calls.notification.(*calling.CallStateChangeNotification)
	if !ok || *n.CurrentState != calling.CallTerminated {
		t.Errorf("notification: got %#v", h.calls.notification)
	}
	if len(h.journal.callbacks) != 1 || h.journal.callbacks[0] != "notification" {
		t.Errorf("journal: got %v, want [notification]", h.journal.callbacks)
	}
}
