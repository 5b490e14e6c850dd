package calling_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/bdobrica/Kaiwa/common/spec/calling"
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

const callbackURL = "https://bot.example.com/callback"

func placeCall(t *testing.T) calling.Action {
	t.Helper()
	p, err := calling.NewPlaceCall(object(t, `{"source":{"identity":"28:bot","originator":true},"target":{"identity":"8:bob","originator":false}}`))
	if err != nil {
		t.Fatalf("NewPlaceCall: %v", err)
	}
	return p
}

// ── sequence rules ───────────────────────────────────────────────────────────

func TestValidateSequence(t *testing.T) {
	for _, tc := range []struct {
		name    string
		actions []calling.Action
		want    string
	}{
		{"reject alone", []calling.Action{calling.RejectCall()}, ""},
		{"single hangup", []calling.Action{calling.HangUp()}, ""},
		{"answer play hangup", []calling.Action{calling.AnswerWith(), calling.Play(calling.Say("hi")), calling.HangUp()}, ""},
		{"same phase", []calling.Action{calling.Play(calling.Say("a")), calling.RejectCall()}, "standalone"},
		{"hangup then answer", []calling.Action{calling.HangUp(), calling.AnswerWith()}, `action "answer" must not follow "hangup"`},
		{"reject then answer", []calling.Action{calling.RejectCall(), calling.AnswerWith()}, "standalone action(s) reject"},
		{"answer twice", []calling.Action{calling.AnswerWith(), calling.AnswerWith()}, "action(s) answer must not appear more than once"},
		{"answer and placeCall", []calling.Action{calling.AnswerWith(), placeCall(t)}, "answer and placeCall must not appear"},
	} {
		errs := calling.ValidateSequence(tc.actions, calling.DefaultPhases())
		switch {
		case tc.want == "" && len(errs) != 0:
			t.Errorf("%s: want valid, got %v", tc.name, errs)
		case tc.want != "" && !contains(errs, tc.want):
			t.Errorf("%s: got %v, want %q", tc.name, errs, tc.want)
		}
	}
}

func TestValidateSequence_OneFindingPerRule(t *testing.T) {
	errs := calling.ValidateSequence([]calling.Action{calling.AnswerWith(), calling.AnswerWith()}, calling.DefaultPhases())
	if len(errs) != 1 {
		t.Errorf("answer twice: got %v, want one finding", errs)
	}

	errs = calling.ValidateSequence([]calling.Action{calling.HangUp(), calling.AnswerWith(), calling.AnswerWith()}, calling.DefaultPhases())
	if len(errs) != 2 {
		t.Errorf("repeat and order: got %v, want two findings", errs)
	}

	errs = calling.ValidateSequence([]calling.Action{calling.RejectCall(), calling.AnswerWith()}, calling.DefaultPhases())
	if len(errs) != 2 || !contains(errs, "must not follow") {
		t.Errorf("reject then answer: got %v, want standalone and phase findings", errs)
	}
}

func TestValidateSequence_ActionFindingsFirst(t *testing.T) {
	errs := calling.ValidateSequence([]calling.Action{calling.HangUp(), calling.Play()}, calling.DefaultPhases())
	if len(errs) != 1 || errs[0] != "prompts must be set" {
		t.Errorf("got %v, want only the action finding", errs)
	}
}

func TestValidateSequence_CustomPhases(t *testing.T) {
	phases := calling.DefaultPhases()
	delete(phases, calling.ActionTransfer)
	tr, _ := calling.NewTransfer(object(t, `{"target":{"identity":"8:bob","originator":false}}`))
	errs := calling.ValidateSequence([]calling.Action{calling.AnswerWith(), tr}, phases)
	if !contains(errs, `action "transfer" has no phase`) {
		t.Errorf("got %v", errs)
	}
}

// ── workflow ─────────────────────────────────────────────────────────────────

func TestWorkflow_Validate(t *testing.T) {
	w := calling.NewWorkflowFor(callbackURL, calling.AnswerWith(calling.ModalityAudio), calling.Play(calling.Say("Hello")))
	w.NotificationSubscriptions = []calling.NotificationType{calling.NotificationCallStateChange}
	valid(t, "workflow", w)

	w.Links = map[string]string{"other": callbackURL}
	invalid(t, "no callback", w, `links must contain "callback"`)

	w.Links = nil
	invalid(t, "no links", w, "links must be set")

	empty := calling.NewWorkflowFor(callbackURL, []calling.Action{}...)
	invalid(t, "no actions", empty, "actions must not be empty")

	bad := calling.NewWorkflowFor(callbackURL, calling.HangUp())
	bad.NotificationSubscriptions = []calling.NotificationType{"typing"}
	invalid(t, "subscription", bad, "notificationSubscriptions[0] must be one of")

	long := calling.NewWorkflowFor(callbackURL, calling.HangUp())
	long.AppState = rules.Ref(strings.Repeat("s", calling.MaxAppStateLength+1))
	invalid(t, "app state", long, "appState must be at most 1024")
}

func TestWorkflow_RoundTrip(t *testing.T) {
	w := calling.NewWorkflowFor(callbackURL, calling.AnswerWith(), calling.Play(calling.Say("Hello"), calling.Silence(200)), calling.HangUp())
	w.AppState = rules.Ref("state")

	m, err := rules.ToMap(w)
	if err != nil {
		t.Fatalf("ToMap: %v", err)
	}
	again, err := calling.NewWorkflow(m)
	if err != nil {
		t.Fatalf("NewWorkflow: %v", err)
	}
	valid(t, "round trip", again)
	if len(again.Actions) != 3 {
		t.Fatalf("actions: got %d, want 3", len(again.Actions))
	}
	for i := range w.Actions {
		got, want := again.Actions[i].Header(), w.Actions[i].Header()
		if got.Kind != want.Kind || *got.OperationID != *want.OperationID {
			t.Errorf("actions[%d]: got %s/%s, want %s/%s", i, got.Kind, *got.OperationID, want.Kind, *want.OperationID)
		}
	}
}

func TestParseWorkflow(t *testing.T) {
	w, err := calling.ParseWorkflow([]byte(`{"actions":[{"action":"reject","operationId":"op-1"}],"links":{"callback":"` + callbackURL + `"}}`))
	if err != nil {
		t.Fatalf("ParseWorkflow: %v", err)
	}
	valid(t, "parsed", w)
	if _, ok := w.Actions[0].(*calling.Reject); !ok {
		t.Errorf("actions[0]: got %T, want *calling.Reject", w.Actions[0])
	}

	if _, err := calling.ParseWorkflow([]byte(`{"actions":[{"action":"dance"}]}`)); !errors.Is(err, calling.ErrUnknownKind) {
		t.Errorf("unknown action: got %v, want ErrUnknownKind", err)
	}
	if _, err := calling.ParseWorkflow([]byte(`[`)); err == nil {
		t.Error("garbage: want an error")
	}
}

// ── factories ────────────────────────────────────────────────────────────────

func TestFactories_UnknownKinds(t *testing.T) {
	if _, err := calling.NewAction(map[string]any{"action": "dance"}); !errors.Is(err, calling.ErrUnknownKind) {
		t.Errorf("NewAction: got %v", err)
	}
	if _, err := calling.NewOutcome(map[string]any{"type": "danceOutcome"}); !errors.Is(err, calling.ErrUnknownKind) {
		t.Errorf("NewOutcome: got %v", err)
	}
	if _, err := calling.NewNotification(map[string]any{"type": "dance"}); !errors.Is(err, calling.ErrUnknownKind) {
		t.Errorf("NewNotification: got %v", err)
	}
	for name, in := range map[string]any{
		"null":       nil,
		"array":      []any{},
		"missing":    map[string]any{},
		"non-string": map[string]any{"action": true},
	} {
		if _, err := calling.NewAction(in); err == nil {
			t.Errorf("NewAction(%s): want an error", name)
		}
	}
}

func TestFactories_Dispatch(t *testing.T) {
	for kind := range calling.DefaultPhases() {
		a, err := calling.NewAction(map[string]any{"action": string(kind)})
		if err != nil {
			t.Fatalf("NewAction(%s): %v", kind, err)
		}
		if a.Header().Kind != kind {
			t.Errorf("NewAction(%s): got kind %q", kind, a.Header().Kind)
		}
		if a.Standalone() != (kind == calling.ActionReject) {
			t.Errorf("NewAction(%s): Standalone() = %v", kind, a.Standalone())
		}
	}
	for _, kind := range calling.OutcomeKinds {
		o, err := calling.NewOutcome(map[string]any{"type": string(kind)})
		if err != nil {
			t.Fatalf("NewOutcome(%s): %v", kind, err)
		}
		if o.Header().Kind != kind {
			t.Errorf("NewOutcome(%s): got kind %q", kind, o.Header().Kind)
		}
	}
}

// ── outcomes ─────────────────────────────────────────────────────────────────

func TestRecordOutcome(t *testing.T) {
	ok, _ := calling.NewRecordOutcome(object(t, `{"type":"recordOutcome","id":"op","outcome":"success",
		"completionReason":"completedSilenceDetected","lengthOfRecordingInSecs":12.5,"format":"wav","transcription":"hello"}`))
	valid(t, "success", ok)
	if !ok.Succeeded() {
		t.Error("Succeeded: want true")
	}

	failed, _ := calling.NewRecordOutcome(object(t, `{"type":"recordOutcome","id":"op","outcome":"failure",
		"failureReason":"boom","completionReason":"temporarySystemFailure","transcription":"hello"}`))
	errs := failed.Validate()
	if len(errs) != 1 || errs[0] != "transcription must not be set when outcome is failure" {
		t.Errorf("failure with transcription: got %v", errs)
	}
}

func TestRecognizeOutcome(t *testing.T) {
	choice, _ := calling.NewRecognizeOutcome(object(t, `{"type":"recognizeOutcome","id":"op","outcome":"success",
		"choiceOutcome":{"completionReason":"dtmfOptionMatched","choiceName":"yes"}}`))
	valid(t, "choice", choice)

	digits, _ := calling.NewRecognizeOutcome(object(t, `{"type":"recognizeOutcome","id":"op","outcome":"success",
		"collectDigitsOutcome":{"completionReason":"completedStopToneDetected","digits":"12x"}}`))
	invalid(t, "digits", digits, "digits must contain only DTMF tones")

	none, _ := calling.NewRecognizeOutcome(object(t, `{"type":"recognizeOutcome","id":"op","outcome":"success"}`))
	invalid(t, "success without result", none, "exactly one of choiceOutcome, collectDigitsOutcome must be set on success")

	failed, _ := calling.NewRecognizeOutcome(object(t, `{"type":"recognizeOutcome","id":"op","outcome":"failure",
		"choiceOutcome":{"completionReason":"callTerminated","choiceName":"yes"}}`))
	invalid(t, "failure with choice", failed, "choiceOutcome.choiceName must not be set when outcome is failure")
}

func TestBasicOutcome(t *testing.T) {
	o, err := calling.NewOutcome(object(t, `{"type":"answerOutcome","id":"op","outcome":"failure","failureReason":"busy"}`))
	if err != nil {
		t.Fatalf("NewOutcome: %v", err)
	}
	valid(t, "answer outcome", o)
	o, _ = calling.NewOutcome(object(t, `{"type":"hangupOutcome","outcome":"maybe"}`))
	errs := o.Validate()
	if !contains(errs, "id must be set") || !contains(errs, "outcome must be one of [success, failure]") {
		t.Errorf("bad envelope: %v", errs)
	}
}

// ── conversations ────────────────────────────────────────────────────────────

const conversationDoc = `{"id":"c1","appId":"app","participants":[
	{"identity":"8:alice","displayName":"Alice","originator":true},
	{"identity":"28:bot","originator":false}],
	"isMultiparty":false,"callState":"incoming","presentedModalityTypes":["audio"]}`

func TestConversation(t *testing.T) {
	c, err := calling.NewConversation(object(t, conversationDoc))
	if err != nil {
		t.Fatalf("NewConversation: %v", err)
	}
	valid(t, "conversation", c)
	if got := c.Caller(); got == nil || *got.Identity != "8:alice" {
		t.Errorf("Caller: got %+v", got)
	}

	c.IsMultiparty = rules.Ref(true)
	invalid(t, "multiparty", c, "threadId must be set when isMultiparty is true")
	c.ThreadID = rules.Ref("19:abc@thread.skype")
	valid(t, "multiparty with thread", c)

	c.Links = map[string]string{"null": callbackURL}
	invalid(t, "links", c, `links key "null" is not allowed`)
}

func TestConversationResult(t *testing.T) {
	r, err := calling.NewConversationResult(object(t, `{"id":"c1","callState":"established",
		"operationOutcome":{"type":"playPromptOutcome","id":"op","outcome":"success"}}`))
	if err != nil {
		t.Fatalf("NewConversationResult: %v", err)
	}
	valid(t, "result", r)

	_, err = calling.NewConversationResult(object(t, `{"id":"c1","operationOutcome":{"type":"danceOutcome"}}`))
	if !errors.Is(err, calling.ErrUnknownKind) {
		t.Errorf("unknown outcome: got %v, want ErrUnknownKind", err)
	}

	missing, _ := calling.NewConversationResult(object(t, `{"id":"c1"}`))
	invalid(t, "no outcome", missing, "operationOutcome must be set")
}

// ── notifications ────────────────────────────────────────────────────────────

func TestNotifications(t *testing.T) {
	n, err := calling.NewNotification(object(t, `{"id":"c1","type":"callStateChange","currentState":"terminated"}`))
	if err != nil {
		t.Fatalf("NewNotification: %v", err)
	}
	valid(t, "call state", n)

	r, _ := calling.NewNotification(object(t, `{"id":"c1","type":"rosterUpdate","participants":[
		{"identity":"8:alice","mediaType":"audio","mediaStreamDirection":"sendReceive"},
		{"identity":"8:bob","mediaType":"unknown","mediaStreamDirection":"inactive"}]}`))
	invalid(t, "roster", r, `mediaType must not be "unknown"`)

	empty, _ := calling.NewNotification(object(t, `{"id":"c1","type":"rosterUpdate","participants":[]}`))
	valid(t, "empty roster", empty)
}
