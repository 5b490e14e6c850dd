package dispatch_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bdobrica/Kaiwa/common/dispatch"
	"github.com/bdobrica/Kaiwa/common/spec/messaging"
)

const botID = "28:bot"

const header = `"from":"8:alice","to":"19:abc@thread.skype","time":"2016-05-18T10:00:00Z"`

func kinds(evs []dispatch.Event) []dispatch.Kind {
	out := make([]dispatch.Kind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func sameKinds(t *testing.T, evs []dispatch.Event, want ...dispatch.Kind) {
	t.Helper()
	got := kinds(evs)
	if len(got) != len(want) {
		t.Fatalf("kinds: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds: got %v, want %v", got, want)
		}
	}
}

// ── conversation updates ─────────────────────────────────────────────────────

func TestClassify_ConversationUpdate(t *testing.T) {
	body := `[{"activity":"conversationUpdate",` + header + `,"topicName":"Weekly","membersAdded":["28:bot","8:bob"]}]`
	evs := dispatch.New(botID).Classify(body)

	sameKinds(t, evs, dispatch.KindTopicUpdated, dispatch.KindBotAdded, dispatch.KindMemberAdded)
	if evs[0].Topic != "Weekly" {
		t.Errorf("topic: got %q, want Weekly", evs[0].Topic)
	}
	if evs[1].Member != "28:bot" || evs[2].Member != "8:bob" {
		t.Errorf("members: got %q, %q", evs[1].Member, evs[2].Member)
	}
	for i, ev := range evs {
		if ev.ReplyTo != "19:abc@thread.skype" || ev.From != "8:alice" || ev.Time != "2016-05-18T10:00:00Z" {
			t.Errorf("evs[%d]: got %+v", i, ev)
		}
		if ev.Activity == nil {
			t.Errorf("evs[%d]: want the source activity", i)
		}
	}
}

func TestClassify_ConversationUpdateOrder(t *testing.T) {
	body := `[{"activity":"conversationUpdate",` + header + `,
		"membersRemoved":["8:carol","28:bot"],"membersAdded":["8:bob"],"topicName":"","historyDisclosed":true}]`
	evs := dispatch.New(botID).Classify(body)
	sameKinds(t, evs,
		dispatch.KindHistoryDisclosed, dispatch.KindTopicUpdated, dispatch.KindMemberAdded,
		dispatch.KindMemberRemoved, dispatch.KindBotRemoved)
	if !evs[0].HistoryDisclosed {
		t.Error("historyDisclosed: want true")
	}
}

// ── contacts, messages, attachments ──────────────────────────────────────────

func TestClassify_Contacts(t *testing.T) {
	body := `[
		{"activity":"contactRelationUpdate","from":"8:alice","to":"28:bot","time":"2016-05-18T10:00:00Z","action":"add"},
		{"activity":"contactRelationUpdate","from":"8:bob","to":"28:bot","time":"2016-05-18T10:00:01Z","action":"remove"}]`
	evs := dispatch.New(botID).Classify(body)
	sameKinds(t, evs, dispatch.KindContactAdded, dispatch.KindContactRemoved)
	if evs[0].ReplyTo != "8:alice" || evs[1].ReplyTo != "8:bob" {
		t.Errorf("replyTo: got %q, %q", evs[0].ReplyTo, evs[1].ReplyTo)
	}
}

func TestClassify_Message(t *testing.T) {
	body := `[{"activity":"message","id":"m1",` + header + `,"content":"hello"}]`
	evs := dispatch.New(botID).Classify([]byte(body))
	sameKinds(t, evs, dispatch.KindMessage)
	if m := evs[0].Message(); m == nil || *m.Content != "hello" {
		t.Errorf("Message(): got %+v", m)
	}
	if evs[0].ReplyTo != "" {
		t.Errorf("replyTo: got %q, want empty for messages", evs[0].ReplyTo)
	}
	if evs[0].Attachment() != nil {
		t.Error("Attachment(): want nil for a message")
	}
}

func TestClassify_AttachmentReplyTo(t *testing.T) {
	const views = `"id":"a1","type":"Image","views":[{"view_id":"original","size":10}]`
	for _, tc := range []struct {
		to   string
		want string
	}{
		{"19:abc@thread.skype", "19:abc@thread.skype"},
		{"28:bot", "8:alice"},
	} {
		body := fmt.Sprintf(`[{"activity":"attachment","from":"8:alice","to":%q,"time":"2016-05-18T10:00:00Z",%s}]`, tc.to, views)
		evs := dispatch.New(botID).Classify(body)
		sameKinds(t, evs, dispatch.KindAttachment)
		if evs[0].ReplyTo != tc.want {
			t.Errorf("to %s: replyTo got %q, want %q", tc.to, evs[0].ReplyTo, tc.want)
		}
		if evs[0].Attachment() == nil {
			t.Errorf("to %s: Attachment() is nil", tc.to)
		}
	}
}

// ── failures ─────────────────────────────────────────────────────────────────

func TestClassify_ParseError(t *testing.T) {
	for name, payload := range map[string]any{
		"garbage": `[{"activity":`,
		"object":  `{"activity":"message"}`,
		"unknown": `[{"activity":"typing"}]`,
		"nil":     (*messaging.Activities)(nil),
	} {
		evs := dispatch.New(botID).Classify(payload)
		if len(evs) != 1 || !evs[0].IsError() {
			t.Errorf("%s: got %v, want a single error event", name, kinds(evs))
			continue
		}
		if evs[0].Err == nil || evs[0].Error == "" {
			t.Errorf("%s: error event without an error", name)
		}
	}
}

func TestClassify_ValidationError(t *testing.T) {
	body := `[{"activity":"message","id":"m1",` + header + `,"content":"ok"},{"activity":"message","from":"8:alice"}]`
	evs := dispatch.New(botID).Classify(body)
	if len(evs) != 1 || !evs[0].IsError() {
		t.Fatalf("got %v, want a single error event", kinds(evs))
	}
	if !errors.Is(evs[0].Err, dispatch.ErrInvalidBatch) {
		t.Errorf("Err: got %v, want ErrInvalidBatch", evs[0].Err)
	}
	if !strings.Contains(evs[0].Error, "to must be set") {
		t.Errorf("Error: got %q, want the findings", evs[0].Error)
	}
	if evs[0].Payload != body {
		t.Errorf("Payload: got %v, want the original input", evs[0].Payload)
	}
}

func TestClassify_EmptyBatch(t *testing.T) {
	if evs := dispatch.New(botID).Classify(`[]`); len(evs) != 0 {
		t.Errorf("empty batch: got %v", kinds(evs))
	}
}

// unsupportedActivity validates cleanly but is not a kind the classifier
// can convert.
type unsupportedActivity struct {
	messaging.Base
}

func (u *unsupportedActivity) Validate() []string { return nil }

// headlessActivity reports no header at all.
type headlessActivity struct{}

func (headlessActivity) Validate() []string      { return nil }
func (headlessActivity) Header() *messaging.Base { return nil }

func validMessage(t *testing.T) messaging.Activity {
	t.Helper()
	batch, err := messaging.ParseActivities([]byte(`[{"activity":"message","id":"m1",` + header + `,"content":"after"}]`))
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return batch.Items[0]
}

func TestClassify_ActivityFailureIsIsolated(t *testing.T) {
	for _, workers := range []int{0, 4} {
		c := &dispatch.Classifier{BotID: botID, Workers: workers}
		batch := &messaging.Activities{Items: []messaging.Activity{
			&unsupportedActivity{Base: messaging.Base{Kind: "custom"}},
			validMessage(t),
		}}
		evs := c.Classify(batch)
		sameKinds(t, evs, dispatch.KindError, dispatch.KindMessage)
		if evs[0].Source != "custom" {
			t.Errorf("workers=%d source: got %q, want custom", workers, evs[0].Source)
		}
		if !strings.Contains(evs[0].Error, "custom") {
			t.Errorf("workers=%d error: got %q, want it to name the kind", workers, evs[0].Error)
		}
		if m := evs[1].Message(); m == nil || *m.Content != "after" {
			t.Errorf("workers=%d: the following message was not classified", workers)
		}
	}
}

func TestClassify_HeadlessActivityIsIsolated(t *testing.T) {
	batch := &messaging.Activities{Items: []messaging.Activity{headlessActivity{}, validMessage(t)}}
	evs := dispatch.New(botID).Classify(batch)
	sameKinds(t, evs, dispatch.KindError, dispatch.KindMessage)
	if evs[0].Source != "" {
		t.Errorf("source: got %q, want empty", evs[0].Source)
	}
}

func TestClassify_NilItemsFailTheBatch(t *testing.T) {
	var typedNil *messaging.Message
	for name, items := range map[string][]messaging.Activity{
		"nil":       {nil},
		"typed nil": {validMessage(t), typedNil},
	} {
		evs := dispatch.New(botID).Classify(&messaging.Activities{Items: items})
		if len(evs) != 1 || evs[0].Kind != dispatch.KindError {
			t.Fatalf("%s: got %v, want a single error", name, kinds(evs))
		}
		if !errors.Is(evs[0].Err, dispatch.ErrInvalidBatch) || !strings.Contains(evs[0].Error, "must be set") {
			t.Errorf("%s: got %v", name, evs[0].Err)
		}
	}
}

// ── inputs and concurrency ───────────────────────────────────────────────────

func TestClassify_Inputs(t *testing.T) {
	body := `[{"activity":"contactRelationUpdate","from":"8:alice","to":"28:bot","time":"2016-05-18T10:00:00Z","action":"add"}]`

	var decoded any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	batch, err := messaging.ParseActivities([]byte(body))
	if err != nil {
		t.Fatalf("ParseActivities: %v", err)
	}

	for name, payload := range map[string]any{
		"string":     body,
		"bytes":      []byte(body),
		"raw":        json.RawMessage(body),
		"decoded":    decoded,
		"activities": batch,
	} {
		evs := dispatch.New(botID).Classify(payload)
		if len(evs) != 1 || evs[0].Kind != dispatch.KindContactAdded {
			t.Errorf("%s: got %v", name, kinds(evs))
		}
	}
}

func TestClassify_WorkersPreserveOrder(t *testing.T) {
	var items []string
	var want []dispatch.Kind
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			items = append(items, fmt.Sprintf(`{"activity":"message","id":"m%d",%s,"content":"n%d"}`, i, header, i))
			want = append(want, dispatch.KindMessage)
		} else {
			items = append(items, fmt.Sprintf(`{"activity":"conversationUpdate",%s,"topicName":"t%d","membersAdded":["8:u%d"]}`, header, i, i))
			want = append(want, dispatch.KindTopicUpdated, dispatch.KindMemberAdded)
		}
	}
	body := "[" + strings.Join(items, ",") + "]"

	c := &dispatch.Classifier{BotID: botID, Workers: 8}
	evs := c.Classify(body)
	sameKinds(t, evs, want...)

	n := 0
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			if got := *evs[n].Message().Content; got != fmt.Sprintf("n%d", i) {
				t.Errorf("evs[%d]: got content %q, want n%d", n, got, i)
			}
			n++
			continue
		}
		if evs[n].Topic != fmt.Sprintf("t%d", i) || evs[n+1].Member != fmt.Sprintf("8:u%d", i) {
			t.Errorf("evs[%d..%d]: got %q %q", n, n+1, evs[n].Topic, evs[n+1].Member)
		}
		n += 2
	}
}

// ── events ───────────────────────────────────────────────────────────────────

func TestEvent_JSON(t *testing.T) {
	evs := dispatch.New(botID).Classify(`[{"activity":"conversationUpdate",` + header + `,"membersAdded":["28:bot"]}]`)
	data, err := json.Marshal(evs[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["kind"] != "botAdded" || got["member"] != "28:bot" || got["replyTo"] != "19:abc@thread.skype" {
		t.Errorf("JSON: got %s", data)
	}
	if _, ok := got["error"]; ok {
		t.Errorf("JSON: unexpected error field in %s", data)
	}
}

func TestEvent_JSONKeepsFalseAndEmptyValues(t *testing.T) {
	evs := dispatch.New(botID).Classify(`[{"activity":"conversationUpdate",` + header + `,"historyDisclosed":false,"topicName":""}]`)
	sameKinds(t, evs, dispatch.KindHistoryDisclosed, dispatch.KindTopicUpdated)
	for _, tc := range []struct {
		ev   dispatch.Event
		key  string
		want any
	}{
		{evs[0], "historyDisclosed", false},
		{evs[1], "topic", ""},
	} {
		data, err := json.Marshal(tc.ev)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if v, ok := got[tc.key]; !ok || v != tc.want {
			t.Errorf("%s: got %s, want %s=%v", tc.ev.Kind, data, tc.key, tc.want)
		}
	}
}
