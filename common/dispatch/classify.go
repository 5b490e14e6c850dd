package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bdobrica/Kaiwa/common/spec/messaging"
)

// ErrInvalidBatch wraps the validation findings of a rejected batch.
var ErrInvalidBatch = errors.New("invalid activity batch")

// Classifier converts webhook payloads into events.
type Classifier struct {
	// BotID is the bot's own id, used to tell the bot apart from other
	// members in membership changes.
	BotID string
	// Workers bounds how many activities of one batch are classified
	// concurrently. Values below 2 classify sequentially.
	Workers int
}

// New returns a sequential Classifier for botID.
func New(botID string) *Classifier {
	return &Classifier{BotID: botID}
}

// Classify accepts a raw JSON body ([]byte or string), an already decoded
// JSON array, or a constructed *messaging.Activities.
//
// A payload that cannot be parsed, or a batch that fails validation, yields
// exactly one KindError event and nothing else. Otherwise every activity is
// classified in order; an activity that fails to classify yields a
// KindError event in its place without affecting its siblings.
func (c *Classifier) Classify(payload any) []Event {
	batch, err := toBatch(payload)
	if err != nil {
		return []Event{errorEvent(err)}
	}
	if problems := batch.Validate(); len(problems) > 0 {
		ev := errorEvent(fmt.Errorf("%w: %s", ErrInvalidBatch, strings.Join(problems, "; ")))
		ev.Payload = payload
		return []Event{ev}
	}

	results := make([][]Event, len(batch.Items))
	if c.Workers < 2 || len(batch.Items) < 2 {
		for i, a := range batch.Items {
			results[i] = c.classifyOne(a)
		}
	} else {
		sem := make(chan struct{}, c.Workers)
		var wg sync.WaitGroup
		for i, a := range batch.Items {
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				results[i] = c.classifyOne(a)
			}()
		}
		wg.Wait()
	}

	var out []Event
	for _, evs := range results {
		out = append(out, evs...)
	}
	return out
}

func toBatch(payload any) (*messaging.Activities, error) {
	switch p := payload.(type) {
	case *messaging.Activities:
		if p == nil {
			return nil, fmt.Errorf("activities must not be null")
		}
		return p, nil
	case []byte:
		return messaging.ParseActivities(p)
	case string:
		return messaging.ParseActivities([]byte(p))
	case json.RawMessage:
		return messaging.ParseActivities(p)
	default:
		return messaging.NewActivities(payload)
	}
}

// classifyOne never panics; a failure while converting an activity becomes a
// scoped error event.
func (c *Classifier) classifyOne(a messaging.Activity) (evs []Event) {
	defer func() {
		if r := recover(); r != nil {
			kind := sourceKind(a)
			ev := errorEvent(fmt.Errorf("classify %q activity: %v", kind, r))
			ev.Source = kind
			ev.Activity = a
			evs = []Event{ev}
		}
	}()

	switch act := a.(type) {
	case *messaging.Message:
		return []Event{fromActivity(KindMessage, act)}
	case *messaging.Attachment:
		ev := fromActivity(KindAttachment, act)
		if messaging.IsGroupID(ev.To) {
			ev.ReplyTo = ev.To
		} else {
			ev.ReplyTo = ev.From
		}
		return []Event{ev}
	case *messaging.ContactRelationUpdate:
		return contactEvents(act)
	case *messaging.ConversationUpdate:
		return c.conversationEvents(act)
	default:
		panic(fmt.Sprintf("unsupported activity type %T", a))
	}
}

// sourceKind returns the discriminant of a, or "" when a cannot report one.
func sourceKind(a messaging.Activity) (kind messaging.Kind) {
	defer func() { _ = recover() }()
	if a == nil {
		return ""
	}
	if h := a.Header(); h != nil {
		kind = h.Kind
	}
	return kind
}

func contactEvents(u *messaging.ContactRelationUpdate) []Event {
	if u.Action == nil {
		return nil
	}
	var kind Kind
	switch *u.Action {
	case messaging.ContactAdd:
		kind = KindContactAdded
	case messaging.ContactRemove:
		kind = KindContactRemoved
	default:
		return nil
	}
	ev := fromActivity(kind, u)
	ev.ReplyTo = ev.From
	return []Event{ev}
}

// conversationEvents fans one update out in a fixed order: history
// disclosure, topic, added members, removed members.
func (c *Classifier) conversationEvents(u *messaging.ConversationUpdate) []Event {
	var out []Event
	replyTo := deref(u.To)
	emit := func(kind Kind, fill func(*Event)) {
		ev := fromActivity(kind, u)
		ev.ReplyTo = replyTo
		fill(&ev)
		out = append(out, ev)
	}

	if u.HistoryDisclosed != nil {
		emit(KindHistoryDisclosed, func(ev *Event) { ev.HistoryDisclosed = *u.HistoryDisclosed })
	}
	if u.TopicName != nil {
		emit(KindTopicUpdated, func(ev *Event) { ev.Topic = *u.TopicName })
	}
	for _, m := range u.MembersAdded {
		kind := KindMemberAdded
		if m == c.BotID {
			kind = KindBotAdded
		}
		emit(kind, func(ev *Event) { ev.Member = m })
	}
	for _, m := range u.MembersRemoved {
		kind := KindMemberRemoved
		if m == c.BotID {
			kind = KindBotRemoved
		}
		emit(kind, func(ev *Event) { ev.Member = m })
	}
	return out
}
