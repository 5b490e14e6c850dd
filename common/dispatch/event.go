// Package dispatch turns a raw messaging webhook payload into an ordered list
// of classified events the bot can act on.
package dispatch

import (
	"github.com/bdobrica/Kaiwa/common/spec/messaging"
)

// Kind classifies an Event.
type Kind string

const (
	KindMessage          Kind = "message"
	KindAttachment       Kind = "attachment"
	KindContactAdded     Kind = "contactAdded"
	KindContactRemoved   Kind = "contactRemoved"
	KindHistoryDisclosed Kind = "historyDisclosed"
	KindTopicUpdated     Kind = "topicUpdated"
	KindBotAdded         Kind = "botAdded"
	KindMemberAdded      Kind = "memberAdded"
	KindBotRemoved       Kind = "botRemoved"
	KindMemberRemoved    Kind = "memberRemoved"
	KindError            Kind = "error"
)

// Event is one classified occurrence. Events derived from the same activity
// share its From, To, and Time.
type Event struct {
	Kind Kind   `json:"kind"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	Time string `json:"time,omitempty"`

	// ReplyTo is the conversation a reply should be sent to. It is empty for
	// KindMessage, where the caller picks between From and To itself.
	ReplyTo string `json:"replyTo,omitempty"`

	// Member is the added or removed participant of a membership event.
	Member string `json:"member,omitempty"`
	// Topic is the new topic of a KindTopicUpdated event.
	Topic string `json:"topic"`
	// HistoryDisclosed is the new flag of a KindHistoryDisclosed event.
	HistoryDisclosed bool `json:"historyDisclosed"`

	// Activity is the source activity. It is nil for batch-level errors.
	Activity messaging.Activity `json:"-"`

	// Err is set on KindError events. Source names the offending activity
	// kind for per-activity failures; Payload holds the original input for
	// batch-level validation failures.
	Err     error          `json:"-"`
	Error   string         `json:"error,omitempty"`
	Source  messaging.Kind `json:"source,omitempty"`
	Payload any            `json:"-"`
}

// IsError reports whether e reports a failure.
func (e Event) IsError() bool { return e.Kind == KindError }

// Message returns the source activity as a *messaging.Message, or nil.
func (e Event) Message() *messaging.Message {
	m, _ := e.Activity.(*messaging.Message)
	return m
}

// Attachment returns the source activity as a *messaging.Attachment, or nil.
func (e Event) Attachment() *messaging.Attachment {
	a, _ := e.Activity.(*messaging.Attachment)
	return a
}

func errorEvent(err error) Event {
	return Event{Kind: KindError, Err: err, Error: err.Error()}
}

func fromActivity(kind Kind, a messaging.Activity) Event {
	h := a.Header()
	return Event{
		Kind:     kind,
		From:     deref(h.From),
		To:       deref(h.To),
		Time:     deref(h.Time),
		Activity: a,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
