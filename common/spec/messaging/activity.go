// Package messaging defines the typed wire model of the chat side of the bot
// platform: the activities delivered to the bot's messaging webhook and the
// payloads the bot sends back.
//
// Every model is built from an untyped JSON object by its New* constructor and
// checks itself with Validate, which returns all findings at once.
package messaging

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// Kind is the activity discriminant carried in the "activity" field.
type Kind string

const (
	KindMessage               Kind = "message"
	KindAttachment            Kind = "attachment"
	KindContactRelationUpdate Kind = "contactRelationUpdate"
	KindConversationUpdate    Kind = "conversationUpdate"
)

// Kinds lists every activity kind the bot understands.
var Kinds = []Kind{KindMessage, KindAttachment, KindContactRelationUpdate, KindConversationUpdate}

// ErrUnknownKind is returned by NewActivity for an unrecognised discriminant.
var ErrUnknownKind = errors.New("unknown activity kind")

// timestampPattern accepts RFC 3339 date-times only (no week or ordinal dates,
// no missing offset).
var timestampPattern = regexp.MustCompile(
	`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])T([01]\d|2[0-3]):[0-5]\d:[0-5]\d(\.\d+)?(Z|[+-]([01]\d|2[0-3]):[0-5]\d)$`)

// Activity is one inbound webhook record.
type Activity interface {
	rules.Validator
	// Header returns the fields shared by every activity kind.
	Header() *Base
}

// Base holds the fields shared by every activity kind.
type Base struct {
	rules.Decoded

	Kind Kind    `json:"activity"`
	From *string `json:"from,omitempty"`
	To   *string `json:"to,omitempty"`
	Time *string `json:"time,omitempty"`
}

// Header implements Activity.
func (b *Base) Header() *Base { return b }

func (b *Base) read(f *rules.Fields) {
	var kind *Kind
	rules.ReadEnum(f, "activity", &kind)
	if kind != nil {
		b.Kind = *kind
	}
	f.String("from", &b.From)
	f.String("to", &b.To)
	f.String("time", &b.Time)
}

// Validate checks the shared activity fields.
func (b *Base) Validate() []string {
	errs := append([]string(nil), b.DecodeProblems()...)
	errs = append(errs, rules.Enum("activity", &b.Kind, Kinds)...)
	errs = append(errs, rules.String("from", b.From, rules.StringOpts{})...)
	errs = append(errs, rules.String("to", b.To, rules.StringOpts{})...)
	errs = append(errs, rules.Pattern("time", b.Time, timestampPattern, "an ISO-8601 timestamp")...)
	return errs
}

func (b *Base) checkKind(want Kind) []string {
	if b.Kind != want {
		return []string{fmt.Sprintf("activity must be %q for this type, got %q", want, b.Kind)}
	}
	return nil
}

// NewActivity inspects the "activity" discriminant of v and constructs the
// matching concrete type. Unrecognised kinds are rejected with ErrUnknownKind.
func NewActivity(v any) (Activity, error) {
	m, err := rules.AsObject(v)
	if err != nil {
		return nil, fmt.Errorf("activity: %w", err)
	}
	raw, ok := m["activity"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("activity: missing discriminant field %q", "activity")
	}
	kind, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("activity: discriminant field %q must be a string", "activity")
	}

	switch Kind(kind) {
	case KindMessage:
		return NewMessage(m)
	case KindAttachment:
		return NewAttachment(m)
	case KindContactRelationUpdate:
		return NewContactRelationUpdate(m)
	case KindConversationUpdate:
		return NewConversationUpdate(m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
