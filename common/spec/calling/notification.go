package calling

import (
	"fmt"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// NotificationType is the notification discriminant carried in the "type"
// field. Workflows subscribe to notifications by type.
type NotificationType string

const (
	NotificationCallStateChange NotificationType = "callStateChange"
	NotificationRosterUpdate    NotificationType = "rosterUpdate"
)

// NotificationTypes lists every notification type.
var NotificationTypes = []NotificationType{NotificationCallStateChange, NotificationRosterUpdate}

// Notification is an unsolicited update about an ongoing call.
type Notification interface {
	rules.Validator
	// Header returns the fields shared by every notification type.
	Header() *NotificationBase
}

// NotificationBase holds the fields shared by every notification type.
type NotificationBase struct {
	ConversationBase

	Type NotificationType `json:"type"`
}

// Header implements Notification.
func (b *NotificationBase) Header() *NotificationBase { return b }

func (b *NotificationBase) read(f *rules.Fields) {
	b.ConversationBase.read(f)
	var typ *NotificationType
	rules.ReadEnum(f, "type", &typ)
	if typ != nil {
		b.Type = *typ
	}
}

// Validate checks the shared notification fields.
func (b *NotificationBase) Validate() []string {
	errs := b.ConversationBase.Validate()
	errs = append(errs, rules.Enum("type", &b.Type, NotificationTypes)...)
	return errs
}

func (b *NotificationBase) checkType(want NotificationType) []string {
	if b.Type != want {
		return []string{fmt.Sprintf("type must be %q for this notification, got %q", want, b.Type)}
	}
	return nil
}

// CallStateChangeNotification reports that a call moved to a new state.
type CallStateChangeNotification struct {
	NotificationBase

	CurrentState *CallState `json:"currentState,omitempty"`
}

// NewCallStateChangeNotification builds a CallStateChangeNotification from
// an untyped JSON object.
func NewCallStateChangeNotification(src map[string]any) (*CallStateChangeNotification, error) {
	n := &CallStateChangeNotification{NotificationBase: NotificationBase{Type: NotificationCallStateChange}}
	f := rules.Read(src)
	n.read(f)
	rules.ReadEnum(f, "currentState", &n.CurrentState)
	n.SetDecodeProblems(f.Problems())
	return n, f.Err()
}

// Validate implements rules.Validator.
func (n *CallStateChangeNotification) Validate() []string {
	errs := n.NotificationBase.Validate()
	errs = append(errs, rules.Enum("currentState", n.CurrentState, CallStates)...)
	errs = append(errs, n.checkType(NotificationCallStateChange)...)
	return errs
}

// RosterUpdateNotification reports the current participants of a call and
// their media streams.
type RosterUpdateNotification struct {
	NotificationBase

	Participants []*RosterParticipant `json:"participants,omitempty"`
}

// NewRosterUpdateNotification builds a RosterUpdateNotification from an
// untyped JSON object.
func NewRosterUpdateNotification(src map[string]any) (*RosterUpdateNotification, error) {
	n := &RosterUpdateNotification{NotificationBase: NotificationBase{Type: NotificationRosterUpdate}}
	f := rules.Read(src)
	n.read(f)
	rules.NestedList(f, "participants", &n.Participants, NewRosterParticipant)
	n.SetDecodeProblems(f.Problems())
	return n, f.Err()
}

// Validate implements rules.Validator.
func (n *RosterUpdateNotification) Validate() []string {
	errs := n.NotificationBase.Validate()
	errs = append(errs, rules.ObjectArray("participants", n.Participants, rules.ArrayOpts{AllowEmpty: true})...)
	errs = append(errs, n.checkType(NotificationRosterUpdate)...)
	return errs
}
