package calling

import (
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// MaxAppStateLength bounds the opaque application state echoed back by the
// service.
const MaxAppStateLength = 1024

// ConversationBase holds the fields shared by conversations, conversation
// results, and notifications.
type ConversationBase struct {
	rules.Decoded

	ID       *string           `json:"id,omitempty"`
	AppID    *string           `json:"appId,omitempty"`
	AppState *string           `json:"appState,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
}

func (b *ConversationBase) read(f *rules.Fields) {
	f.String("id", &b.ID)
	f.String("appId", &b.AppID)
	f.String("appState", &b.AppState)
	f.StringMap("links", &b.Links)
}

// Validate checks the shared fields.
func (b *ConversationBase) Validate() []string {
	errs := append([]string(nil), b.DecodeProblems()...)
	errs = append(errs, rules.String("id", b.ID, rules.StringOpts{})...)
	errs = append(errs, rules.OptionalString("appId", b.AppID, rules.StringOpts{})...)
	errs = append(errs, rules.OptionalString("appState", b.AppState,
		rules.StringOpts{AllowBlank: true, Max: MaxAppStateLength})...)
	errs = append(errs, rules.OptionalStringMap("links", b.Links)...)
	return errs
}

// Conversation describes an incoming call.
type Conversation struct {
	ConversationBase

	Participants           []*Participant `json:"participants,omitempty"`
	IsMultiparty           *bool          `json:"isMultiparty,omitempty"`
	ThreadID               *string        `json:"threadId,omitempty"`
	Subject                *string        `json:"subject,omitempty"`
	CallState              *CallState     `json:"callState,omitempty"`
	PresentedModalityTypes []Modality     `json:"presentedModalityTypes,omitempty"`
}

// NewConversation builds a Conversation from an untyped JSON object.
func NewConversation(src map[string]any) (*Conversation, error) {
	c := &Conversation{}
	f := rules.Read(src)
	c.read(f)
	rules.NestedList(f, "participants", &c.Participants, NewParticipant)
	f.Bool("isMultiparty", &c.IsMultiparty)
	f.String("threadId", &c.ThreadID)
	f.String("subject", &c.Subject)
	rules.ReadEnum(f, "callState", &c.CallState)
	rules.EnumList(f, "presentedModalityTypes", &c.PresentedModalityTypes)
	c.SetDecodeProblems(f.Problems())
	return c, f.Err()
}

// Validate implements rules.Validator.
func (c *Conversation) Validate() []string {
	errs := c.ConversationBase.Validate()
	errs = append(errs, rules.ObjectArray("participants", c.Participants, rules.ArrayOpts{})...)
	errs = append(errs, rules.Bool("isMultiparty", c.IsMultiparty)...)
	errs = append(errs, rules.OptionalString("threadId", c.ThreadID, rules.StringOpts{})...)
	errs = append(errs, rules.OptionalString("subject", c.Subject, rules.StringOpts{AllowBlank: true})...)
	errs = append(errs, rules.Enum("callState", c.CallState, CallStates)...)
	errs = append(errs, rules.OptionalEnumArray("presentedModalityTypes", c.PresentedModalityTypes,
		rules.ArrayOpts{Unique: true}, Modalities)...)
	if c.IsMultiparty != nil && *c.IsMultiparty && c.ThreadID == nil {
		errs = append(errs, "threadId must be set when isMultiparty is true")
	}
	return errs
}

// Caller returns the participant that originated the call, or nil.
func (c *Conversation) Caller() *Participant {
	for _, p := range c.Participants {
		if p.isOriginator() {
			return p
		}
	}
	return nil
}

// ConversationResult reports the outcome of an action of an earlier
// workflow. RecordedAudio carries the recording returned with a
// RecordOutcome; it is passed through untouched and never serialized.
type ConversationResult struct {
	ConversationBase

	CallState        *CallState `json:"callState,omitempty"`
	OperationOutcome Outcome    `json:"operationOutcome,omitempty"`
	RecordedAudio    []byte     `json:"-"`
}

// NewConversationResult builds a ConversationResult from an untyped JSON
// object. The operation outcome is dispatched through NewOutcome, so an
// unrecognised outcome type fails construction.
func NewConversationResult(src map[string]any) (*ConversationResult, error) {
	r := &ConversationResult{}
	f := rules.Read(src)
	r.read(f)
	rules.ReadEnum(f, "callState", &r.CallState)
	rules.Dispatch(f, "operationOutcome", &r.OperationOutcome, NewOutcome)
	r.SetDecodeProblems(f.Problems())
	return r, f.Err()
}

// Validate implements rules.Validator.
func (r *ConversationResult) Validate() []string {
	errs := r.ConversationBase.Validate()
	errs = append(errs, rules.OptionalEnum("callState", r.CallState, CallStates)...)
	errs = append(errs, rules.Variant("operationOutcome", r.OperationOutcome)...)
	return errs
}
