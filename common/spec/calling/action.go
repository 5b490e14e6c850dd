// Package calling defines the typed wire model of the voice/video side of
// the bot platform: the calls and callbacks delivered to the bot, the
// outcomes of previously requested operations, and the workflows of actions
// the bot answers with.
package calling

import (
	"fmt"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// ActionKind is the action discriminant carried in the "action" field.
type ActionKind string

const (
	ActionAnswer               ActionKind = "answer"
	ActionAnswerAppHostedMedia ActionKind = "answerAppHostedMedia"
	ActionHangup               ActionKind = "hangup"
	ActionPlaceCall            ActionKind = "placeCall"
	ActionPlayPrompt           ActionKind = "playPrompt"
	ActionRecognize            ActionKind = "recognize"
	ActionRecord               ActionKind = "record"
	ActionReject               ActionKind = "reject"
	ActionTransfer             ActionKind = "transfer"
	ActionVideoSubscription    ActionKind = "videoSubscription"
)

// ActionKinds lists every action kind.
var ActionKinds = []ActionKind{
	ActionAnswer, ActionAnswerAppHostedMedia, ActionHangup, ActionPlaceCall, ActionPlayPrompt,
	ActionRecognize, ActionRecord, ActionReject, ActionTransfer, ActionVideoSubscription,
}

// Action is one step of a Workflow.
type Action interface {
	rules.Validator
	// Header returns the fields shared by every action kind.
	Header() *ActionBase
	// Standalone reports whether the action must be the only one in its workflow.
	Standalone() bool
}

// ActionBase holds the fields shared by every action kind.
type ActionBase struct {
	rules.Decoded

	Kind        ActionKind `json:"action"`
	OperationID *string    `json:"operationId,omitempty"`
}

// Header implements Action.
func (b *ActionBase) Header() *ActionBase { return b }

// Standalone implements Action. Only Reject overrides it.
func (b *ActionBase) Standalone() bool { return false }

func newActionBase(kind ActionKind) ActionBase {
	id := NewOperationID()
	return ActionBase{Kind: kind, OperationID: &id}
}

func (b *ActionBase) read(f *rules.Fields) {
	var kind *ActionKind
	rules.ReadEnum(f, "action", &kind)
	if kind != nil {
		b.Kind = *kind
	}
	f.String("operationId", &b.OperationID)
}

// Validate checks the shared action fields.
func (b *ActionBase) Validate() []string {
	errs := append([]string(nil), b.DecodeProblems()...)
	errs = append(errs, rules.Enum("action", &b.Kind, ActionKinds)...)
	errs = append(errs, rules.String("operationId", b.OperationID, rules.StringOpts{})...)
	return errs
}

func (b *ActionBase) checkKind(want ActionKind) []string {
	if b.Kind != want {
		return []string{fmt.Sprintf("action must be %q for this type, got %q", want, b.Kind)}
	}
	return nil
}

func acceptedModalities(name string, v []Modality) []string {
	if v == nil {
		return nil
	}
	errs := rules.EnumArray(name, v, rules.ArrayOpts{Unique: true}, Modalities)
	for i, m := range v {
		errs = append(errs, rules.Forbidden(fmt.Sprintf("%s[%d]", name, i), m,
			[]Modality{ModalityUnknown, ModalityVideoBasedScreenSharing})...)
	}
	return errs
}
