package calling

import (
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// Answer accepts an incoming call.
type Answer struct {
	ActionBase

	AcceptModalityTypes []Modality `json:"acceptModalityTypes,omitempty"`
}

// NewAnswer builds an Answer from an untyped JSON object. A fresh operation
// id is assigned unless src carries one.
func NewAnswer(src map[string]any) (*Answer, error) {
	a := &Answer{ActionBase: newActionBase(ActionAnswer)}
	f := rules.Read(src)
	a.read(f)
	rules.EnumList(f, "acceptModalityTypes", &a.AcceptModalityTypes)
	a.SetDecodeProblems(f.Problems())
	return a, f.Err()
}

// AnswerWith returns an Answer accepting the given modalities.
func AnswerWith(modalities ...Modality) *Answer {
	a := &Answer{ActionBase: newActionBase(ActionAnswer)}
	if len(modalities) > 0 {
		a.AcceptModalityTypes = modalities
	}
	return a
}

// Validate implements rules.Validator.
func (a *Answer) Validate() []string {
	errs := a.ActionBase.Validate()
	errs = append(errs, acceptedModalities("acceptModalityTypes", a.AcceptModalityTypes)...)
	errs = append(errs, a.checkKind(ActionAnswer)...)
	return errs
}

// AnswerAppHostedMedia accepts an incoming call whose media is handled by
// the bot's own media platform.
type AnswerAppHostedMedia struct {
	ActionBase

	AcceptModalityTypes []Modality     `json:"acceptModalityTypes,omitempty"`
	MediaConfiguration  map[string]any `json:"mediaConfiguration,omitempty"`
}

// NewAnswerAppHostedMedia builds an AnswerAppHostedMedia from an untyped JSON object.
func NewAnswerAppHostedMedia(src map[string]any) (*AnswerAppHostedMedia, error) {
	a := &AnswerAppHostedMedia{ActionBase: newActionBase(ActionAnswerAppHostedMedia)}
	f := rules.Read(src)
	a.read(f)
	rules.EnumList(f, "acceptModalityTypes", &a.AcceptModalityTypes)
	f.Object("mediaConfiguration", &a.MediaConfiguration)
	a.SetDecodeProblems(f.Problems())
	return a, f.Err()
}

// Validate implements rules.Validator.
func (a *AnswerAppHostedMedia) Validate() []string {
	errs := a.ActionBase.Validate()
	errs = append(errs, acceptedModalities("acceptModalityTypes", a.AcceptModalityTypes)...)
	if a.MediaConfiguration == nil {
		errs = append(errs, "mediaConfiguration must be set")
	} else if len(a.MediaConfiguration) == 0 {
		errs = append(errs, "mediaConfiguration must not be empty")
	}
	errs = append(errs, a.checkKind(ActionAnswerAppHostedMedia)...)
	return errs
}

// Hangup ends an established call.
type Hangup struct {
	ActionBase
}

// NewHangup builds a Hangup from an untyped JSON object.
func NewHangup(src map[string]any) (*Hangup, error) {
	h := &Hangup{ActionBase: newActionBase(ActionHangup)}
	f := rules.Read(src)
	h.read(f)
	h.SetDecodeProblems(f.Problems())
	return h, f.Err()
}

// HangUp returns a Hangup action.
func HangUp() *Hangup {
	return &Hangup{ActionBase: newActionBase(ActionHangup)}
}

// Validate implements rules.Validator.
func (h *Hangup) Validate() []string {
	return append(h.ActionBase.Validate(), h.checkKind(ActionHangup)...)
}

// Reject declines an incoming call. It is the only standalone action.
type Reject struct {
	ActionBase
}

// NewReject builds a Reject from an untyped JSON object.
func NewReject(src map[string]any) (*Reject, error) {
	r := &Reject{ActionBase: newActionBase(ActionReject)}
	f := rules.Read(src)
	r.read(f)
	r.SetDecodeProblems(f.Problems())
	return r, f.Err()
}

// RejectCall returns a Reject action.
func RejectCall() *Reject {
	return &Reject{ActionBase: newActionBase(ActionReject)}
}

// Standalone implements Action.
func (r *Reject) Standalone() bool { return true }

// Validate implements rules.Validator.
func (r *Reject) Validate() []string {
	return append(r.ActionBase.Validate(), r.checkKind(ActionReject)...)
}

// PlaceCall starts an outbound call from Source to Target.
type PlaceCall struct {
	ActionBase

	Source                 *Participant `json:"source,omitempty"`
	Target                 *Participant `json:"target,omitempty"`
	Subject                *string      `json:"subject,omitempty"`
	RequestedModalityTypes []Modality   `json:"requestedModalityTypes,omitempty"`
}

// NewPlaceCall builds a PlaceCall from an untyped JSON object.
func NewPlaceCall(src map[string]any) (*PlaceCall, error) {
	p := &PlaceCall{ActionBase: newActionBase(ActionPlaceCall)}
	f := rules.Read(src)
	p.read(f)
	rules.Nested(f, "source", &p.Source, NewParticipant)
	rules.Nested(f, "target", &p.Target, NewParticipant)
	f.String("subject", &p.Subject)
	rules.EnumList(f, "requestedModalityTypes", &p.RequestedModalityTypes)
	p.SetDecodeProblems(f.Problems())
	return p, f.Err()
}

// Validate implements rules.Validator.
func (p *PlaceCall) Validate() []string {
	errs := p.ActionBase.Validate()
	errs = append(errs, rules.Object("source", p.Source)...)
	errs = append(errs, rules.Object("target", p.Target)...)
	errs = append(errs, rules.OptionalString("subject", p.Subject, rules.StringOpts{AllowBlank: true})...)
	errs = append(errs, acceptedModalities("requestedModalityTypes", p.RequestedModalityTypes)...)
	if p.Source != nil && p.Source.Originator != nil && !*p.Source.Originator {
		errs = append(errs, "source.originator must be true")
	}
	if p.Target != nil && p.Target.isOriginator() {
		errs = append(errs, "target.originator must be false")
	}
	errs = append(errs, p.checkKind(ActionPlaceCall)...)
	return errs
}

// PlayPrompt plays a sequence of prompts to the caller.
type PlayPrompt struct {
	ActionBase

	Prompts []*Prompt `json:"prompts,omitempty"`
}

// NewPlayPrompt builds a PlayPrompt from an untyped JSON object.
func NewPlayPrompt(src map[string]any) (*PlayPrompt, error) {
	p := &PlayPrompt{ActionBase: newActionBase(ActionPlayPrompt)}
	f := rules.Read(src)
	p.read(f)
	rules.NestedList(f, "prompts", &p.Prompts, NewPrompt)
	p.SetDecodeProblems(f.Problems())
	return p, f.Err()
}

// Play returns a PlayPrompt action playing prompts in order.
func Play(prompts ...*Prompt) *PlayPrompt {
	return &PlayPrompt{ActionBase: newActionBase(ActionPlayPrompt), Prompts: prompts}
}

// Validate implements rules.Validator.
func (p *PlayPrompt) Validate() []string {
	errs := p.ActionBase.Validate()
	errs = append(errs, rules.ObjectArray("prompts", p.Prompts, rules.ArrayOpts{})...)
	errs = append(errs, p.checkKind(ActionPlayPrompt)...)
	return errs
}

// Transfer hands the call over to another user.
type Transfer struct {
	ActionBase

	Target *Participant `json:"target,omitempty"`
}

// NewTransfer builds a Transfer from an untyped JSON object.
func NewTransfer(src map[string]any) (*Transfer, error) {
	t := &Transfer{ActionBase: newActionBase(ActionTransfer)}
	f := rules.Read(src)
	t.read(f)
	rules.Nested(f, "target", &t.Target, NewParticipant)
	t.SetDecodeProblems(f.Problems())
	return t, f.Err()
}

// Validate implements rules.Validator.
func (t *Transfer) Validate() []string {
	errs := t.ActionBase.Validate()
	errs = append(errs, rules.Object("target", t.Target)...)
	if t.Target != nil {
		if id := t.Target.Identity; id != nil && !isUserID(*id) {
			errs = append(errs, "target.identity must be a user id starting with \"8:\"")
		}
		if t.Target.isOriginator() {
			errs = append(errs, "target.originator must be false")
		}
	}
	errs = append(errs, t.checkKind(ActionTransfer)...)
	return errs
}
