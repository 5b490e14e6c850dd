package calling

import (
	"fmt"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// OutcomeKind is the outcome discriminant carried in the "type" field.
type OutcomeKind string

const (
	OutcomeAnswer               OutcomeKind = "answerOutcome"
	OutcomeAnswerAppHostedMedia OutcomeKind = "answerAppHostedMediaOutcome"
	OutcomeHangup               OutcomeKind = "hangupOutcome"
	OutcomePlaceCall            OutcomeKind = "placeCallOutcome"
	OutcomePlayPrompt           OutcomeKind = "playPromptOutcome"
	OutcomeRecognize            OutcomeKind = "recognizeOutcome"
	OutcomeRecord               OutcomeKind = "recordOutcome"
	OutcomeReject               OutcomeKind = "rejectOutcome"
	OutcomeTransfer             OutcomeKind = "transferOutcome"
	OutcomeVideoSubscription    OutcomeKind = "videoSubscriptionOutcome"
	OutcomeWorkflowValidation   OutcomeKind = "workflowValidationOutcome"
)

// OutcomeKinds lists every outcome kind.
var OutcomeKinds = []OutcomeKind{
	OutcomeAnswer, OutcomeAnswerAppHostedMedia, OutcomeHangup, OutcomePlaceCall,
	OutcomePlayPrompt, OutcomeRecognize, OutcomeRecord, OutcomeReject,
	OutcomeTransfer, OutcomeVideoSubscription, OutcomeWorkflowValidation,
}

// Outcome reports the result of a previously requested action.
type Outcome interface {
	rules.Validator
	// Header returns the fields shared by every outcome kind.
	Header() *OutcomeBase
}

// OutcomeBase holds the fields shared by every outcome kind. ID is the
// operation id of the action the outcome reports on.
type OutcomeBase struct {
	rules.Decoded

	Kind          OutcomeKind `json:"type"`
	ID            *string     `json:"id,omitempty"`
	Outcome       *Result     `json:"outcome,omitempty"`
	FailureReason *string     `json:"failureReason,omitempty"`
}

// Header implements Outcome.
func (b *OutcomeBase) Header() *OutcomeBase { return b }

// Succeeded reports whether the outcome is a success.
func (b *OutcomeBase) Succeeded() bool {
	return b.Outcome != nil && *b.Outcome == Success
}

func (b *OutcomeBase) failed() bool {
	return b.Outcome != nil && *b.Outcome == Failure
}

func (b *OutcomeBase) read(f *rules.Fields) {
	var kind *OutcomeKind
	rules.ReadEnum(f, "type", &kind)
	if kind != nil {
		b.Kind = *kind
	}
	f.String("id", &b.ID)
	rules.ReadEnum(f, "outcome", &b.Outcome)
	f.String("failureReason", &b.FailureReason)
}

// Validate checks the shared outcome fields.
func (b *OutcomeBase) Validate() []string {
	errs := append([]string(nil), b.DecodeProblems()...)
	errs = append(errs, rules.Enum("type", &b.Kind, OutcomeKinds)...)
	errs = append(errs, rules.String("id", b.ID, rules.StringOpts{})...)
	errs = append(errs, rules.Enum("outcome", b.Outcome, Results)...)
	errs = append(errs, rules.OptionalString("failureReason", b.FailureReason, rules.StringOpts{AllowBlank: true})...)
	return errs
}

func (b *OutcomeBase) checkKind(want OutcomeKind) []string {
	if b.Kind != want {
		return []string{fmt.Sprintf("type must be %q for this outcome, got %q", want, b.Kind)}
	}
	return nil
}

func successOnly(failed bool, name string, present bool) []string {
	if failed && present {
		return []string{fmt.Sprintf("%s must not be set when outcome is failure", name)}
	}
	return nil
}

// BasicOutcome is the outcome of every action whose report carries no
// fields beyond the shared envelope.
type BasicOutcome struct {
	OutcomeBase

	expected OutcomeKind
}

// NewBasicOutcome builds an outcome of the given kind from an untyped JSON object.
func NewBasicOutcome(kind OutcomeKind, src map[string]any) (*BasicOutcome, error) {
	o := &BasicOutcome{OutcomeBase: OutcomeBase{Kind: kind}, expected: kind}
	f := rules.Read(src)
	o.read(f)
	o.SetDecodeProblems(f.Problems())
	return o, f.Err()
}

// Validate implements rules.Validator.
func (o *BasicOutcome) Validate() []string {
	return append(o.OutcomeBase.Validate(), o.checkKind(o.expected)...)
}

// ChoiceOutcome reports which recognition option the caller picked.
type ChoiceOutcome struct {
	rules.Decoded

	CompletionReason *RecognitionCompletionReason `json:"completionReason,omitempty"`
	ChoiceName       *string                      `json:"choiceName,omitempty"`
}

// NewChoiceOutcome builds a ChoiceOutcome from an untyped JSON object.
func NewChoiceOutcome(src map[string]any) (*ChoiceOutcome, error) {
	c := &ChoiceOutcome{}
	f := rules.Read(src)
	rules.ReadEnum(f, "completionReason", &c.CompletionReason)
	f.String("choiceName", &c.ChoiceName)
	c.SetDecodeProblems(f.Problems())
	return c, f.Err()
}

// Validate implements rules.Validator.
func (c *ChoiceOutcome) Validate() []string {
	errs := append([]string(nil), c.DecodeProblems()...)
	errs = append(errs, rules.Enum("completionReason", c.CompletionReason, RecognitionCompletionReasons)...)
	errs = append(errs, rules.OptionalString("choiceName", c.ChoiceName, rules.StringOpts{})...)
	return errs
}

// CollectDigitsOutcome reports the digits the caller keyed in.
type CollectDigitsOutcome struct {
	rules.Decoded

	CompletionReason *DigitCollectionCompletionReason `json:"completionReason,omitempty"`
	Digits           *string                          `json:"digits,omitempty"`
}

// NewCollectDigitsOutcome builds a CollectDigitsOutcome from an untyped JSON object.
func NewCollectDigitsOutcome(src map[string]any) (*CollectDigitsOutcome, error) {
	c := &CollectDigitsOutcome{}
	f := rules.Read(src)
	rules.ReadEnum(f, "completionReason", &c.CompletionReason)
	f.String("digits", &c.Digits)
	c.SetDecodeProblems(f.Problems())
	return c, f.Err()
}

// Validate implements rules.Validator.
func (c *CollectDigitsOutcome) Validate() []string {
	errs := append([]string(nil), c.DecodeProblems()...)
	errs = append(errs, rules.Enum("completionReason", c.CompletionReason, DigitCollectionCompletionReasons)...)
	if c.Digits != nil {
		for _, r := range *c.Digits {
			if !isDTMF(string(r)) {
				errs = append(errs, fmt.Sprintf("digits must contain only DTMF tones, got %q", *c.Digits))
				break
			}
		}
	}
	return errs
}

// RecognizeOutcome reports the result of a Recognize action. On success
// exactly one of ChoiceOutcome and CollectDigitsOutcome is set.
type RecognizeOutcome struct {
	OutcomeBase

	ChoiceOutcome        *ChoiceOutcome        `json:"choiceOutcome,omitempty"`
	CollectDigitsOutcome *CollectDigitsOutcome `json:"collectDigitsOutcome,omitempty"`
}

// NewRecognizeOutcome builds a RecognizeOutcome from an untyped JSON object.
func NewRecognizeOutcome(src map[string]any) (*RecognizeOutcome, error) {
	o := &RecognizeOutcome{OutcomeBase: OutcomeBase{Kind: OutcomeRecognize}}
	f := rules.Read(src)
	o.read(f)
	rules.Nested(f, "choiceOutcome", &o.ChoiceOutcome, NewChoiceOutcome)
	rules.Nested(f, "collectDigitsOutcome", &o.CollectDigitsOutcome, NewCollectDigitsOutcome)
	o.SetDecodeProblems(f.Problems())
	return o, f.Err()
}

// Validate implements rules.Validator.
func (o *RecognizeOutcome) Validate() []string {
	errs := o.OutcomeBase.Validate()
	errs = append(errs, rules.OptionalObject("choiceOutcome", o.ChoiceOutcome)...)
	errs = append(errs, rules.OptionalObject("collectDigitsOutcome", o.CollectDigitsOutcome)...)

	failed := o.failed()
	errs = append(errs, successOnly(failed, "choiceOutcome.choiceName",
		o.ChoiceOutcome != nil && o.ChoiceOutcome.ChoiceName != nil)...)
	errs = append(errs, successOnly(failed, "collectDigitsOutcome.digits",
		o.CollectDigitsOutcome != nil && o.CollectDigitsOutcome.Digits != nil)...)
	if o.Succeeded() {
		switch {
		case o.ChoiceOutcome == nil && o.CollectDigitsOutcome == nil:
			errs = append(errs, "exactly one of choiceOutcome, collectDigitsOutcome must be set on success")
		case o.ChoiceOutcome != nil && o.CollectDigitsOutcome != nil:
			errs = append(errs, "choiceOutcome and collectDigitsOutcome must not both be set")
		}
	}
	errs = append(errs, o.checkKind(OutcomeRecognize)...)
	return errs
}

// RecordOutcome reports the result of a Record action.
type RecordOutcome struct {
	OutcomeBase

	CompletionReason        *RecordingCompletionReason `json:"completionReason,omitempty"`
	LengthOfRecordingInSecs *float64                   `json:"lengthOfRecordingInSecs,omitempty"`
	Format                  *RecordingFormat           `json:"format,omitempty"`
	Transcription           *string                    `json:"transcription,omitempty"`
}

// NewRecordOutcome builds a RecordOutcome from an untyped JSON object.
func NewRecordOutcome(src map[string]any) (*RecordOutcome, error) {
	o := &RecordOutcome{OutcomeBase: OutcomeBase{Kind: OutcomeRecord}}
	f := rules.Read(src)
	o.read(f)
	rules.ReadEnum(f, "completionReason", &o.CompletionReason)
	f.Number("lengthOfRecordingInSecs", &o.LengthOfRecordingInSecs)
	rules.ReadEnum(f, "format", &o.Format)
	f.String("transcription", &o.Transcription)
	o.SetDecodeProblems(f.Problems())
	return o, f.Err()
}

// Validate implements rules.Validator.
func (o *RecordOutcome) Validate() []string {
	errs := o.OutcomeBase.Validate()
	errs = append(errs, rules.Enum("completionReason", o.CompletionReason, RecordingCompletionReasons)...)
	errs = append(errs, rules.OptionalNumber("lengthOfRecordingInSecs", o.LengthOfRecordingInSecs,
		0, MaxRecordingDurationInSeconds)...)
	errs = append(errs, rules.OptionalEnum("format", o.Format, RecordingFormats)...)
	errs = append(errs, rules.OptionalString("transcription", o.Transcription, rules.StringOpts{AllowBlank: true})...)

	failed := o.failed()
	errs = append(errs, successOnly(failed, "lengthOfRecordingInSecs", o.LengthOfRecordingInSecs != nil)...)
	errs = append(errs, successOnly(failed, "format", o.Format != nil)...)
	errs = append(errs, successOnly(failed, "transcription", o.Transcription != nil)...)
	errs = append(errs, o.checkKind(OutcomeRecord)...)
	return errs
}
