package calling

import (
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// Record limits.
const (
	MinRecordingDurationInSeconds = 10
	MaxRecordingDurationInSeconds = 600
	MaxRecordSilenceInSeconds     = 120
)

// Record captures the caller's audio. The recording comes back as an opaque
// buffer alongside the RecordOutcome.
type Record struct {
	ActionBase

	PlayPrompt                     *PlayPrompt      `json:"playPrompt,omitempty"`
	MaxDurationInSeconds           *float64         `json:"maxDurationInSeconds,omitempty"`
	InitialSilenceTimeoutInSeconds *float64         `json:"initialSilenceTimeoutInSeconds,omitempty"`
	MaxSilenceTimeoutInSeconds     *float64         `json:"maxSilenceTimeoutInSeconds,omitempty"`
	RecordingFormat                *RecordingFormat `json:"recordingFormat,omitempty"`
	PlayBeep                       *bool            `json:"playBeep,omitempty"`
	StopTones                      []string         `json:"stopTones,omitempty"`
}

// NewRecord builds a Record from an untyped JSON object.
func NewRecord(src map[string]any) (*Record, error) {
	r := &Record{ActionBase: newActionBase(ActionRecord)}
	f := rules.Read(src)
	r.read(f)
	rules.Nested(f, "playPrompt", &r.PlayPrompt, NewPlayPrompt)
	f.Number("maxDurationInSeconds", &r.MaxDurationInSeconds)
	f.Number("initialSilenceTimeoutInSeconds", &r.InitialSilenceTimeoutInSeconds)
	f.Number("maxSilenceTimeoutInSeconds", &r.MaxSilenceTimeoutInSeconds)
	rules.ReadEnum(f, "recordingFormat", &r.RecordingFormat)
	f.Bool("playBeep", &r.PlayBeep)
	f.Strings("stopTones", &r.StopTones)
	r.SetDecodeProblems(f.Problems())
	return r, f.Err()
}

// Validate implements rules.Validator.
func (r *Record) Validate() []string {
	errs := r.ActionBase.Validate()
	errs = append(errs, rules.OptionalObject("playPrompt", r.PlayPrompt)...)
	errs = append(errs, rules.OptionalNumber("maxDurationInSeconds", r.MaxDurationInSeconds,
		MinRecordingDurationInSeconds, MaxRecordingDurationInSeconds)...)
	errs = append(errs, rules.OptionalNumber("initialSilenceTimeoutInSeconds", r.InitialSilenceTimeoutInSeconds,
		0, MaxRecordSilenceInSeconds)...)
	errs = append(errs, rules.OptionalNumber("maxSilenceTimeoutInSeconds", r.MaxSilenceTimeoutInSeconds,
		0, MaxRecordSilenceInSeconds)...)
	errs = append(errs, rules.OptionalEnum("recordingFormat", r.RecordingFormat, RecordingFormats)...)
	errs = append(errs, stopTones("stopTones", r.StopTones)...)
	errs = append(errs, r.checkKind(ActionRecord)...)
	return errs
}
