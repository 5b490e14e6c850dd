package calling

import (
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// Prompt limits.
const (
	MaxPromptLength          = 2000
	MaxFileURILength         = 2048
	MaxSilenceLengthInMillis = 10000
	minSilenceLengthInMillis = 0
)

// Prompt is one item played to the caller: synthesized text, an audio file,
// or a stretch of silence. Exactly one of the three is set.
type Prompt struct {
	rules.Decoded

	Value                       *string      `json:"value,omitempty"`
	FileURI                     *string      `json:"fileUri,omitempty"`
	Voice                       *VoiceGender `json:"voice,omitempty"`
	Culture                     *Culture     `json:"culture,omitempty"`
	SilenceLengthInMilliseconds *float64     `json:"silenceLengthInMilliseconds,omitempty"`
	Emphasize                   *bool        `json:"emphasize,omitempty"`
	SayAs                       *SayAs       `json:"sayAs,omitempty"`
}

// NewPrompt builds a Prompt from an untyped JSON object.
func NewPrompt(src map[string]any) (*Prompt, error) {
	p := &Prompt{}
	f := rules.Read(src)
	f.String("value", &p.Value)
	f.String("fileUri", &p.FileURI)
	rules.ReadEnum(f, "voice", &p.Voice)
	rules.ReadEnum(f, "culture", &p.Culture)
	f.Number("silenceLengthInMilliseconds", &p.SilenceLengthInMilliseconds)
	f.Bool("emphasize", &p.Emphasize)
	rules.ReadEnum(f, "sayAs", &p.SayAs)
	p.SetDecodeProblems(f.Problems())
	return p, f.Err()
}

// Say returns a text-to-speech prompt.
func Say(text string) *Prompt {
	return &Prompt{Value: &text}
}

// PlayFile returns a prompt that plays the audio file at uri.
func PlayFile(uri string) *Prompt {
	return &Prompt{FileURI: &uri}
}

// Silence returns a prompt of ms milliseconds of silence.
func Silence(ms float64) *Prompt {
	return &Prompt{SilenceLengthInMilliseconds: &ms}
}

// Validate implements rules.Validator.
func (p *Prompt) Validate() []string {
	errs := append([]string(nil), p.DecodeProblems()...)
	errs = append(errs, rules.OptionalString("value", p.Value, rules.StringOpts{AllowBlank: true, Max: MaxPromptLength})...)
	errs = append(errs, rules.OptionalString("fileUri", p.FileURI, rules.StringOpts{Max: MaxFileURILength})...)
	errs = append(errs, rules.OptionalEnum("voice", p.Voice, VoiceGenders)...)
	errs = append(errs, rules.OptionalEnum("culture", p.Culture, Cultures)...)
	errs = append(errs, rules.OptionalNumber("silenceLengthInMilliseconds", p.SilenceLengthInMilliseconds,
		minSilenceLengthInMillis, MaxSilenceLengthInMillis)...)
	errs = append(errs, rules.OptionalEnum("sayAs", p.SayAs, SayAsValues)...)

	hasValue := p.Value != nil && !blank(*p.Value)
	hasFile := p.FileURI != nil
	hasSilence := p.SilenceLengthInMilliseconds != nil && *p.SilenceLengthInMilliseconds > 0

	set := 0
	for _, b := range []bool{hasValue, hasFile, hasSilence} {
		if b {
			set++
		}
	}
	switch {
	case hasValue && hasFile:
		errs = append(errs, "value and fileUri must not both be set")
	case set == 0:
		errs = append(errs, "exactly one of value, fileUri, silenceLengthInMilliseconds > 0 must be set")
	case set > 1:
		errs = append(errs, "only one of value, fileUri, silenceLengthInMilliseconds > 0 may be set")
	}
	return errs
}
