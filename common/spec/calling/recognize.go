package calling

import (
	"fmt"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// Recognize limits.
const (
	MinRecognizeTimeoutInSeconds = 1
	MaxRecognizeTimeoutInSeconds = 120
	MaxRecognitionChoices        = 10
	MaxNumberOfDtmfs             = 64
)

// RecognitionOption is one choice the caller can pick, by voice or keypad.
type RecognitionOption struct {
	rules.Decoded

	Name            *string  `json:"name,omitempty"`
	SpeechVariation []string `json:"speechVariation,omitempty"`
	DtmfVariation   *string  `json:"dtmfVariation,omitempty"`
}

// NewRecognitionOption builds a RecognitionOption from an untyped JSON object.
func NewRecognitionOption(src map[string]any) (*RecognitionOption, error) {
	o := &RecognitionOption{}
	f := rules.Read(src)
	f.String("name", &o.Name)
	f.Strings("speechVariation", &o.SpeechVariation)
	f.String("dtmfVariation", &o.DtmfVariation)
	o.SetDecodeProblems(f.Problems())
	return o, f.Err()
}

// Validate implements rules.Validator.
func (o *RecognitionOption) Validate() []string {
	errs := append([]string(nil), o.DecodeProblems()...)
	errs = append(errs, rules.String("name", o.Name, rules.StringOpts{})...)
	errs = append(errs, rules.OptionalArray("speechVariation", o.SpeechVariation, rules.ArrayOpts{Unique: true})...)
	for i := range o.SpeechVariation {
		errs = append(errs, rules.String(fmt.Sprintf("speechVariation[%d]", i), &o.SpeechVariation[i], rules.StringOpts{})...)
	}
	if o.DtmfVariation != nil && !isDTMF(*o.DtmfVariation) {
		errs = append(errs, fmt.Sprintf("dtmfVariation must be a single DTMF tone, got %q", *o.DtmfVariation))
	}
	if len(o.SpeechVariation) == 0 && o.DtmfVariation == nil {
		errs = append(errs, "at least one of speechVariation, dtmfVariation must be set")
	}
	return errs
}

// CollectDigits configures keypad digit collection.
type CollectDigits struct {
	rules.Decoded

	MaxNumberOfDtmfs *int     `json:"maxNumberOfDtmfs,omitempty"`
	StopTones        []string `json:"stopTones,omitempty"`
}

// NewCollectDigits builds a CollectDigits from an untyped JSON object.
func NewCollectDigits(src map[string]any) (*CollectDigits, error) {
	c := &CollectDigits{}
	f := rules.Read(src)
	f.Int("maxNumberOfDtmfs", &c.MaxNumberOfDtmfs)
	f.Strings("stopTones", &c.StopTones)
	c.SetDecodeProblems(f.Problems())
	return c, f.Err()
}

// Validate implements rules.Validator.
func (c *CollectDigits) Validate() []string {
	errs := append([]string(nil), c.DecodeProblems()...)
	errs = append(errs, rules.OptionalNumber("maxNumberOfDtmfs", c.MaxNumberOfDtmfs, 1, MaxNumberOfDtmfs)...)
	errs = append(errs, stopTones("stopTones", c.StopTones)...)
	if c.MaxNumberOfDtmfs == nil && c.StopTones == nil {
		errs = append(errs, "at least one of maxNumberOfDtmfs, stopTones must be set")
	}
	return errs
}

func stopTones(name string, tones []string) []string {
	if tones == nil {
		return nil
	}
	errs := rules.Array(name, tones, rules.ArrayOpts{Unique: true})
	for i, t := range tones {
		if !isDTMF(t) {
			errs = append(errs, fmt.Sprintf("%s[%d] must be a DTMF tone, got %q", name, i, t))
		}
	}
	return errs
}

// Recognize prompts the caller and waits for a spoken or keyed choice, or
// collects a run of digits.
type Recognize struct {
	ActionBase

	PlayPrompt                     *PlayPrompt          `json:"playPrompt,omitempty"`
	BargeInAllowed                 *bool                `json:"bargeInAllowed,omitempty"`
	Culture                        *Culture             `json:"culture,omitempty"`
	InitialSilenceTimeoutInSeconds *float64             `json:"initialSilenceTimeoutInSeconds,omitempty"`
	InterdigitTimeoutInSeconds     *float64             `json:"interdigitTimeoutInSeconds,omitempty"`
	Choices                        []*RecognitionOption `json:"choices,omitempty"`
	CollectDigits                  *CollectDigits       `json:"collectDigits,omitempty"`
}

// NewRecognize builds a Recognize from an untyped JSON object.
func NewRecognize(src map[string]any) (*Recognize, error) {
	r := &Recognize{ActionBase: newActionBase(ActionRecognize)}
	f := rules.Read(src)
	r.read(f)
	rules.Nested(f, "playPrompt", &r.PlayPrompt, NewPlayPrompt)
	f.Bool("bargeInAllowed", &r.BargeInAllowed)
	rules.ReadEnum(f, "culture", &r.Culture)
	f.Number("initialSilenceTimeoutInSeconds", &r.InitialSilenceTimeoutInSeconds)
	f.Number("interdigitTimeoutInSeconds", &r.InterdigitTimeoutInSeconds)
	rules.NestedList(f, "choices", &r.Choices, NewRecognitionOption)
	rules.Nested(f, "collectDigits", &r.CollectDigits, NewCollectDigits)
	r.SetDecodeProblems(f.Problems())
	return r, f.Err()
}

// Validate implements rules.Validator.
func (r *Recognize) Validate() []string {
	errs := r.ActionBase.Validate()
	errs = append(errs, rules.OptionalObject("playPrompt", r.PlayPrompt)...)
	errs = append(errs, rules.OptionalEnum("culture", r.Culture, Cultures)...)
	errs = append(errs, rules.OptionalNumber("initialSilenceTimeoutInSeconds", r.InitialSilenceTimeoutInSeconds,
		MinRecognizeTimeoutInSeconds, MaxRecognizeTimeoutInSeconds)...)
	errs = append(errs, rules.OptionalNumber("interdigitTimeoutInSeconds", r.InterdigitTimeoutInSeconds,
		MinRecognizeTimeoutInSeconds, MaxRecognizeTimeoutInSeconds)...)
	errs = append(errs, rules.OptionalObjectArray("choices", r.Choices, rules.ArrayOpts{Max: MaxRecognitionChoices})...)
	errs = append(errs, rules.OptionalObject("collectDigits", r.CollectDigits)...)

	switch {
	case r.Choices == nil && r.CollectDigits == nil:
		errs = append(errs, "exactly one of choices, collectDigits must be set")
	case r.Choices != nil && r.CollectDigits != nil:
		errs = append(errs, "choices and collectDigits must not both be set")
	}
	errs = append(errs, uniqueVariations(r.Choices)...)
	errs = append(errs, r.checkKind(ActionRecognize)...)
	return errs
}

// uniqueVariations checks that no DTMF tone or speech phrase selects more
// than one choice across the whole list.
func uniqueVariations(choices []*RecognitionOption) []string {
	var errs []string
	dtmf := make(map[string]struct{})
	speech := make(map[string]struct{})
	dupDTMF, dupSpeech := false, false
	for _, c := range choices {
		if c == nil {
			continue
		}
		if c.DtmfVariation != nil {
			if _, seen := dtmf[*c.DtmfVariation]; seen {
				dupDTMF = true
			}
			dtmf[*c.DtmfVariation] = struct{}{}
		}
		local := make(map[string]struct{}, len(c.SpeechVariation))
		for _, s := range c.SpeechVariation {
			local[s] = struct{}{}
		}
		for s := range local {
			if _, seen := speech[s]; seen {
				dupSpeech = true
			}
			speech[s] = struct{}{}
		}
	}
	if dupDTMF {
		errs = append(errs, "choices must not share a dtmfVariation")
	}
	if dupSpeech {
		errs = append(errs, "choices must not share a speechVariation")
	}
	return errs
}
