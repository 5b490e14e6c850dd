package calling

import (
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// Participant is one party of a call.
type Participant struct {
	rules.Decoded

	Identity    *string `json:"identity,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	LanguageID  *string `json:"languageId,omitempty"`
	Originator  *bool   `json:"originator,omitempty"`
}

// NewParticipant builds a Participant from an untyped JSON object.
func NewParticipant(src map[string]any) (*Participant, error) {
	p := &Participant{}
	f := rules.Read(src)
	f.String("identity", &p.Identity)
	f.String("displayName", &p.DisplayName)
	f.String("languageId", &p.LanguageID)
	f.Bool("originator", &p.Originator)
	p.SetDecodeProblems(f.Problems())
	return p, f.Err()
}

// Validate implements rules.Validator.
func (p *Participant) Validate() []string {
	errs := append([]string(nil), p.DecodeProblems()...)
	errs = append(errs, rules.String("identity", p.Identity, rules.StringOpts{})...)
	errs = append(errs, rules.OptionalString("displayName", p.DisplayName, rules.StringOpts{AllowBlank: true})...)
	errs = append(errs, rules.OptionalString("languageId", p.LanguageID, rules.StringOpts{})...)
	errs = append(errs, rules.Bool("originator", p.Originator)...)
	return errs
}

func (p *Participant) isOriginator() bool {
	return p != nil && p.Originator != nil && *p.Originator
}

// RosterParticipant is one entry of a roster update: a participant together
// with the state of one of its media streams.
type RosterParticipant struct {
	rules.Decoded

	Identity             *string               `json:"identity,omitempty"`
	MediaType            *Modality             `json:"mediaType,omitempty"`
	MediaStreamDirection *MediaStreamDirection `json:"mediaStreamDirection,omitempty"`
}

// NewRosterParticipant builds a RosterParticipant from an untyped JSON object.
func NewRosterParticipant(src map[string]any) (*RosterParticipant, error) {
	p := &RosterParticipant{}
	f := rules.Read(src)
	f.String("identity", &p.Identity)
	rules.ReadEnum(f, "mediaType", &p.MediaType)
	rules.ReadEnum(f, "mediaStreamDirection", &p.MediaStreamDirection)
	p.SetDecodeProblems(f.Problems())
	return p, f.Err()
}

// Validate implements rules.Validator.
func (p *RosterParticipant) Validate() []string {
	errs := append([]string(nil), p.DecodeProblems()...)
	errs = append(errs, rules.String("identity", p.Identity, rules.StringOpts{})...)
	errs = append(errs, rules.Enum("mediaType", p.MediaType, Modalities)...)
	if p.MediaType != nil {
		errs = append(errs, rules.Forbidden("mediaType", *p.MediaType, []Modality{ModalityUnknown})...)
	}
	errs = append(errs, rules.Enum("mediaStreamDirection", p.MediaStreamDirection, MediaStreamDirections)...)
	return errs
}
