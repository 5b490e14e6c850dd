package messaging

import (
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// Message is a text message sent to the bot.
type Message struct {
	Base

	ID      *string `json:"id,omitempty"`
	Content *string `json:"content,omitempty"`
}

// NewMessage builds a Message from an untyped JSON object.
func NewMessage(src map[string]any) (*Message, error) {
	m := &Message{Base: Base{Kind: KindMessage}}
	f := rules.Read(src)
	m.read(f)
	f.String("id", &m.ID)
	f.String("content", &m.Content)
	m.SetDecodeProblems(f.Problems())
	return m, f.Err()
}

// Validate implements rules.Validator.
func (m *Message) Validate() []string {
	errs := m.Base.Validate()
	errs = append(errs, rules.String("id", m.ID, rules.StringOpts{})...)
	errs = append(errs, rules.String("content", m.Content, rules.StringOpts{AllowBlank: true})...)
	errs = append(errs, m.checkKind(KindMessage)...)
	return errs
}
