package messaging

import (
	"fmt"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// ConversationUpdate reports membership, topic, or history-disclosure
// changes in a group conversation. At least one of the four optional fields
// is always set.
type ConversationUpdate struct {
	Base

	MembersAdded     []string `json:"membersAdded,omitempty"`
	MembersRemoved   []string `json:"membersRemoved,omitempty"`
	TopicName        *string  `json:"topicName,omitempty"`
	HistoryDisclosed *bool    `json:"historyDisclosed,omitempty"`
}

// NewConversationUpdate builds a ConversationUpdate from an untyped JSON object.
func NewConversationUpdate(src map[string]any) (*ConversationUpdate, error) {
	c := &ConversationUpdate{Base: Base{Kind: KindConversationUpdate}}
	f := rules.Read(src)
	c.read(f)
	f.Strings("membersAdded", &c.MembersAdded)
	f.Strings("membersRemoved", &c.MembersRemoved)
	f.String("topicName", &c.TopicName)
	f.Bool("historyDisclosed", &c.HistoryDisclosed)
	c.SetDecodeProblems(f.Problems())
	return c, f.Err()
}

// Validate implements rules.Validator.
func (c *ConversationUpdate) Validate() []string {
	errs := c.Base.Validate()
	errs = append(errs, members("membersAdded", c.MembersAdded)...)
	errs = append(errs, members("membersRemoved", c.MembersRemoved)...)
	errs = append(errs, rules.OptionalString("topicName", c.TopicName, rules.StringOpts{AllowBlank: true})...)
	if c.MembersAdded == nil && c.MembersRemoved == nil && c.TopicName == nil && c.HistoryDisclosed == nil {
		errs = append(errs, "at least one of membersAdded, membersRemoved, topicName, historyDisclosed must be set")
	}
	errs = append(errs, c.checkKind(KindConversationUpdate)...)
	return errs
}

func members(name string, ids []string) []string {
	if ids == nil {
		return nil
	}
	errs := rules.Array(name, ids, rules.ArrayOpts{Unique: true})
	for i := range ids {
		errs = append(errs, rules.String(fmt.Sprintf("%s[%d]", name, i), &ids[i], rules.StringOpts{})...)
	}
	return errs
}
