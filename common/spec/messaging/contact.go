package messaging

import (
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// ContactAction is the change reported by a ContactRelationUpdate.
type ContactAction string

const (
	ContactAdd    ContactAction = "add"
	ContactRemove ContactAction = "remove"
)

// ContactActions lists the supported contact changes.
var ContactActions = []ContactAction{ContactAdd, ContactRemove}

// ContactRelationUpdate reports that a user added or removed the bot from
// their contact list.
type ContactRelationUpdate struct {
	Base

	Action          *ContactAction `json:"action,omitempty"`
	FromDisplayName *string        `json:"fromDisplayName,omitempty"`
}

// NewContactRelationUpdate builds a ContactRelationUpdate from an untyped JSON object.
func NewContactRelationUpdate(src map[string]any) (*ContactRelationUpdate, error) {
	c := &ContactRelationUpdate{Base: Base{Kind: KindContactRelationUpdate}}
	f := rules.Read(src)
	c.read(f)
	rules.ReadEnum(f, "action", &c.Action)
	f.String("fromDisplayName", &c.FromDisplayName)
	c.SetDecodeProblems(f.Problems())
	return c, f.Err()
}

// Validate implements rules.Validator.
func (c *ContactRelationUpdate) Validate() []string {
	errs := c.Base.Validate()
	errs = append(errs, rules.Enum("action", c.Action, ContactActions)...)
	errs = append(errs, rules.OptionalString("fromDisplayName", c.FromDisplayName, rules.StringOpts{AllowBlank: true})...)
	errs = append(errs, c.checkKind(KindContactRelationUpdate)...)
	return errs
}
