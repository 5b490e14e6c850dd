package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// Activities is the batch delivered in one messaging webhook call.
type Activities struct {
	Items []Activity
}

// NewActivities builds a batch from an untyped JSON array. Each member is
// dispatched through NewActivity; the first member that cannot be
// constructed fails the whole batch.
func NewActivities(v any) (*Activities, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("activities must be an array")
	}
	out := &Activities{Items: make([]Activity, 0, len(items))}
	for i, item := range items {
		a, err := NewActivity(item)
		if err != nil {
			return nil, fmt.Errorf("activities[%d]: %w", i, err)
		}
		out.Items = append(out.Items, a)
	}
	return out, nil
}

// ParseActivities decodes a JSON webhook body into a batch. It does not
// validate the result; call Validate for that.
func ParseActivities(data []byte) (*Activities, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("activities parse: %w", err)
	}
	return NewActivities(v)
}

// Validate implements rules.Validator.
func (a *Activities) Validate() []string {
	return rules.VariantArray("activities", a.Items, rules.ArrayOpts{AllowEmpty: true})
}

// MarshalJSON encodes the batch as a bare JSON array.
func (a *Activities) MarshalJSON() ([]byte, error) {
	if a.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.Items)
}
