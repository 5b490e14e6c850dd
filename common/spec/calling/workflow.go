package calling

import (
	"encoding/json"
	"fmt"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// LinkCallback is the Links key naming the URL the service posts results to.
const LinkCallback = "callback"

// Workflow is the ordered list of actions the bot answers a call or
// callback with.
type Workflow struct {
	rules.Decoded

	ID                        *string            `json:"id,omitempty"`
	Actions                   []Action           `json:"actions"`
	Links                     map[string]string  `json:"links,omitempty"`
	AppState                  *string            `json:"appState,omitempty"`
	NotificationSubscriptions []NotificationType `json:"notificationSubscriptions,omitempty"`
}

// NewWorkflow builds a Workflow from an untyped JSON object. Every action is
// dispatched through NewAction.
func NewWorkflow(src map[string]any) (*Workflow, error) {
	w := &Workflow{}
	f := rules.Read(src)
	f.String("id", &w.ID)
	rules.DispatchList(f, "actions", &w.Actions, NewAction)
	f.StringMap("links", &w.Links)
	f.String("appState", &w.AppState)
	rules.EnumList(f, "notificationSubscriptions", &w.NotificationSubscriptions)
	w.SetDecodeProblems(f.Problems())
	return w, f.Err()
}

// ParseWorkflow decodes a JSON workflow document.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var src map[string]any
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("workflow parse: %w", err)
	}
	return NewWorkflow(src)
}

// NewWorkflowFor returns a workflow running actions and reporting back to
// callbackURL.
func NewWorkflowFor(callbackURL string, actions ...Action) *Workflow {
	return &Workflow{
		Actions: actions,
		Links:   map[string]string{LinkCallback: callbackURL},
	}
}

// Validate implements rules.Validator using DefaultPhases.
func (w *Workflow) Validate() []string {
	return w.ValidateWith(DefaultPhases())
}

// ValidateWith validates the workflow against an explicit phase table.
func (w *Workflow) ValidateWith(phases PhaseTable) []string {
	errs := append([]string(nil), w.DecodeProblems()...)
	errs = append(errs, rules.OptionalString("id", w.ID, rules.StringOpts{})...)
	switch {
	case w.Actions == nil:
		errs = append(errs, "actions must be set")
	case len(w.Actions) == 0:
		errs = append(errs, "actions must not be empty")
	default:
		errs = append(errs, ValidateSequence(w.Actions, phases)...)
	}
	errs = append(errs, rules.StringMap("links", w.Links)...)
	if w.Links != nil {
		if _, ok := w.Links[LinkCallback]; !ok {
			errs = append(errs, fmt.Sprintf("links must contain %q", LinkCallback))
		}
	}
	errs = append(errs, rules.OptionalString("appState", w.AppState,
		rules.StringOpts{AllowBlank: true, Max: MaxAppStateLength})...)
	errs = append(errs, rules.OptionalEnumArray("notificationSubscriptions", w.NotificationSubscriptions,
		rules.ArrayOpts{Unique: true}, NotificationTypes)...)
	return errs
}
