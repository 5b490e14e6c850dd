package calling

import (
	"fmt"
	"strings"
)

// Phase orders actions within a workflow. Positive phases must be
// non-decreasing; the negative phase is reserved for rejecting a call and
// never mixes with positive ones.
type Phase int

const (
	PhaseReject      Phase = -2
	PhaseSetup       Phase = 1
	PhaseInteraction Phase = 2
	PhaseTeardown    Phase = 3
)

// PhaseTable maps each action kind to its phase.
type PhaseTable map[ActionKind]Phase

// DefaultPhases returns the phase table the service enforces.
func DefaultPhases() PhaseTable {
	return PhaseTable{
		ActionReject:               PhaseReject,
		ActionAnswer:               PhaseSetup,
		ActionAnswerAppHostedMedia: PhaseSetup,
		ActionPlaceCall:            PhaseSetup,
		ActionVideoSubscription:    PhaseSetup,
		ActionPlayPrompt:           PhaseInteraction,
		ActionRecord:               PhaseInteraction,
		ActionRecognize:            PhaseInteraction,
		ActionTransfer:             PhaseInteraction,
		ActionHangup:               PhaseTeardown,
	}
}

// ValidateSequence checks a workflow's action list. Every action is
// validated on its own first; when any of them fails, those findings are
// returned without the sequence rules. Otherwise each violated sequence
// rule contributes one finding:
//
//   - a standalone action must be the only action
//   - no action kind may repeat
//   - answer and placeCall are mutually exclusive
//   - phases must be non-decreasing and keep the sign of the first action
func ValidateSequence(actions []Action, phases PhaseTable) []string {
	var errs []string
	for i, a := range actions {
		if a == nil {
			errs = append(errs, fmt.Sprintf("actions[%d] must be set", i))
			continue
		}
		errs = append(errs, a.Validate()...)
	}
	if len(errs) > 0 || len(actions) <= 1 {
		return errs
	}

	var standalone []string
	counts := make(map[ActionKind]int, len(actions))
	var repeated []string
	for _, a := range actions {
		kind := a.Header().Kind
		if a.Standalone() {
			standalone = append(standalone, string(kind))
		}
		counts[kind]++
		if counts[kind] == 2 {
			repeated = append(repeated, string(kind))
		}
	}
	if len(standalone) > 0 {
		errs = append(errs, fmt.Sprintf("standalone action(s) %s must be the only action in a workflow",
			strings.Join(standalone, ", ")))
	}
	if len(repeated) > 0 {
		errs = append(errs, fmt.Sprintf("action(s) %s must not appear more than once", strings.Join(repeated, ", ")))
	}
	if counts[ActionAnswer] > 0 && counts[ActionPlaceCall] > 0 {
		errs = append(errs, "answer and placeCall must not appear in the same workflow")
	}
	if err := checkPhases(actions, phases); err != "" {
		errs = append(errs, err)
	}
	return errs
}

func checkPhases(actions []Action, phases PhaseTable) string {
	first := actions[0].Header().Kind
	firstPhase, ok := phases[first]
	if !ok {
		return fmt.Sprintf("action %q has no phase", first)
	}
	prevKind, prev := first, firstPhase
	for _, a := range actions[1:] {
		kind := a.Header().Kind
		p, ok := phases[kind]
		if !ok {
			return fmt.Sprintf("action %q has no phase", kind)
		}
		if sign(p) != sign(firstPhase) || p < prev {
			return fmt.Sprintf("action %q must not follow %q", kind, prevKind)
		}
		prevKind, prev = kind, p
	}
	return ""
}

func sign(p Phase) int {
	switch {
	case p < 0:
		return -1
	case p > 0:
		return 1
	}
	return 0
}
