package calling

import (
	"errors"
	"fmt"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// ErrUnknownKind is returned by the factories for an unrecognised discriminant.
var ErrUnknownKind = errors.New("unknown kind")

func discriminant(family, field string, v any) (map[string]any, string, error) {
	m, err := rules.AsObject(v)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", family, err)
	}
	raw, ok := m[field]
	if !ok || raw == nil {
		return nil, "", fmt.Errorf("%s: missing discriminant field %q", family, field)
	}
	s, ok := raw.(string)
	if !ok {
		return nil, "", fmt.Errorf("%s: discriminant field %q must be a string", family, field)
	}
	return m, s, nil
}

// NewAction constructs the action named by the "action" field of v.
func NewAction(v any) (Action, error) {
	m, kind, err := discriminant("action", "action", v)
	if err != nil {
		return nil, err
	}
	switch ActionKind(kind) {
	case ActionAnswer:
		return NewAnswer(m)
	case ActionAnswerAppHostedMedia:
		return NewAnswerAppHostedMedia(m)
	case ActionHangup:
		return NewHangup(m)
	case ActionPlaceCall:
		return NewPlaceCall(m)
	case ActionPlayPrompt:
		return NewPlayPrompt(m)
	case ActionRecognize:
		return NewRecognize(m)
	case ActionRecord:
		return NewRecord(m)
	case ActionReject:
		return NewReject(m)
	case ActionTransfer:
		return NewTransfer(m)
	case ActionVideoSubscription:
		return NewVideoSubscription(m)
	default:
		return nil, fmt.Errorf("action: %w %q", ErrUnknownKind, kind)
	}
}

// NewOutcome constructs the operation outcome named by the "type" field of v.
func NewOutcome(v any) (Outcome, error) {
	m, kind, err := discriminant("operation outcome", "type", v)
	if err != nil {
		return nil, err
	}
	switch OutcomeKind(kind) {
	case OutcomeAnswer, OutcomeAnswerAppHostedMedia, OutcomeHangup, OutcomePlaceCall,
		OutcomePlayPrompt, OutcomeReject, OutcomeTransfer, OutcomeVideoSubscription,
		OutcomeWorkflowValidation:
		return NewBasicOutcome(OutcomeKind(kind), m)
	case OutcomeRecognize:
		return NewRecognizeOutcome(m)
	case OutcomeRecord:
		return NewRecordOutcome(m)
	default:
		return nil, fmt.Errorf("operation outcome: %w %q", ErrUnknownKind, kind)
	}
}

// NewNotification constructs the notification named by the "type" field of v.
func NewNotification(v any) (Notification, error) {
	m, kind, err := discriminant("notification", "type", v)
	if err != nil {
		return nil, err
	}
	switch NotificationType(kind) {
	case NotificationCallStateChange:
		return NewCallStateChangeNotification(m)
	case NotificationRosterUpdate:
		return NewRosterUpdateNotification(m)
	default:
		return nil, fmt.Errorf("notification: %w %q", ErrUnknownKind, kind)
	}
}
