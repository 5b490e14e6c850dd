package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bdobrica/Kaiwa/common/dispatch"
	"github.com/bdobrica/Kaiwa/common/spec/calling"
	"github.com/bdobrica/Kaiwa/common/spec/messaging"
	"github.com/bdobrica/Kaiwa/common/trace"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/observability"
)

// ErrCallingDisabled is returned for incoming calls when no callback URL is
// configured.
var ErrCallingDisabled = errors.New("calling disabled: no callback url configured")

// TextSender sends a plain text message. *transport.Client satisfies it.
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
}

// Relayer mirrors events to the configured sinks. *relay.Fanout satisfies it.
type Relayer interface {
	Deliver(ctx context.Context, traceID string, events []dispatch.Event) error
}

// EchoBot is the default bot behaviour. It repeats every text message back
// to its conversation, greets new contacts and groups, and answers calls
// with a spoken greeting before hanging up.
type EchoBot struct {
	sender      TextSender
	relay       Relayer
	greeting    string
	callbackURL string
}

// NewEchoBot returns an EchoBot. relay may be nil.
func NewEchoBot(sender TextSender, relay Relayer, greeting, callbackURL string) *EchoBot {
	return &EchoBot{sender: sender, relay: relay, greeting: greeting, callbackURL: callbackURL}
}

// HandleEvents implements webhook.EventHandler. Relay failures are logged
// only; a failed reply fails the delivery so the platform retries it.
func (b *EchoBot) HandleEvents(ctx context.Context, events []dispatch.Event) error {
	log := observability.WithTrace(ctx)
	if b.relay != nil {
		if err := b.relay.Deliver(ctx, trace.FromContext(ctx), events); err != nil {
			log.Warn("bot: relay failed", "err", err)
		}
	}

	var errs []error
	for _, ev := range events {
		to, text := b.reply(ev)
		if text == "" {
			continue
		}
		if err := b.sender.SendText(ctx, to, text); err != nil {
			errs = append(errs, fmt.Errorf("reply to %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

// reply returns the conversation and text to answer ev with, or an empty
// text when ev needs no answer.
func (b *EchoBot) reply(ev dispatch.Event) (string, string) {
	switch ev.Kind {
	case dispatch.KindMessage:
		m := ev.Message()
		if m == nil || m.Content == nil || *m.Content == "" {
			return "", ""
		}
		to := ev.From
		if messaging.IsGroupID(ev.To) {
			to = ev.To
		}
		return to, *m.Content
	case dispatch.KindAttachment:
		if a := ev.Attachment(); a != nil && a.Name != nil {
			return ev.ReplyTo, fmt.Sprintf("Received %s.", *a.Name)
		}
		return ev.ReplyTo, "Received your attachment."
	case dispatch.KindContactAdded, dispatch.KindBotAdded:
		return ev.ReplyTo, "Hi! I repeat whatever you write to me."
	}
	return "", ""
}

// HandleCall implements webhook.CallHandler.
func (b *EchoBot) HandleCall(ctx context.Context, conv *calling.Conversation) (*calling.Workflow, error) {
	if b.callbackURL == "" {
		return nil, ErrCallingDisabled
	}
	caller := ""
	if p := conv.Caller(); p != nil && p.Identity != nil {
		caller = *p.Identity
	}
	observability.WithTrace(ctx).Info("bot: answering call", "caller", caller)

	wf := calling.NewWorkflowFor(b.callbackURL,
		calling.AnswerWith(calling.ModalityAudio),
		calling.Play(calling.Say(b.greeting)),
		calling.HangUp(),
	)
	wf.NotificationSubscriptions = []calling.NotificationType{calling.NotificationCallStateChange}
	return wf, nil
}

// HandleResult implements webhook.CallHandler. The greeting workflow ends
// with a hangup, so no follow-up workflow is ever needed.
func (b *EchoBot) HandleResult(ctx context.Context, res *calling.ConversationResult) (*calling.Workflow, error) {
	h := res.OperationOutcome.Header()
	observability.WithTrace(ctx).Info("bot: operation outcome",
		"type", h.Kind, "operation_id", deref(h.ID), "success", h.Succeeded(), "failure_reason", deref(h.FailureReason))
	return nil, nil
}

// HandleNotification implements webhook.CallHandler.
func (b *EchoBot) HandleNotification(ctx context.Context, n calling.Notification) error {
	log := observability.WithTrace(ctx).With("call_id", deref(n.Header().ID))
	switch v := n.(type) {
	case *calling.CallStateChangeNotification:
		state := ""
		if v.CurrentState != nil {
			state = string(*v.CurrentState)
		}
		log.Info("bot: call state changed", "state", state)
	case *calling.RosterUpdateNotification:
		log.Info("bot: roster updated", "participants", len(v.Participants))
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
