// Package relay mirrors classified events to external sinks: an operator
// Matrix room and an AMQP exchange.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bdobrica/Kaiwa/common/dispatch"
	"github.com/bdobrica/Kaiwa/common/redact"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/observability"
)

// Sink receives the events of one webhook delivery.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, traceID string, events []dispatch.Event) error
	Close() error
}

// Fanout delivers every batch to each of its sinks. A failing sink does not
// stop delivery to the others.
type Fanout struct {
	sinks []Sink
}

// NewFanout returns a Fanout over sinks. Nil sinks are skipped.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Len returns the number of configured sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

// Names returns the configured sink names in delivery order.
func (f *Fanout) Names() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name()
	}
	return names
}

// Start prepares sinks that need it, such as joining the Matrix room.
func (f *Fanout) Start(ctx context.Context) {
	for _, s := range f.sinks {
		if j, ok := s.(interface{ Join(context.Context) }); ok {
			j.Join(ctx)
		}
	}
}

// Deliver hands events to every sink and joins their errors.
func (f *Fanout) Deliver(ctx context.Context, traceID string, events []dispatch.Event) error {
	if len(events) == 0 {
		return nil
	}
	var errs []error
	for _, s := range f.sinks {
		err := s.Deliver(ctx, traceID, events)
		observability.RelayDeliveriesTotal.WithLabelValues(s.Name(), observability.Result(err)).Add(float64(len(events)))
		if err != nil {
			slog.Warn("relay: sink delivery failed", "sink", s.Name(), "trace_id", traceID, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Summary renders one event as a single line of operator-facing text.
func Summary(ev dispatch.Event) string {
	var b strings.Builder
	b.WriteString(string(ev.Kind))
	if ev.From != "" {
		fmt.Fprintf(&b, " from %s", ev.From)
	}
	if ev.To != "" {
		fmt.Fprintf(&b, " to %s", ev.To)
	}
	switch ev.Kind {
	case dispatch.KindMessage:
		if m := ev.Message(); m != nil && m.Content != nil {
			fmt.Fprintf(&b, ": %s", redact.Bearer(truncate(*m.Content, 200)))
		}
	case dispatch.KindAttachment:
		if a := ev.Attachment(); a != nil && a.Name != nil {
			fmt.Fprintf(&b, ": %s", *a.Name)
		}
	case dispatch.KindTopicUpdated:
		fmt.Fprintf(&b, ": %q", ev.Topic)
	case dispatch.KindHistoryDisclosed:
		fmt.Fprintf(&b, ": %t", ev.HistoryDisclosed)
	case dispatch.KindBotAdded, dispatch.KindBotRemoved, dispatch.KindMemberAdded, dispatch.KindMemberRemoved:
		fmt.Fprintf(&b, ": %s", ev.Member)
	case dispatch.KindError:
		if ev.Source != "" {
			fmt.Fprintf(&b, " (%s)", ev.Source)
		}
		fmt.Fprintf(&b, ": %s", ev.Error)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
