package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bdobrica/Kaiwa/common/dispatch"
	"github.com/bdobrica/Kaiwa/common/version"
)

// AMQPConfig names the broker and the topic exchange events are published to.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// Meta describes one published event.
type Meta struct {
	ID            string    `json:"id"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Producer      *string   `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

// Envelope is the message body published for each event.
type Envelope struct {
	Meta Meta           `json:"meta"`
	Data dispatch.Event `json:"data"`
}

// publisher is the part of *amqp.Channel the sink uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes every event as its own persistent JSON message. The
// routing key is "<RoutingKey>.<kind>".
type AMQPSink struct {
	mu       sync.Mutex
	ch       publisher
	closers  []io.Closer
	exchange string
	key      string
	now      func() time.Time
}

// DialAMQP connects to the broker and declares the exchange as a durable
// topic exchange.
func DialAMQP(cfg AMQPConfig) (*AMQPSink, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", cfg.Exchange, err)
	}
	s := newAMQPSink(ch, cfg.Exchange, cfg.RoutingKey)
	s.closers = []io.Closer{ch, conn}
	return s, nil
}

func newAMQPSink(ch publisher, exchange, key string) *AMQPSink {
	return &AMQPSink{ch: ch, exchange: exchange, key: key, now: time.Now}
}

// Name implements Sink.
func (s *AMQPSink) Name() string { return "amqp" }

// Deliver implements Sink. Publishing stops at the first failure.
func (s *AMQPSink) Deliver(ctx context.Context, traceID string, events []dispatch.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	producer := version.UserAgent()
	for i, ev := range events {
		env := Envelope{
			Meta: Meta{
				ID:       uuid.NewString(),
				Producer: &producer,
				Time:     s.now().UTC(),
				Type:     "kaiwa.event." + string(ev.Kind) + ".v1",
			},
			Data: ev,
		}
		if traceID != "" {
			env.Meta.CorrelationID = &traceID
		}
		body, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", i, err)
		}
		err = s.ch.PublishWithContext(ctx, s.exchange, s.key+"."+string(ev.Kind), false, false, amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     env.Meta.ID,
			CorrelationId: traceID,
			Type:          env.Meta.Type,
			Timestamp:     env.Meta.Time,
			Body:          body,
		})
		if err != nil {
			return fmt.Errorf("publish event %d: %w", i, err)
		}
	}
	return nil
}

// Close closes the channel and connection opened by DialAMQP.
func (s *AMQPSink) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
