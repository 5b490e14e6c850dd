// Package webhook is the inbound HTTP surface of a Kaiwa bot.
//
//	POST /api/messages          messaging activities, classified into events
//	POST /api/calling/call      an incoming call, answered with a workflow
//	POST /api/calling/callback  operation outcomes and call notifications
//
// Every request is rate limited per remote host, its body is capped, and it
// gets a trace id that follows it into handler code and log lines.
package webhook

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bdobrica/Kaiwa/common/dispatch"
	"github.com/bdobrica/Kaiwa/common/spec/calling"
	"github.com/bdobrica/Kaiwa/common/trace"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/observability"
)

// DefaultMaxBodyBytes caps request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 4 << 20

// EventHandler receives the classified events of one messaging delivery,
// in order. Per-activity failures arrive as dispatch.KindError events.
type EventHandler interface {
	HandleEvents(ctx context.Context, events []dispatch.Event) error
}

// CallHandler drives calls. A nil workflow from HandleResult means the bot
// has nothing further to do.
type CallHandler interface {
	HandleCall(ctx context.Context, conv *calling.Conversation) (*calling.Workflow, error)
	HandleResult(ctx context.Context, res *calling.ConversationResult) (*calling.Workflow, error)
	HandleNotification(ctx context.Context, n calling.Notification) error
}

// Journal records what the webhook received. It is optional.
type Journal interface {
	RecordEvents(ctx context.Context, traceID string, events []dispatch.Event) error
	RecordCallback(ctx context.Context, traceID, kind, callID string, body []byte) error
}

// Config tunes a Server.
type Config struct {
	BotID        string
	MaxBodyBytes int64
	// RateLimit is the number of requests a remote host may make per
	// RateWindow. Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
	// Workers is passed to the event classifier.
	Workers int
}

// Server serves the webhook routes.
type Server struct {
	cfg        Config
	classifier *dispatch.Classifier
	limiter    *rateLimiter
	events     EventHandler
	calls      CallHandler
	journal    Journal
}

// New returns a Server. events and calls must be non-nil; journal may be nil.
func New(cfg Config, events EventHandler, calls CallHandler, journal Journal) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	return &Server{
		cfg:        cfg,
		classifier: &dispatch.Classifier{BotID: cfg.BotID, Workers: cfg.Workers},
		limiter:    newRateLimiter(cfg.RateLimit, cfg.RateWindow),
		events:     events,
		calls:      calls,
		journal:    journal,
	}
}

// RouteRegistrar is satisfied by *http.ServeMux.
type RouteRegistrar interface {
	Handle(pattern string, handler http.Handler)
}

// RegisterRoutes mounts the webhook routes on r.
func (s *Server) RegisterRoutes(r RouteRegistrar) {
	r.Handle("POST /api/messages", s.wrap("messages", s.handleMessages))
	r.Handle("POST /api/calling/call", s.wrap("call", s.handleCall))
	r.Handle("POST /api/calling/callback", s.wrap("callback", s.handleCallback))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// wrap applies tracing, rate limiting, the body cap and metrics.
func (s *Server) wrap(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		traceID := trace.FromRequest(r)
		ctx := trace.WithTraceID(r.Context(), traceID)
		w.Header().Set(trace.Header, traceID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			observability.WebhookRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			observability.WebhookRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}()

		host := remoteHost(r)
		if !s.limiter.Allow(host) {
			observability.RateLimitedTotal.Inc()
			observability.WithTrace(ctx).Info("webhook: rate limit exceeded", "route", route, "remote", host)
			http.Error(rec, "too many requests", http.StatusTooManyRequests)
			return
		}
		r.Body = http.MaxBytesReader(rec, r.Body, s.cfg.MaxBodyBytes)
		h(rec, r.WithContext(ctx))
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
