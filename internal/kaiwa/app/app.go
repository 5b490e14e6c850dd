// Package app wires the Kaiwa host: configuration, journal, relay sinks,
// platform client, and the webhook server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/bdobrica/Kaiwa/common/crypto"
	"github.com/bdobrica/Kaiwa/common/redact"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/auth"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/config"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/relay"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/store"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/transport"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/webhook"
)

// App is a configured Kaiwa process.
type App struct {
	cfg    *config.Config
	store  *store.Store
	relay  *relay.Fanout
	server *Server
}

// New builds every component named by cfg. Nothing listens until Run.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	var (
		journal webhook.Journal
		status  statusProvider
	)
	if cfg.Store.Path != "" {
		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.store = st
		journal, status = st, st

		if k := cfg.Store.EncryptionKey; k != "" {
			key, err := crypto.ParseKey(k)
			if err != nil {
				a.Stop()
				return nil, fmt.Errorf("journal key: %w", err)
			}
			sealer, err := crypto.NewSealer(key)
			if err != nil {
				a.Stop()
				return nil, fmt.Errorf("journal key: %w", err)
			}
			st.SealWith(sealer)
		}
	}

	sinks, err := buildSinks(cfg.Relay)
	if err != nil {
		a.Stop()
		return nil, err
	}
	a.relay = relay.NewFanout(sinks...)

	tokens := auth.NewClientCredentials(auth.ClientCredentialsConfig{
		TokenURL:     cfg.Bot.TokenURL,
		ClientID:     cfg.Bot.AppID,
		ClientSecret: cfg.Bot.AppPassword,
		Scope:        cfg.Bot.Scope,
	})
	client := transport.New(transport.Config{ServiceURL: cfg.Bot.ServiceURL}, tokens)
	bot := NewEchoBot(client, a.relay, cfg.Greeting, cfg.Bot.CallbackURL)

	a.server = NewServer(cfg.Listen, status, a.relay.Names())
	webhook.New(webhook.Config{
		BotID:        cfg.Bot.ID,
		MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
		RateLimit:    cfg.Webhook.RateLimit,
		RateWindow:   cfg.Webhook.RateWindow,
		Workers:      cfg.Webhook.Workers,
	}, bot, bot, journal).RegisterRoutes(a.server)

	return a, nil
}

func buildSinks(cfg config.Relay) ([]relay.Sink, error) {
	var sinks []relay.Sink
	if m := cfg.Matrix; m.Enabled() {
		s, err := relay.NewMatrixSink(relay.MatrixConfig{
			Homeserver:  m.Homeserver,
			UserID:      m.UserID,
			AccessToken: m.AccessToken,
			RoomID:      m.RoomID,
		})
		if err != nil {
			return nil, fmt.Errorf("relay: %w", err)
		}
		sinks = append(sinks, s)
	}
	if q := cfg.AMQP; q.Enabled() {
		s, err := relay.DialAMQP(relay.AMQPConfig{URL: q.URL, Exchange: q.Exchange, RoutingKey: q.RoutingKey})
		if err != nil {
			for _, prev := range sinks {
				prev.Close()
			}
			return nil, fmt.Errorf("relay %s: %w", redact.URL(q.URL), err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// Handler returns the HTTP handler serving every route, for tests.
func (a *App) Handler() *Server { return a.server }

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// everything down.
func (a *App) Run(ctx context.Context) error {
	a.relay.Start(ctx)

	addr, err := a.server.Start(ctx)
	if err != nil {
		a.Stop()
		return err
	}
	slog.Info("Kaiwa is running", "addr", addrString(addr), "bot_id", a.cfg.Bot.ID, "sinks", a.relay.Names())

	<-ctx.Done()
	slog.Info("shutting down")
	a.Stop()
	return nil
}

// Stop releases every resource held by the App. It is safe to call more
// than once.
func (a *App) Stop() {
	if a.server != nil {
		a.server.Stop()
	}
	if a.relay != nil {
		if err := a.relay.Close(); err != nil {
			slog.Warn("relay close error", "err", err)
		}
		a.relay = relay.NewFanout()
	}
	if a.store != nil {
		slog.Info("closing journal")
		a.store.Close()
		a.store = nil
	}
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
