// Package config loads the Kaiwa host configuration: a YAML document
// overridden by KAIWA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bdobrica/Kaiwa/common/crypto"
	"github.com/bdobrica/Kaiwa/common/environment"
	"github.com/bdobrica/Kaiwa/common/spec/messaging"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "KAIWA_"

// Config is the full host configuration.
type Config struct {
	Listen   string  `yaml:"listen"`
	Bot      Bot     `yaml:"bot"`
	Logging  Logging `yaml:"logging"`
	Webhook  Webhook `yaml:"webhook"`
	Store    Store   `yaml:"store"`
	Relay    Relay   `yaml:"relay"`
	Greeting string  `yaml:"greeting"`
}

// Bot identifies the bot to the platform.
type Bot struct {
	// ID is the bot's own "28:" id.
	ID          string `yaml:"id"`
	AppID       string `yaml:"appId"`
	AppPassword string `yaml:"appPassword"`
	ServiceURL  string `yaml:"serviceUrl"`
	TokenURL    string `yaml:"tokenUrl"`
	Scope       string `yaml:"scope"`
	CallbackURL string `yaml:"callbackUrl"`
}

// Logging selects the slog level and handler.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Webhook tunes the inbound HTTP surface.
type Webhook struct {
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
	RateLimit    int           `yaml:"rateLimit"`
	RateWindow   time.Duration `yaml:"rateWindow"`
	Workers      int           `yaml:"workers"`
}

// Store locates the SQLite journal. An empty Path disables journaling.
// EncryptionKey, a 64-character hex string, seals stored bodies when set.
type Store struct {
	Path          string `yaml:"path"`
	EncryptionKey string `yaml:"encryptionKey"`
}

// Relay configures the sinks classified events are mirrored to.
type Relay struct {
	Matrix Matrix `yaml:"matrix"`
	AMQP   AMQP   `yaml:"amqp"`
}

// Matrix mirrors events into an operator room. Disabled when Homeserver is
// empty.
type Matrix struct {
	Homeserver  string `yaml:"homeserver"`
	UserID      string `yaml:"userId"`
	AccessToken string `yaml:"accessToken"`
	RoomID      string `yaml:"roomId"`
}

// Enabled reports whether the Matrix sink is configured.
func (m Matrix) Enabled() bool { return m.Homeserver != "" }

// AMQP publishes events to a broker exchange. Disabled when URL is empty.
type AMQP struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routingKey"`
}

// Enabled reports whether the AMQP sink is configured.
func (a AMQP) Enabled() bool { return a.URL != "" }

// Default returns the configuration used for every field a document leaves
// out.
func Default() Config {
	return Config{
		Listen: ":3978",
		Bot: Bot{
			ServiceURL: "https://api.skype.net",
			TokenURL:   "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token",
			Scope:      "https://api.botframework.com/.default",
		},
		Logging: Logging{Level: "info", Format: "text"},
		Webhook: Webhook{
			MaxBodyBytes: 4 << 20,
			RateLimit:    120,
			RateWindow:   time.Minute,
			Workers:      1,
		},
		Relay: Relay{
			AMQP: AMQP{Exchange: "kaiwa.events", RoutingKey: "kaiwa.event"},
		},
		Greeting: "Hello, you have reached Kaiwa. Goodbye.",
	}
}

// Parse decodes a YAML document on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the document at path (when non-empty), applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config read: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config parse %s: %w", path, err)
		}
	}
	ApplyEnv(&cfg, environment.New(EnvPrefix))
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides cfg with every variable set in env.
func ApplyEnv(cfg *Config, env environment.Env) {
	env.OverrideString(&cfg.Listen, "LISTEN_ADDR")
	env.OverrideString(&cfg.Bot.ID, "BOT_ID")
	env.OverrideString(&cfg.Bot.AppID, "APP_ID")
	env.OverrideString(&cfg.Bot.AppPassword, "APP_PASSWORD")
	env.OverrideString(&cfg.Bot.ServiceURL, "SERVICE_URL")
	env.OverrideString(&cfg.Bot.TokenURL, "TOKEN_URL")
	env.OverrideString(&cfg.Bot.Scope, "TOKEN_SCOPE")
	env.OverrideString(&cfg.Bot.CallbackURL, "CALLBACK_URL")
	env.OverrideString(&cfg.Logging.Level, "LOG_LEVEL")
	env.OverrideString(&cfg.Logging.Format, "LOG_FORMAT")
	env.OverrideInt(&cfg.Webhook.RateLimit, "RATE_LIMIT")
	env.OverrideDuration(&cfg.Webhook.RateWindow, "RATE_WINDOW")
	env.OverrideInt(&cfg.Webhook.Workers, "WORKERS")
	env.OverrideString(&cfg.Store.Path, "DATABASE_PATH")
	env.OverrideString(&cfg.Store.EncryptionKey, "JOURNAL_KEY")
	env.OverrideString(&cfg.Relay.Matrix.Homeserver, "MATRIX_HOMESERVER")
	env.OverrideString(&cfg.Relay.Matrix.UserID, "MATRIX_USER_ID")
	env.OverrideString(&cfg.Relay.Matrix.AccessToken, "MATRIX_ACCESS_TOKEN")
	env.OverrideString(&cfg.Relay.Matrix.RoomID, "MATRIX_ROOM_ID")
	env.OverrideString(&cfg.Relay.AMQP.URL, "AMQP_URL")
	env.OverrideString(&cfg.Relay.AMQP.Exchange, "AMQP_EXCHANGE")
	env.OverrideString(&cfg.Relay.AMQP.RoutingKey, "AMQP_ROUTING_KEY")
	env.OverrideString(&cfg.Greeting, "GREETING")

	var maxBody int
	env.OverrideInt(&maxBody, "MAX_BODY_BYTES")
	if maxBody > 0 {
		cfg.Webhook.MaxBodyBytes = int64(maxBody)
	}
}

// Validate checks cfg and returns the first problem found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config must not be nil")
	}

	// ── Listener ─────────────────────────────────────────────────────────────
	if strings.TrimSpace(cfg.Listen) == "" {
		return errors.New("listen must not be empty")
	}

	// ── Bot ──────────────────────────────────────────────────────────────────
	if err := validateBot(cfg.Bot); err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	// ── Logging ──────────────────────────────────────────────────────────────
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}

	// ── Webhook ──────────────────────────────────────────────────────────────
	if cfg.Webhook.MaxBodyBytes <= 0 {
		return errors.New("webhook.maxBodyBytes must be > 0")
	}
	if cfg.Webhook.RateLimit < 0 {
		return errors.New("webhook.rateLimit must be >= 0")
	}
	if cfg.Webhook.RateLimit > 0 && cfg.Webhook.RateWindow <= 0 {
		return errors.New("webhook.rateWindow must be > 0 when rateLimit is set")
	}
	if cfg.Webhook.Workers < 1 {
		return errors.New("webhook.workers must be >= 1")
	}

	// ── Store ────────────────────────────────────────────────────────────────
	if cfg.Store.EncryptionKey != "" {
		if cfg.Store.Path == "" {
			return errors.New("store.encryptionKey requires store.path")
		}
		if _, err := crypto.ParseKey(cfg.Store.EncryptionKey); err != nil {
			return fmt.Errorf("store.encryptionKey: %w", err)
		}
	}

	// ── Relay ────────────────────────────────────────────────────────────────
	if m := cfg.Relay.Matrix; m.Enabled() {
		if m.UserID == "" || m.AccessToken == "" || m.RoomID == "" {
			return errors.New("relay.matrix: userId, accessToken and roomId are required with homeserver")
		}
		if !strings.HasPrefix(m.RoomID, "!") {
			return fmt.Errorf("relay.matrix.roomId %q must start with '!'", m.RoomID)
		}
	}
	if a := cfg.Relay.AMQP; a.Enabled() {
		if !strings.HasPrefix(a.URL, "amqp://") && !strings.HasPrefix(a.URL, "amqps://") {
			return errors.New("relay.amqp.url must be an amqp:// or amqps:// URL")
		}
		if a.RoutingKey == "" {
			return errors.New("relay.amqp.routingKey must not be empty")
		}
	}
	return nil
}

func validateBot(b Bot) error {
	if !messaging.IsBotID(b.ID) {
		return fmt.Errorf("id must be a bot id starting with %q, got %q", messaging.BotIDPrefix, b.ID)
	}
	if strings.TrimSpace(b.AppID) == "" {
		return errors.New("appId must not be empty")
	}
	if strings.TrimSpace(b.AppPassword) == "" {
		return errors.New("appPassword must not be empty")
	}
	if err := absoluteURL(b.ServiceURL); err != nil {
		return fmt.Errorf("serviceUrl: %w", err)
	}
	if err := absoluteURL(b.TokenURL); err != nil {
		return fmt.Errorf("tokenUrl: %w", err)
	}
	if b.CallbackURL != "" {
		if err := absoluteURL(b.CallbackURL); err != nil {
			return fmt.Errorf("callbackUrl: %w", err)
		}
	}
	return nil
}

func absoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q must be an absolute http(s) URL", raw)
	}
	return nil
}
