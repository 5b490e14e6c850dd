// Package auth acquires the bearer tokens outbound platform calls carry.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bdobrica/Kaiwa/common/redact"
	"github.com/bdobrica/Kaiwa/common/retry"
	"github.com/bdobrica/Kaiwa/common/version"
)

// TokenProvider returns a token valid for at least the next request.
// Implementations must be safe for concurrent use.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Static is a TokenProvider returning a fixed token.
type Static string

// Token implements TokenProvider.
func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("auth: static token is empty")
	}
	return string(s), nil
}

// ClientCredentialsConfig configures the OAuth2 client-credentials grant.
type ClientCredentialsConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	// RenewBefore renews a cached token this long before it expires.
	// Defaults to 5 minutes.
	RenewBefore time.Duration
	// Timeout bounds each token request. Defaults to 10 seconds.
	Timeout time.Duration
	Retry   retry.Policy
}

// ClientCredentials fetches and caches tokens with the client-credentials
// grant. Concurrent callers share one in-flight refresh.
type ClientCredentials struct {
	cfg    ClientCredentialsConfig
	client *http.Client
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClientCredentials returns a provider for cfg.
func NewClientCredentials(cfg ClientCredentialsConfig) *ClientCredentials {
	if cfg.RenewBefore == 0 {
		cfg.RenewBefore = 5 * time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry = retry.DefaultPolicy
	}
	return &ClientCredentials{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// Token implements TokenProvider.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(c.cfg.RenewBefore).Before(c.expires) {
		return c.token, nil
	}

	var tr tokenResponse
	err := retry.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		var err error
		tr, err = c.fetch(ctx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("auth: fetch token: %w", err)
	}
	c.token = tr.AccessToken
	c.expires = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return c.token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (c *ClientCredentials) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *ClientCredentials) fetch(ctx context.Context) (tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	if c.cfg.Scope != "" {
		form.Set("scope", c.cfg.Scope)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", version.UserAgent())

	fields := make(map[string]any, len(form))
	for k := range form {
		fields[k] = form.Get(k)
	}
	slog.Debug("auth: requesting token", "url", c.cfg.TokenURL, "form", redact.Map(fields))

	resp, err := c.client.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("read response: %w", err)
	}
	var tr tokenResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &tr); err != nil && resp.StatusCode < 300 {
			return tokenResponse{}, retry.Permanent(fmt.Errorf("decode response: %w", err))
		}
	}
	if err := retry.CheckStatus(resp.StatusCode); err != nil {
		if tr.Error != "" {
			return tokenResponse{}, fmt.Errorf("%w: %s: %s", err, tr.Error, tr.Description)
		}
		return tokenResponse{}, err
	}
	if tr.AccessToken == "" {
		return tokenResponse{}, retry.Permanent(errors.New("response carries no access_token"))
	}
	if tr.ExpiresIn <= 0 {
		return tokenResponse{}, retry.Permanent(fmt.Errorf("invalid expires_in %d", tr.ExpiresIn))
	}
	return tr, nil
}
