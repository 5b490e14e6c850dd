// Package transport sends messages and attachments to the bot platform.
//
// Every outbound payload is validated as a model, checked against its wire
// schema once serialized, and only then transmitted with the bearer token
// of the configured TokenProvider.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bdobrica/Kaiwa/common/redact"
	"github.com/bdobrica/Kaiwa/common/retry"
	"github.com/bdobrica/Kaiwa/common/spec/messaging"
	"github.com/bdobrica/Kaiwa/common/spec/rules"
	"github.com/bdobrica/Kaiwa/common/spec/schema"
	"github.com/bdobrica/Kaiwa/common/trace"
	"github.com/bdobrica/Kaiwa/common/version"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/auth"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/observability"
)

// ErrInvalidPayload is returned, wrapping the findings, when a payload fails
// validation before it is sent.
var ErrInvalidPayload = errors.New("transport: invalid payload")

// ErrInvalidResponse is returned when the platform answers with a body that
// does not describe a valid response model.
var ErrInvalidResponse = errors.New("transport: invalid response")

const maxResponseBytes = 32 << 20

// Config configures a Client.
type Config struct {
	// ServiceURL is the platform API root, e.g. https://api.skype.net.
	ServiceURL string
	// Timeout bounds each HTTP request. Defaults to 30 seconds.
	Timeout time.Duration
	Retry   retry.Policy
}

// Client is safe for concurrent use.
type Client struct {
	cfg    Config
	tokens auth.TokenProvider
	http   *http.Client
}

// New returns a Client authenticating with tokens.
func New(cfg Config, tokens auth.TokenProvider) *Client {
	cfg.ServiceURL = strings.TrimRight(cfg.ServiceURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry = retry.DefaultPolicy
	}
	return &Client{cfg: cfg, tokens: tokens, http: &http.Client{Timeout: cfg.Timeout}}
}

// SendText sends a plain text message to a user or group conversation.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	return c.SendMessage(ctx, to, messaging.Text(text))
}

// SendMessage sends msg to the conversation to.
func (c *Client) SendMessage(ctx context.Context, to string, msg *messaging.MessageToSend) error {
	data, err := encode(schema.Message, msg)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, "send_message", http.MethodPost, conversationPath(to, "activities"), data)
	return err
}

// SendAttachment uploads an attachment into the conversation to and returns
// the id the platform assigned to it.
func (c *Client) SendAttachment(ctx context.Context, to string, a *messaging.AttachmentToSend) (*messaging.AttachmentResponse, error) {
	data, err := encode(schema.Attachment, a)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, "send_attachment", http.MethodPost, conversationPath(to, "attachments"), data)
	if err != nil {
		return nil, err
	}
	return decode(body, messaging.NewAttachmentResponse)
}

// GetAttachmentInfo returns the metadata of a stored attachment.
func (c *Client) GetAttachmentInfo(ctx context.Context, id string) (*messaging.AttachmentInfo, error) {
	body, err := c.do(ctx, "attachment_info", http.MethodGet, "/v3/attachments/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decode(body, messaging.NewAttachmentInfo)
}

// GetAttachmentView downloads one rendition of a stored attachment.
func (c *Client) GetAttachmentView(ctx context.Context, id string, view messaging.ViewID) ([]byte, error) {
	path := "/v3/attachments/" + url.PathEscape(id) + "/views/" + url.PathEscape(string(view))
	return c.do(ctx, "attachment_view", http.MethodGet, path, nil)
}

func conversationPath(to, leaf string) string {
	return "/v3/conversations/" + url.PathEscape(to) + "/" + leaf
}

// encode validates v and serializes it, checking the result against the
// named schema.
func encode(name schema.Name, v rules.Validator) ([]byte, error) {
	if problems := v.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, rules.Join(problems))
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal: %w", err)
	}
	if err := schema.ValidateJSON(name, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return data, nil
}

func decode[T rules.Validator](body []byte, build func(map[string]any) (T, error)) (T, error) {
	var zero T
	var src map[string]any
	if err := json.Unmarshal(body, &src); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	v, err := build(src)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if err := rules.Check(v); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return v, nil
}

type invalidator interface {
	Invalidate()
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) (body []byte, err error) {
	log := observability.WithTrace(ctx)
	defer func() {
		observability.OutboundRequestsTotal.WithLabelValues(op, observability.Result(err)).Inc()
	}()

	refreshed := false
	err = retry.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return retry.Permanent(err)
		}
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.cfg.ServiceURL+path, rd)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("User-Agent", version.UserAgent())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		trace.Inject(ctx, req)
		log.Debug("outbound request", "op", op, "method", method, "headers", redact.Headers(req.Header))

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		// A rejected token is refreshed once; the platform may have revoked
		// it before its advertised expiry.
		if resp.StatusCode == http.StatusUnauthorized && !refreshed {
			if inv, ok := c.tokens.(invalidator); ok {
				refreshed = true
				inv.Invalidate()
				return &retry.StatusError{Code: resp.StatusCode}
			}
		}
		if err := retry.CheckStatus(resp.StatusCode); err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		log.Warn("outbound call failed", "op", op, "path", path, "err", observability.Scrub(err.Error()))
		return nil, fmt.Errorf("transport: %s: %w", op, err)
	}
	log.Debug("outbound call ok", "op", op, "path", path, "bytes", len(body))
	return body, nil
}
