// Package retry runs calls against the bot platform with exponential backoff.
//
// Errors are retried unless they are marked permanent with Permanent or a
// custom Policy.Retryable rejects them. StatusError classifies HTTP response
// codes so callers only need to return it for non-2xx replies:
//
//	err := retry.Do(ctx, retry.DefaultPolicy, func(ctx context.Context) error {
//	    resp, err := client.Do(req.WithContext(ctx))
//	    if err != nil {
//	        return err
//	    }
//	    defer resp.Body.Close()
//	    return retry.CheckStatus(resp.StatusCode)
//	})
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Policy controls how often and how patiently a call is retried.
type Policy struct {
	// Attempts is the total number of calls, the first included. Values
	// below 1 mean a single call.
	Attempts int
	// Base is the wait before the second call. It doubles after every
	// failure up to Cap.
	Base time.Duration
	Cap  time.Duration
	// Retryable decides whether err warrants another call. When nil, every
	// error not wrapped by Permanent is retried.
	Retryable func(err error) bool
}

// DefaultPolicy suits token fetches and outbound platform calls.
var DefaultPolicy = Policy{
	Attempts: 3,
	Base:     250 * time.Millisecond,
	Cap:      5 * time.Second,
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. The result still matches err
// with errors.Is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// StatusError reports a non-2xx HTTP reply.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// CheckStatus returns nil for 2xx codes. 5xx, 408 and 429 replies yield a
// retryable *StatusError; every other code yields a permanent one.
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500, code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return &StatusError{Code: code}
	default:
		return Permanent(&StatusError{Code: code})
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, the policy
// runs out of attempts, or ctx is done. The last error from fn is returned,
// joined with the context error when the context ended the loop.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)
	wait := p.Base
	if wait <= 0 {
		wait = DefaultPolicy.Base
	}
	limit := p.Cap
	if limit <= 0 {
		limit = DefaultPolicy.Cap
	}

	var last error
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(last, err)
		}
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if IsPermanent(last) {
			return last
		}
		if p.Retryable != nil && !p.Retryable(last) {
			return last
		}
		if n >= attempts {
			return last
		}

		slog.Debug("retry: call failed, backing off",
			"attempt", n, "attempts", attempts, "err", last, "wait", wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(last, ctx.Err())
		case <-timer.C:
		}
		wait = min(wait*2, limit)
	}
}
