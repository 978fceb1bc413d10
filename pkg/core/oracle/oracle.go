// Package oracle abstracts the external text-understanding service used for
// pattern recognition and relevance judgments. Every caller treats the oracle
// as fallible and keeps a deterministic fallback.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies oracle failures so call sites can dispatch fallbacks.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindMalformed   ErrorKind = "malformed"
	KindUnavailable ErrorKind = "unavailable"
)

// Error is the typed failure returned by oracle calls.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a failure kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// IsOracleError reports whether err is an oracle failure and returns it.
func IsOracleError(err error) (*Error, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// Provider is the interface for all LLM providers.
type Provider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// Client wraps a Provider with a per-call timeout and a single retry with
// backoff. On a second failure the call returns an *Error and the caller
// takes its deterministic fallback; the oracle is never retried indefinitely.
type Client struct {
	provider Provider
	timeout  time.Duration
	backoff  time.Duration
}

// NewClient creates a client with the given per-call timeout.
// A zero timeout defaults to 60s, matching the upstream HTTP clients.
func NewClient(provider Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{provider: provider, timeout: timeout, backoff: 2 * time.Second}
}

// SetBackoff overrides the delay before the single retry.
func (c *Client) SetBackoff(d time.Duration) { c.backoff = d }

// Ask sends a prompt with bounded context text to the oracle.
func (c *Client) Ask(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	if c == nil || c.provider == nil {
		return "", NewError(KindUnavailable, errors.New("no provider configured"))
	}

	resp, err := c.generateOnce(ctx, systemPrompt, userPrompt)
	if err == nil {
		return resp, nil
	}

	// Do not retry if the surrounding request was cancelled.
	if ctx.Err() != nil {
		return "", NewError(KindTimeout, ctx.Err())
	}

	select {
	case <-time.After(c.backoff):
	case <-ctx.Done():
		return "", NewError(KindTimeout, ctx.Err())
	}

	resp, retryErr := c.generateOnce(ctx, systemPrompt, userPrompt)
	if retryErr == nil {
		return resp, nil
	}

	if errors.Is(retryErr, context.DeadlineExceeded) {
		return "", NewError(KindTimeout, retryErr)
	}
	return "", NewError(KindUnavailable, retryErr)
}

func (c *Client) generateOnce(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.provider.Generate(callCtx, systemPrompt, userPrompt)
}
