package llm

import (
	"context"
	"errors"
)

// Common errors. The simulation layer never surfaces these to its
// callers; both trigger the fallback responder.
var (
	ErrUnavailable = errors.New("llm unavailable")
	ErrRateLimited = errors.New("llm rate limited")
)

// Client is the minimal text-in/text-out surface the engine needs
// from a completion provider. Implementations must honor context
// cancellation; the turn executor always calls with a deadline.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleteFunc adapts a function to the Client interface. Used by
// tests to force failures or canned replies.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Client.
func (f CompleteFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
