// Package oracle talks to the external text-generation service. The
// service is treated as non-deterministic and fallible; callers decide
// whether a failure is fatal (generation) or absorbed (grading).
package oracle

import "context"

// Client sends a single prompt and returns the raw completion text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleteFunc adapts a plain function to a Client, mainly for tests.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleteFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
