package llm

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// RetryPolicy describes how transient completion-service failures are
// retried. It is a standalone value so the schedule can be tested without a
// live client.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// Multiplier scales the backoff after each failed attempt.
	Multiplier float64
}

// DefaultRetryPolicy retries once after 500ms, per the engine's failure
// semantics: a second consecutive failure escalates to the caller.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    2,
		InitialBackoff: 500 * time.Millisecond,
		Multiplier:     2.0,
	}
}

// WithRetry wraps client so that failed Complete calls are retried according
// to policy. Context cancellation and deadline expiry are never retried:
// the deadline belongs to the task, not to the transport.
func WithRetry(client Client, policy RetryPolicy) Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Multiplier <= 0 {
		policy.Multiplier = 1
	}
	return &retryClient{client: client, policy: policy}
}

type retryClient struct {
	client Client
	policy RetryPolicy
}

func (x *retryClient) Complete(ctx context.Context, prompt string, options ...CompleteOption) (*Completion, error) {
	backoff := x.policy.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= x.policy.MaxAttempts; attempt++ {
		resp, err := x.client.Complete(ctx, prompt, options...)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if attempt == x.policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * x.policy.Multiplier)
	}

	return nil, goerr.Wrap(lastErr, "completion failed after retries",
		goerr.V("attempts", x.policy.MaxAttempts))
}
