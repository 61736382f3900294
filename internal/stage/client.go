// Package stage implements the resilient remote pipeline stages.
// Every stage resolves: remote failures degrade to a synthesized
// result flagged IsMock instead of propagating an error.
package stage

import (
	"context"
	"time"

	"github.com/vocalcoach/platform/internal/resilience"
	"github.com/vocalcoach/platform/internal/syncx"
	"github.com/vocalcoach/platform/internal/trace"
)

// Result is the outcome of one stage invocation. IsMock is always
// defined; Token is the epoch the call was issued under so callers can
// discard results that outlived their session.
type Result[T any] struct {
	Value  T
	IsMock bool
	Note   string
	Token  syncx.Token
}

// Client wraps one remote stage behind a breaker, a soft deadline, and
// a fallback. Invoke never returns an error.
type Client[In, Out any] struct {
	name     string
	timeout  time.Duration
	breaker  *resilience.Breaker
	epoch    *syncx.Epoch
	call     func(context.Context, In) (Out, error)
	fallback func(In) Out
}

// NewClient builds a stage client. call hits the remote collaborator;
// fallback synthesizes a substitute result from the same input.
func NewClient[In, Out any](
	name string,
	timeout time.Duration,
	epoch *syncx.Epoch,
	call func(context.Context, In) (Out, error),
	fallback func(In) Out,
) *Client[In, Out] {
	return &Client[In, Out]{
		name:     name,
		timeout:  timeout,
		breaker:  resilience.New(resilience.StageConfig()),
		epoch:    epoch,
		call:     call,
		fallback: fallback,
	}
}

// Invoke runs the stage once. The returned result carries the epoch
// token current at call time; callers compare it against the live
// epoch before applying the result.
func (c *Client[In, Out]) Invoke(ctx context.Context, in In) Result[Out] {
	token := c.epoch.Current()

	ctx, span := trace.StartSpan(ctx, "stage."+c.name)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := resilience.ExecuteWithResult(c.breaker, func() (Out, error) {
		return c.call(callCtx, in)
	})
	if err != nil {
		span.SetAttr("degraded", true)
		trace.Logger(ctx).Warn("stage degraded to synthetic result",
			"stage", c.name, "error", err)
		return Result[Out]{
			Value:  c.fallback(in),
			IsMock: true,
			Note:   "Using demo data: " + c.name + " is unavailable.",
			Token:  token,
		}
	}
	return Result[Out]{Value: out, Token: token}
}

// Breaker exposes the stage's circuit breaker state for health surfaces.
func (c *Client[In, Out]) Breaker() *resilience.Breaker { return c.breaker }
