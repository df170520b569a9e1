package resilience

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/Kenfack-franck/jobHunterAi/pkg/fn"
)

// ErrRateLimited is returned by the non-blocking paths when no token is
// available.
var ErrRateLimited = errors.New("rate limited")

// LimiterOpts configures a token bucket. Rate is tokens per second, Burst
// the bucket capacity. Job boards tolerate roughly one request every couple
// of seconds, so adapters run with fractional rates.
type LimiterOpts struct {
	Rate  float64
	Burst int
}

// Limiter is a token bucket rate limiter.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter creates a limiter. A non-positive burst becomes 1.
func NewLimiter(opts LimiterOpts) *Limiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst)}
}

// Allow reports whether a token is available, consuming one if so.
func (l *Limiter) Allow() bool {
	return l.bucket.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}

// Call executes f if a token is available, otherwise returns ErrRateLimited.
func (l *Limiter) Call(ctx context.Context, f func(context.Context) error) error {
	if !l.Allow() {
		return ErrRateLimited
	}
	return f(ctx)
}

// CallWait waits for a token, then executes f.
func (l *Limiter) CallWait(ctx context.Context, f func(context.Context) error) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	return f(ctx)
}

// LimiterStage wraps an fn.Stage, failing fast with ErrRateLimited when the
// bucket is empty.
func LimiterStage[In, Out any](l *Limiter, stage fn.Stage[In, Out]) fn.Stage[In, Out] {
	return func(ctx context.Context, in In) fn.Result[Out] {
		if !l.Allow() {
			return fn.Err[Out](ErrRateLimited)
		}
		return stage(ctx, in)
	}
}

// LimiterStageWait wraps an fn.Stage, waiting for a token before running it.
func LimiterStageWait[In, Out any](l *Limiter, stage fn.Stage[In, Out]) fn.Stage[In, Out] {
	return func(ctx context.Context, in In) fn.Result[Out] {
		if err := l.Wait(ctx); err != nil {
			return fn.Err[Out](err)
		}
		return stage(ctx, in)
	}
}
