// Package gateway paces every outbound call to the storefront API so that no
// two calls leave this process less than a minimum interval apart.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the spacing the storefront tolerates between calls.
const DefaultMinInterval = 1500 * time.Millisecond

var ErrRemoteTimeout = errors.New("remote call timed out")

// Pacer hands out call slots at least interval apart. It is safe for
// concurrent use and is meant to be shared by every call site that talks to
// the same remote API.
type Pacer struct {
	timeout time.Duration
	limiter *rate.Limiter
}

// New returns a pacer spacing calls by interval and bounding each call by
// timeout. A zero interval disables pacing, a zero timeout disables the bound.
func New(interval, timeout time.Duration) *Pacer {
	// burst 1 means one slot per interval and never a backlog of slots
	return &Pacer{
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the caller may issue its call. The slot is taken before
// returning, so the next caller is spaced from this one whatever the outcome
// of the call.
func (p *Pacer) Wait(ctx context.Context) error {
	err := p.limiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for call slot: %w", err)
	}

	return nil
}

// Do waits for a slot and runs fn under the per-call timeout. A call cut off
// by that timeout is reported as ErrRemoteTimeout.
func (p *Pacer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	err := p.Wait(ctx)
	if err != nil {
		return err
	}

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err = fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrRemoteTimeout, p.timeout, err)
	}

	return err
}
