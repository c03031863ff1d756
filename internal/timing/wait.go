// internal/timing/wait.go
package timing

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// ErrWaitExhausted is returned by WaitUntil when the predicate never held.
var ErrWaitExhausted = errors.New("condition not met within the polling budget")

// Predicate is polled by WaitUntil. An error aborts the wait.
type Predicate func(ctx context.Context) (bool, error)

// WaitUntil polls pred up to maxAttempts times, sleeping interval between
// attempts on clock. It never blocks indefinitely: the total suspension is
// bounded by (maxAttempts-1)*interval.
func WaitUntil(ctx context.Context, clock Clock, pred Predicate, maxAttempts int, interval time.Duration) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxAttempts-1)),
		ctx,
	)

	operation := func() error {
		ok, err := pred(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return ErrWaitExhausted
		}
		return nil
	}

	return backoff.RetryNotifyWithTimer(operation, b, nil, &clockTimer{ctx: ctx, clock: clock})
}

// clockTimer is a backoff.Timer that waits on a Clock. Start sleeps
// synchronously, so a FakeClock fires immediately and no goroutine is left
// behind.
type clockTimer struct {
	ctx   context.Context
	clock Clock
	c     chan time.Time
}

func (t *clockTimer) Start(d time.Duration) {
	t.c = make(chan time.Time, 1)
	// On cancellation the channel stays silent; the retry loop watches ctx.
	if err := t.clock.Sleep(t.ctx, d); err == nil {
		t.c <- t.clock.Now()
	}
}

func (t *clockTimer) Stop() {}

func (t *clockTimer) C() <-chan time.Time { return t.c }

// Pacer spaces out events (one posting after another) with a token bucket.
// The limiter is evaluated against the injected clock rather than the wall
// clock so tests stay deterministic.
type Pacer struct {
	clock   Clock
	limiter *rate.Limiter
}

// NewPacer allows one event per every. A non-positive every disables pacing.
func NewPacer(clock Clock, every time.Duration) *Pacer {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &Pacer{clock: clock, limiter: rate.NewLimiter(limit, 1)}
}

// Wait suspends until the next event is allowed.
func (p *Pacer) Wait(ctx context.Context) error {
	now := p.clock.Now()
	r := p.limiter.ReserveN(now, 1)
	if !r.OK() {
		return errors.New("pacer: reservation exceeds burst")
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return ctx.Err()
	}
	if err := p.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(p.clock.Now())
		return err
	}
	return nil
}
