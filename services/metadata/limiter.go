package metadata

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter bounds concurrent outstanding requests to a fixed size, honoring
// FIFO order among blocked waiters (Go's channel wait queues are FIFO),
// and optionally also enforces a minimum gap between dispatches via a token
// bucket. The request-path limiter uses concurrency only; the populator
// limiter additionally sets minGap so it respects the upstream budget.
type Limiter struct {
	sem  chan struct{}
	pace *rate.Limiter
}

// NewLimiter builds a Limiter allowing at most concurrency outstanding
// acquisitions. If minGap is non-zero, acquisitions are additionally
// throttled to no more than one dispatch per minGap.
func NewLimiter(concurrency int, minGap time.Duration) *Limiter {
	l := &Limiter{sem: make(chan struct{}, concurrency)}
	if minGap > 0 {
		l.pace = rate.NewLimiter(rate.Every(minGap), 1)
	}
	return l
}

// Acquire blocks until a slot is free (and, for the populator limiter, until
// the minimum gap has elapsed), or ctx is done. The returned release func
// must be called exactly once to free the slot.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if l.pace != nil {
		if err := l.pace.Wait(ctx); err != nil {
			return nil, err
		}
	}
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
