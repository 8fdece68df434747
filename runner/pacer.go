package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces chapters. The first Wait returns at once; after Rest, the
// next Wait returns one full interval later.
type pacer struct {
	limit   rate.Limit
	limiter *rate.Limiter
}

func newPacer(interval time.Duration) *pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &pacer{limit: limit, limiter: rate.NewLimiter(limit, 1)}
}

func (p *pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Rest starts the interval at the end of a chapter, so slow chapters do not
// eat into the delay before the next one.
func (p *pacer) Rest() {
	p.limiter = rate.NewLimiter(p.limit, 1)
	p.limiter.Allow()
}

// pause waits d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
