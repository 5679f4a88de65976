package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces the politeness delay. Every request waits for its own slot,
// slots are at least delay apart and the first one is delay after the first
// call. An optional token bucket caps the sustained request rate on top.
type Pacer struct {
	delay   time.Duration
	limiter *rate.Limiter

	mu   sync.Mutex
	next time.Time
}

// NewPacer creates a pacer. requestsPerSecond <= 0 disables the token bucket.
func NewPacer(delay time.Duration, requestsPerSecond float64) *Pacer {
	p := &Pacer{delay: delay}
	if requestsPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return p
}

// Wait blocks until the caller may issue its request.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}

	if p.delay > 0 {
		p.mu.Lock()
		now := time.Now()
		start := p.next
		if start.Before(now) {
			start = now
		}
		slot := start.Add(p.delay)
		p.next = slot
		p.mu.Unlock()

		timer := time.NewTimer(time.Until(slot))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
