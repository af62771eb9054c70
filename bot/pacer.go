package bot

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between consecutive outbound sends.
// Every send path blocks on Wait first, so a backlog of replies queues
// behind the interval instead of flooding the radio channel. The mutex is
// held across the wait: concurrent callers line up in turn.
type Pacer struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time

	// Injected for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer with the given minimum inter-send interval.
// A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until at least the configured interval has passed since the
// previous send, or until the context is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if wait := p.interval - p.now().Sub(p.last); wait > 0 {
			if err := p.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	p.last = p.now()
	return nil
}

// sleepContext sleeps for d unless the context is done first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
