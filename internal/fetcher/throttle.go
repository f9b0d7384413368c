package fetcher

import (
	"context"
	"sync"
	"time"
)

// Throttle is a fixed-window limiter: it lets batchSize acquisitions through,
// then makes the next caller wait pause before a new window opens. Callers
// queue behind the waiting one, so the pause applies to every worker.
type Throttle struct {
	mu        sync.Mutex
	batchSize int
	pause     time.Duration
	issued    int
	windows   int
}

// NewThrottle creates a Throttle. A batchSize <= 0 disables throttling.
func NewThrottle(batchSize int, pause time.Duration) *Throttle {
	return &Throttle{
		batchSize: batchSize,
		pause:     pause,
	}
}

// Wait blocks until the caller may issue one request or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t == nil || t.batchSize <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.issued >= t.batchSize {
		if t.pause > 0 {
			timer := time.NewTimer(t.pause)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
		t.issued = 0
		t.windows++
	}
	t.issued++
	return nil
}

// Pauses returns how many times the throttle has paused between windows.
func (t *Throttle) Pauses() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.windows
}
