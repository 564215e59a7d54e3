package dispatch

import (
	"context"
	"sync"
	"time"
)

// Clock is the loop's time source in milliseconds.
type Clock interface {
	NowMs() float64
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// WallClock reads monotonic time since its creation.
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) NowMs() float64 {
	return float64(time.Since(c.start)) / float64(time.Millisecond)
}

func (c *WallClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ManualClock only moves when told to. Sleep advances it instantly, which
// lets a whole Run be simulated without waiting.
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

func NewManualClock(startMs float64) *ManualClock {
	return &ManualClock{now: startMs}
}

func (c *ManualClock) NowMs() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ms.
func (c *ManualClock) Advance(ms float64) {
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}

func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(float64(d) / float64(time.Millisecond))
	return nil
}
