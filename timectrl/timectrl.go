package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock gives components access to the current time without binding them
// to the wall clock, so tick logic can be driven deterministically in tests.
type SimClock interface {
	// Now returns the current time.
	Now() time.Time
}

// WallClock is a SimClock backed by time.Now.
type WallClock struct{}

// Now implements SimClock.
func (WallClock) Now() time.Time { return time.Now() }

// ManualClock is a SimClock whose time only moves when told to. It is
// intended for tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a clock fixed at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now implements SimClock.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// TickFunc is invoked once per tick with the tick's timestamp. Returning an
// error stops the controller.
type TickFunc func(ctx context.Context, now time.Time) error

// TimeController drives a fixed-period tick loop. Ticks are delivered
// sequentially from a single goroutine; a tick that overruns its period delays
// the next one rather than overlapping it.
type TimeController struct {
	Tick  time.Duration
	Clock SimClock

	mu        sync.Mutex
	listeners []TickFunc
	ticks     uint64
}

// NewTimeController constructs a controller ticking every tick on clock.
func NewTimeController(tick time.Duration, clock SimClock) *TimeController {
	if clock == nil {
		clock = WallClock{}
	}
	return &TimeController{
		Tick:  tick,
		Clock: clock,
	}
}

// AddListener registers a callback invoked on every tick, in registration
// order.
func (tc *TimeController) AddListener(fn TickFunc) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Ticks returns how many ticks have been delivered.
func (tc *TimeController) Ticks() uint64 {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.ticks
}

// Step delivers a single tick at the clock's current time.
func (tc *TimeController) Step(ctx context.Context) error {
	now := tc.Clock.Now()

	tc.mu.Lock()
	listeners := append([]TickFunc(nil), tc.listeners...)
	tc.ticks++
	tc.mu.Unlock()

	for _, fn := range listeners {
		if err := fn(ctx, now); err != nil {
			return err
		}
	}
	return nil
}

// Run ticks until ctx is cancelled or a listener returns an error. A
// cancelled context is not reported as an error.
func (tc *TimeController) Run(ctx context.Context) error {
	ticker := time.NewTicker(tc.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := tc.Step(ctx); err != nil {
				return err
			}
		}
	}
}
