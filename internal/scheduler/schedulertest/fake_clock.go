// Package schedulertest provides a manually advanced clock for scheduler tests.
package schedulertest

import (
	"sync"
	"time"

	"github.com/fridgewatch/fridgewatch/backend/internal/scheduler"
)

// FakeClock is a scheduler.Clock that only moves when Advance is called.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

var _ scheduler.Clock = (*FakeClock)(nil)

// NewFakeClock creates a FakeClock set to now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

type fakeWaiter struct {
	clock    *FakeClock
	ch       chan time.Time
	deadline time.Time
	period   time.Duration
	active   bool
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NewTimer(d time.Duration) scheduler.Timer {
	return c.add(d, 0)
}

func (c *FakeClock) NewTicker(d time.Duration) scheduler.Ticker {
	if d <= 0 {
		panic("schedulertest: non-positive ticker period")
	}
	return fakeTicker{c.add(d, d)}
}

func (c *FakeClock) add(d, period time.Duration) *fakeWaiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &fakeWaiter{
		clock:    c,
		ch:       make(chan time.Time, 1),
		deadline: c.now.Add(d),
		period:   period,
		active:   true,
	}
	c.waiters = append(c.waiters, w)
	return w
}

// Advance moves time forward by d, firing due timers and tickers in deadline
// order. Like real tickers, a tick is dropped if the previous one has not been
// received.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	end := c.now.Add(d)
	for {
		var next *fakeWaiter
		for _, w := range c.waiters {
			if !w.active || w.deadline.After(end) {
				continue
			}
			if next == nil || w.deadline.Before(next.deadline) {
				next = w
			}
		}
		if next == nil {
			break
		}
		if next.deadline.After(c.now) {
			c.now = next.deadline
		}
		select {
		case next.ch <- c.now:
		default:
		}
		if next.period > 0 {
			next.deadline = next.deadline.Add(next.period)
		} else {
			next.active = false
		}
	}
	c.now = end
}

// Pending reports how many timers and tickers are armed.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.waiters {
		if w.active {
			n++
		}
	}
	return n
}

func (w *fakeWaiter) C() <-chan time.Time { return w.ch }

func (w *fakeWaiter) Stop() bool {
	w.clock.mu.Lock()
	defer w.clock.mu.Unlock()
	was := w.active
	w.active = false
	w.drain()
	return was
}

func (w *fakeWaiter) Reset(d time.Duration) bool {
	w.clock.mu.Lock()
	defer w.clock.mu.Unlock()
	was := w.active
	w.active = true
	w.deadline = w.clock.now.Add(d)
	w.drain()
	return was
}

type fakeTicker struct{ w *fakeWaiter }

func (t fakeTicker) C() <-chan time.Time { return t.w.ch }
func (t fakeTicker) Stop()               { t.w.Stop() }

func (w *fakeWaiter) drain() {
	select {
	case <-w.ch:
	default:
	}
}
