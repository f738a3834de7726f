// Package testutil provides shared test helpers: a controllable fake
// clock, event recording, and stage fixtures.
package testutil

import (
	"sync"
	"time"

	"github.com/tmorelle/pourover/internal/brew"
)

// FakeClock implements brew.Clock with manually controlled time. Tickers
// it creates never fire on their own; tests call Fire to deliver a tick.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*FakeTicker
}

// NewFakeClock creates a fake clock starting at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward without firing any tickers.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewTicker returns a manually fired ticker.
func (c *FakeClock) NewTicker(d time.Duration) brew.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// Tickers returns all tickers created so far.
func (c *FakeClock) Tickers() []*FakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*FakeTicker, len(c.tickers))
	copy(out, c.tickers)
	return out
}

// FakeTicker is a brew.Ticker under test control.
type FakeTicker struct {
	mu      sync.Mutex
	ch      chan time.Time
	stopped bool
}

// C returns the tick channel.
func (t *FakeTicker) C() <-chan time.Time { return t.ch }

// Stop marks the ticker stopped. Fire becomes a no-op afterwards.
func (t *FakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Stopped reports whether Stop was called.
func (t *FakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Fire delivers one tick at the given time. Drops the tick if the
// receiver is not ready or the ticker is stopped, matching time.Ticker.
func (t *FakeTicker) Fire(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	select {
	case t.ch <- at:
	default:
	}
}
