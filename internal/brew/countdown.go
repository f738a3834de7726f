package brew

import "math"

// Countdown counts a short interval down to zero: the pre-roll before a
// session starts and the wait portion of a stage. It holds no timer of its
// own; the coordinator advances it from the single session ticker, which
// is what guarantees no countdown outlives a Reset.
type Countdown struct {
	active   bool
	last     int
	onTick   func(remaining int)
	onExpire func()
}

// Begin arms the countdown for the given number of seconds. A non-positive
// duration expires immediately on the next update. onTick fires once per
// whole-second decrement, including one for the initial value; onExpire
// fires exactly once when the countdown reaches zero.
func (c *Countdown) Begin(seconds int, onTick func(remaining int), onExpire func()) {
	if seconds < 0 {
		seconds = 0
	}
	c.active = true
	c.last = seconds + 1 // force an onTick for the initial value
	c.onTick = onTick
	c.onExpire = onExpire
	c.Update(float64(seconds))
}

// Update advances the countdown to the given remaining time in seconds.
// Called by the coordinator on every session tick while the countdown is
// active; no-op otherwise.
func (c *Countdown) Update(remaining float64) {
	if !c.active {
		return
	}

	if remaining <= 0 {
		c.expire()
		return
	}

	whole := int(math.Ceil(remaining))
	if whole < c.last {
		c.last = whole
		if c.onTick != nil {
			c.onTick(whole)
		}
	}
}

func (c *Countdown) expire() {
	onExpire := c.onExpire
	c.reset()
	if onExpire != nil {
		onExpire()
	}
}

// Cancel stops the countdown without firing onExpire. Idempotent.
func (c *Countdown) Cancel() {
	c.reset()
}

func (c *Countdown) reset() {
	c.active = false
	c.last = 0
	c.onTick = nil
	c.onExpire = nil
}

// Active reports whether a countdown is in progress.
func (c *Countdown) Active() bool {
	return c.active
}

// Remaining returns the last whole-second value delivered to onTick, or 0
// when inactive.
func (c *Countdown) Remaining() int {
	if !c.active {
		return 0
	}
	return c.last
}
