package brew

import "time"

// Ticker is the minimal surface of time.Ticker the coordinator needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts wall-clock time so tests can drive the coordinator
// deterministically. Exactly one ticker exists per active session; the
// coordinator owns its lifecycle and stops it on Reset.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// realTicker wraps time.Ticker to satisfy Ticker.
type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// realClock is the production Clock backed by the time package.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// NewClock returns the production wall clock.
func NewClock() Clock {
	return realClock{}
}
