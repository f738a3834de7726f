package brew_test

import (
	"testing"

	"github.com/tmorelle/pourover/internal/brew"
)

func TestCountdownTicksOncePerWholeSecond(t *testing.T) {
	var ticks []int
	var expired int

	var cd brew.Countdown
	cd.Begin(5,
		func(remaining int) { ticks = append(ticks, remaining) },
		func() { expired++ },
	)

	if !cd.Active() {
		t.Fatal("countdown should be active after Begin")
	}
	if len(ticks) != 1 || ticks[0] != 5 {
		t.Fatalf("expected initial tick of 5, got %v", ticks)
	}

	// Fractional updates within the same whole second do not re-tick.
	cd.Update(4.8)
	cd.Update(4.2)
	if len(ticks) != 1 {
		t.Fatalf("fractional update should not tick, got %v", ticks)
	}

	cd.Update(3.9)
	cd.Update(2.1)
	cd.Update(0.4)
	if want := []int{5, 4, 3, 1}; !equalInts(ticks, want) {
		t.Errorf("ticks = %v, want %v", ticks, want)
	}
	if expired != 0 {
		t.Error("countdown expired early")
	}

	cd.Update(0)
	if expired != 1 {
		t.Errorf("expired %d times, want 1", expired)
	}
	if cd.Active() {
		t.Error("countdown should be inactive after expiry")
	}

	// Updates after expiry are no-ops.
	cd.Update(-3)
	cd.Update(10)
	if expired != 1 || len(ticks) != 4 {
		t.Errorf("post-expiry update had an effect: ticks=%v expired=%d", ticks, expired)
	}
}

func TestCountdownCancelSkipsExpire(t *testing.T) {
	var expired int

	var cd brew.Countdown
	cd.Begin(10, nil, func() { expired++ })
	cd.Cancel()

	if cd.Active() {
		t.Error("countdown should be inactive after Cancel")
	}
	if expired != 0 {
		t.Error("Cancel must not fire onExpire")
	}

	cd.Cancel()
	cd.Update(0)
	if expired != 0 {
		t.Error("cancelled countdown must stay silent")
	}
}

func TestCountdownNonPositiveDuration(t *testing.T) {
	var expired int
	var cd brew.Countdown

	cd.Begin(-3, nil, func() { expired++ })
	if expired != 1 {
		t.Errorf("negative duration should expire immediately, expired=%d", expired)
	}
	if cd.Active() {
		t.Error("countdown should be inactive")
	}
}

func TestCountdownReuse(t *testing.T) {
	var ticks []int
	var cd brew.Countdown

	cd.Begin(2, func(r int) { ticks = append(ticks, r) }, nil)
	cd.Update(0)

	cd.Begin(3, func(r int) { ticks = append(ticks, r) }, nil)
	cd.Update(1.5)

	if want := []int{2, 3, 2}; !equalInts(ticks, want) {
		t.Errorf("ticks = %v, want %v", ticks, want)
	}
	if got := cd.Remaining(); got != 2 {
		t.Errorf("Remaining = %d, want 2", got)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
