package resttimer

import (
	"testing"
	"time"
)

// waitFor fails the test if ch does not deliver within two seconds.
func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

// TestCountdownRunsToDone verifies the countdown ticks down to zero, fires
// the done callback once, and stops.
func TestCountdownRunsToDone(t *testing.T) {
	done := make(chan struct{}, 1)
	ticks := make(chan time.Duration, 16)
	c := NewCountdown(3*time.Second, func(r time.Duration) { ticks <- r }, func() { done <- struct{}{} })
	c.interval = 5 * time.Millisecond

	c.Start()
	waitFor(t, done, "countdown completion")

	if c.Remaining() != 0 {
		t.Errorf("remaining = %v, want 0", c.Remaining())
	}
	if c.Running() {
		t.Error("countdown still running after done")
	}
	// ticks decrease monotonically and end at zero
	var last time.Duration = 3*time.Second + 1
	for len(ticks) > 0 {
		r := <-ticks
		if r >= last {
			t.Errorf("tick %v not below previous %v", r, last)
		}
		last = r
	}
	if last != 0 {
		t.Errorf("final tick = %v, want 0", last)
	}
}

// TestCountdownPauseHoldsRemaining verifies pausing stops ticks and keeps
// the remaining time for a later resume.
func TestCountdownPauseHoldsRemaining(t *testing.T) {
	ticks := make(chan time.Duration, 64)
	c := NewCountdown(time.Hour, func(r time.Duration) { ticks <- r }, nil)
	c.interval = 5 * time.Millisecond

	c.Start()
	waitFor(t, ticks, "first tick")
	c.Pause()
	if c.Running() {
		t.Fatal("still running after pause")
	}

	before := c.Remaining()
	time.Sleep(30 * time.Millisecond)
	if got := c.Remaining(); got != before {
		t.Errorf("remaining drifted while paused: %v -> %v", before, got)
	}
	if before >= time.Hour {
		t.Errorf("remaining = %v, never decreased", before)
	}
}

// TestCountdownAddAndReset verifies the ±30 s adjustment floors at zero and
// that reset restores the initial duration.
func TestCountdownAddAndReset(t *testing.T) {
	c := NewCountdown(90*time.Second, nil, nil)

	c.Add(Increment)
	if got := c.Remaining(); got != 120*time.Second {
		t.Errorf("after +30s: %v", got)
	}
	c.Add(-Increment)
	c.Add(-Increment)
	c.Add(-Increment)
	c.Add(-Increment)
	if got := c.Remaining(); got != 0 {
		t.Errorf("floor: %v, want 0", got)
	}

	c.Reset()
	if got := c.Remaining(); got != 90*time.Second {
		t.Errorf("after reset: %v, want 90s", got)
	}
}

// TestElapsedTicksAndStops verifies the elapsed clock delivers growing
// values and goes quiet after Stop.
func TestElapsedTicksAndStops(t *testing.T) {
	ticks := make(chan time.Duration, 64)
	e := NewElapsed(time.Now().Add(-10*time.Minute), func(d time.Duration) { ticks <- d })
	e.interval = 5 * time.Millisecond

	e.Start()
	first := waitFor(t, ticks, "first elapsed tick")
	if first < 10*time.Minute {
		t.Errorf("elapsed = %v, want at least the pre-existing 10m", first)
	}

	e.Stop()
	e.Stop() // idempotent
	// drain anything in flight, then confirm silence
	time.Sleep(20 * time.Millisecond)
	for len(ticks) > 0 {
		<-ticks
	}
	time.Sleep(30 * time.Millisecond)
	if len(ticks) != 0 {
		t.Error("ticks after stop")
	}
}
