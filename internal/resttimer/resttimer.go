// Package resttimer provides the two periodic timers a running workout
// shows: a user-controlled rest countdown and a once-per-second elapsed
// clock. Both deliver ticks to a callback and stop cleanly; neither gates
// any session state transition.
package resttimer

import (
	"sync"
	"time"
)

// Increment is the step the countdown adjusts by.
const Increment = 30 * time.Second

// Countdown is a pausable rest timer counting down to zero.
type Countdown struct {
	onTick func(remaining time.Duration)
	onDone func()

	mu        sync.Mutex
	remaining time.Duration
	initial   time.Duration
	interval  time.Duration
	stop      chan struct{}
}

// NewCountdown creates a stopped countdown. Both callbacks may be nil; they
// are invoked from the timer goroutine.
func NewCountdown(d time.Duration, onTick func(remaining time.Duration), onDone func()) *Countdown {
	return &Countdown{
		onTick:    onTick,
		onDone:    onDone,
		remaining: d,
		initial:   d,
		interval:  time.Second,
	}
}

// Start begins (or resumes) ticking. Starting a running or exhausted
// countdown is a no-op.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil || c.remaining <= 0 {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	go c.run(stop)
}

// Pause halts ticking without losing the remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

func (c *Countdown) pauseLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Reset stops the countdown and restores the initial duration.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
	c.remaining = c.initial
}

// Add shifts the remaining time by delta, floored at zero. The countdown
// keeps running if it was running.
func (c *Countdown) Add(delta time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining += delta
	if c.remaining < 0 {
		c.remaining = 0
	}
}

// Remaining returns the time left.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Countdown) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.stop != stop {
				c.mu.Unlock()
				return
			}
			c.remaining -= c.interval
			if c.remaining < 0 {
				c.remaining = 0
			}
			remaining := c.remaining
			done := remaining == 0
			if done {
				c.stop = nil
			}
			c.mu.Unlock()

			if c.onTick != nil {
				c.onTick(remaining)
			}
			if done {
				if c.onDone != nil {
					c.onDone()
				}
				return
			}
		}
	}
}

// Elapsed is the once-per-second session clock. It reports time since a
// fixed start, so a resumed session shows the true elapsed time rather
// than restarting from zero.
type Elapsed struct {
	onTick func(elapsed time.Duration)

	mu       sync.Mutex
	since    time.Time
	interval time.Duration
	stop     chan struct{}
}

// NewElapsed creates a stopped elapsed clock ticking against since.
func NewElapsed(since time.Time, onTick func(elapsed time.Duration)) *Elapsed {
	return &Elapsed{onTick: onTick, since: since, interval: time.Second}
}

// Start begins ticking. Starting a running clock is a no-op.
func (e *Elapsed) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		return
	}
	stop := make(chan struct{})
	e.stop = stop
	go e.run(stop)
}

// Stop tears the clock down. Safe to call repeatedly.
func (e *Elapsed) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

func (e *Elapsed) run(stop chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if e.onTick != nil {
				e.onTick(time.Since(e.since))
			}
		}
	}
}
