package engine

import (
	"fmt"
	"sync"
	"time"
)

// Countdown is the single authoritative clock for a session. It ticks once
// per second while running, never goes below zero, and fires onExpire exactly
// once when it reaches zero.
type Countdown struct {
	mu        sync.Mutex
	total     int
	remaining int
	running   bool
	expired   bool
	onExpire  func()
	interval  time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewCountdown starts a countdown from total seconds. onExpire may be nil.
func NewCountdown(total int, onExpire func()) *Countdown {
	return newCountdownWithInterval(total, time.Second, onExpire)
}

// newCountdownWithInterval lets tests tick faster than wall-clock seconds.
func newCountdownWithInterval(total int, interval time.Duration, onExpire func()) *Countdown {
	c := &Countdown{
		total:     total,
		remaining: total,
		running:   true,
		onExpire:  onExpire,
		interval:  interval,
		stop:      make(chan struct{}),
	}
	go c.run(c.stop)
	return c
}

func (c *Countdown) run(stop <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.tick() {
				return
			}
		}
	}
}

// tick decrements once and reports whether the countdown finished.
func (c *Countdown) tick() bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		c.mu.Unlock()
		return false
	}
	c.running = false
	fire := !c.expired
	c.expired = true
	onExpire := c.onExpire
	c.mu.Unlock()

	if fire && onExpire != nil {
		onExpire()
	}
	return true
}

// Remaining returns the seconds left on the clock.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Formatted renders the remaining time as M:SS.
func (c *Countdown) Formatted() string {
	return formatSeconds(c.Remaining())
}

// formatSeconds renders M:SS with no leading zero on minutes.
func formatSeconds(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Running reports whether the clock is ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Pause halts the clock without resetting remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

// Resume restarts a paused clock.
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.expired {
		c.running = true
	}
}

// Reset restores the original total and resumes running, even from an
// expired clock. The tick goroutine exits on expiry, so that case spawns a
// fresh one.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = c.total
	c.running = true
	if c.expired {
		c.expired = false
		c.stopOnce.Do(func() { close(c.stop) })
		c.stop = make(chan struct{})
		c.stopOnce = sync.Once{}
		go c.run(c.stop)
	}
}

// Stop releases the tick goroutine. Safe to call more than once; a stopped
// countdown never fires onExpire unless Reset revives it.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.expired = true
	c.stopOnce.Do(func() { close(c.stop) })
}
