package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	var fired atomic.Int32
	c := newCountdownWithInterval(5, time.Millisecond, func() {
		fired.Add(1)
	})
	defer c.Stop()

	deadline := time.After(2 * time.Second)
	for c.Running() {
		select {
		case <-deadline:
			t.Fatalf("countdown never expired")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Give any stray tick time to fire again; it must not.
	time.Sleep(20 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected onExpire once, fired %d times", got)
	}
	if c.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", c.Remaining())
	}
}

func TestCountdownNeverGoesNegative(t *testing.T) {
	c := newCountdownWithInterval(1, time.Millisecond, nil)
	defer c.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := c.Remaining(); got != 0 {
		t.Fatalf("expected clock pinned at 0, got %d", got)
	}
}

func TestCountdownPauseResume(t *testing.T) {
	c := newCountdownWithInterval(1000, time.Millisecond, nil)
	defer c.Stop()

	c.Pause()
	if c.Running() {
		t.Fatalf("expected paused clock")
	}
	frozen := c.Remaining()
	time.Sleep(20 * time.Millisecond)
	if got := c.Remaining(); got != frozen {
		t.Fatalf("paused clock moved from %d to %d", frozen, got)
	}

	c.Resume()
	if !c.Running() {
		t.Fatalf("expected running clock after resume")
	}
}

func TestCountdownStopSuppressesExpiry(t *testing.T) {
	var fired atomic.Int32
	c := newCountdownWithInterval(2, time.Millisecond, func() {
		fired.Add(1)
	})
	c.Stop()

	time.Sleep(20 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("stopped countdown fired onExpire %d times", got)
	}
}

func TestCountdownResetAfterExpiryRestarts(t *testing.T) {
	var fired atomic.Int32
	c := newCountdownWithInterval(1, time.Millisecond, func() {
		fired.Add(1)
	})
	defer c.Stop()

	waitExpired := func(want int32) {
		deadline := time.After(2 * time.Second)
		for fired.Load() < want {
			select {
			case <-deadline:
				t.Fatalf("countdown never reached %d expiries, got %d", want, fired.Load())
			default:
				time.Sleep(time.Millisecond)
			}
		}
	}

	waitExpired(1)
	c.Reset()
	if !c.Running() {
		t.Fatalf("expected reset clock running again")
	}

	// A revived clock counts a full new cycle down to a second expiry.
	waitExpired(2)
}

func TestCountdownReset(t *testing.T) {
	c := newCountdownWithInterval(1000, time.Hour, nil)
	defer c.Stop()

	c.tick()
	c.tick()
	if got := c.Remaining(); got != 998 {
		t.Fatalf("expected 998 after two ticks, got %d", got)
	}
	c.Reset()
	if got := c.Remaining(); got != 1000 {
		t.Fatalf("expected full reset, got %d", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{1800, "30:00"},
		{125, "2:05"},
		{65, "1:05"},
		{59, "0:59"},
		{9, "0:09"},
		{0, "0:00"},
	}
	for _, tc := range cases {
		if got := formatSeconds(tc.seconds); got != tc.want {
			t.Errorf("formatSeconds(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
