package ratelimit

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// State is the persisted counter pair shared across restarts.
type State struct {
	LastRequestMs int64 `json:"lastRequestMs"`
	RequestCount  int   `json:"requestCount"`
}

// StateStore abstracts where the counters live (in-memory, Redis, etc).
type StateStore interface {
	LoadRateState(ctx context.Context) (State, bool, error)
	SaveRateState(ctx context.Context, state State) error
}

// Decision tells the caller how long to pause before the next request and
// whether the window counter should be reset once the pause elapses.
type Decision struct {
	Wait       time.Duration
	ResetCount bool
}

const (
	// DefaultMinInterval is the minimum spacing between consecutive calls.
	DefaultMinInterval = 4000 * time.Millisecond
	// DefaultWindow is the rolling window the request cap applies to.
	DefaultWindow = 60000 * time.Millisecond
	// DefaultMaxPerWindow is the request cap inside one window.
	DefaultMaxPerWindow = 5
)

// Limiter enforces request cadence against a durable counter. The window is
// approximated by "reset count if more than a full window has elapsed since
// the last call, else accumulate".
type Limiter struct {
	store        StateStore
	minInterval  time.Duration
	window       time.Duration
	maxPerWindow int
	clock        func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
	sf           singleflight.Group
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithPolicy overrides the spacing/window/cap policy.
func WithPolicy(minInterval, window time.Duration, maxPerWindow int) Option {
	return func(l *Limiter) {
		l.minInterval = minInterval
		l.window = window
		l.maxPerWindow = maxPerWindow
	}
}

// WithClock injects a deterministic clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) { l.clock = clock }
}

// WithSleep injects the pause primitive for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) { l.sleep = sleep }
}

func New(store StateStore, opts ...Option) *Limiter {
	l := &Limiter{
		store:        store,
		minInterval:  DefaultMinInterval,
		window:       DefaultWindow,
		maxPerWindow: DefaultMaxPerWindow,
		clock:        time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ShouldThrottle reports the pause required before the next request may go
// out, given the persisted counters.
func (l *Limiter) ShouldThrottle(ctx context.Context, now time.Time) (Decision, error) {
	state, ok, err := l.store.LoadRateState(ctx)
	if err != nil {
		return Decision{}, err
	}
	if !ok || state.LastRequestMs == 0 {
		return Decision{}, nil
	}

	elapsed := time.Duration(now.UnixMilli()-state.LastRequestMs) * time.Millisecond
	if elapsed > l.window {
		// Window has rolled over; counters restart from zero.
		return Decision{ResetCount: true}, nil
	}
	if state.RequestCount >= l.maxPerWindow {
		return Decision{Wait: l.window - elapsed, ResetCount: true}, nil
	}
	if elapsed < l.minInterval {
		return Decision{Wait: l.minInterval - elapsed}, nil
	}
	return Decision{}, nil
}

// RecordRequest persists the attempt: last-request time moves to now and the
// window counter increments (or restarts when resetCount is set).
func (l *Limiter) RecordRequest(ctx context.Context, now time.Time, resetCount bool) error {
	state, _, err := l.store.LoadRateState(ctx)
	if err != nil {
		return err
	}
	if resetCount {
		state.RequestCount = 0
	}
	state.RequestCount++
	state.LastRequestMs = now.UnixMilli()
	return l.store.SaveRateState(ctx, state)
}

// Acquire blocks until a request may go out, then records it. The
// check-and-increment is collapsed through singleflight so near-simultaneous
// callers cannot both read a stale counter.
func (l *Limiter) Acquire(ctx context.Context) error {
	_, err, _ := l.sf.Do("acquire", func() (interface{}, error) {
		decision, err := l.ShouldThrottle(ctx, l.clock())
		if err != nil {
			return nil, err
		}
		if decision.Wait > 0 {
			if err := l.sleep(ctx, decision.Wait); err != nil {
				return nil, err
			}
		}
		return nil, l.RecordRequest(ctx, l.clock(), decision.ResetCount)
	})
	return err
}

// RecentActivity reports whether at least threshold requests landed within
// the given span before now. Used by the smart acquisition heuristic.
func (l *Limiter) RecentActivity(ctx context.Context, now time.Time, threshold int, span time.Duration) (bool, error) {
	state, ok, err := l.store.LoadRateState(ctx)
	if err != nil || !ok {
		return false, err
	}
	elapsed := time.Duration(now.UnixMilli()-state.LastRequestMs) * time.Millisecond
	return state.RequestCount >= threshold && elapsed < span, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
