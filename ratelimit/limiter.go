package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Rule bounds one route: at most Requests admitted per identity within any
// trailing Window.
type Rule struct {
	Requests int
	Window   time.Duration
}

// Validate rejects nonsensical rules. Called at construction so
// misconfiguration is a startup failure, never a per-request one.
func (r Rule) Validate() error {
	if r.Requests <= 0 {
		return fmt.Errorf("validate rule: requests must be positive, got %d", r.Requests)
	}
	if r.Window <= 0 {
		return fmt.Errorf("validate rule: window must be positive, got %s", r.Window)
	}
	return nil
}

// Decision is the outcome of a rate-limit check. A rejection always carries
// a positive RetryAfter so callers can emit an accurate retry hint.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
}

// Store decides admit/reject for one request and records it atomically.
// Implementations must be safe for concurrent use and must not admit more
// than the rule's limit within any true window-length interval, even under
// concurrent arrival from the same identity.
type Store interface {
	Check(ctx context.Context, identity, route string, now time.Time) (Decision, error)
}

type windowKey struct {
	identity string
	route    string
}

type window struct {
	stamps []time.Time
}

// prune drops timestamps whose age has reached the window length.
func (w *window) prune(now time.Time, d time.Duration) {
	cutoff := now.Add(-d)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// Limiter is an in-memory sliding-window Store. A single table-wide mutex
// makes the read-then-record sequence atomic; contention is acceptable at
// the request rates a credential endpoint sees.
type Limiter struct {
	mu        sync.Mutex
	rules     map[string]Rule
	windows   map[windowKey]*window
	lastSweep time.Time

	sweepEvery time.Duration
}

// LimiterOption customizes a Limiter.
type LimiterOption func(*Limiter)

// WithSweepInterval sets how often Check opportunistically evicts idle
// identities. Zero disables opportunistic sweeps (Cleanup and StartJanitor
// remain available).
func WithSweepInterval(d time.Duration) LimiterOption {
	return func(l *Limiter) { l.sweepEvery = d }
}

// NewLimiter creates a Limiter with per-route rules. Routes absent from the
// map are unlimited. Every rule is validated up front.
func NewLimiter(rules map[string]Rule, opts ...LimiterOption) (*Limiter, error) {
	for route, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("route %q: %w", route, err)
		}
	}

	l := &Limiter{
		rules:      rules,
		windows:    make(map[windowKey]*window),
		sweepEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Check implements Store. For a limited route it prunes the identity's
// expired timestamps, rejects if the window is full, and otherwise records
// this request. A rejected attempt is not counted.
func (l *Limiter) Check(_ context.Context, identity, route string, now time.Time) (Decision, error) {
	rule, limited := l.rules[route]
	if !limited {
		return Decision{Allowed: true, Remaining: -1}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeSweep(now)

	key := windowKey{identity: identity, route: route}
	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}

	w.prune(now, rule.Window)

	if len(w.stamps) >= rule.Requests {
		retry := w.stamps[0].Add(rule.Window).Sub(now)
		return Decision{RetryAfter: retry}, nil
	}

	w.stamps = append(w.stamps, now)
	return Decision{Allowed: true, Remaining: rule.Requests - len(w.stamps)}, nil
}

// maybeSweep runs a full eviction pass at most once per sweep interval.
// Caller holds the mutex.
func (l *Limiter) maybeSweep(now time.Time) {
	if l.sweepEvery <= 0 || now.Sub(l.lastSweep) < l.sweepEvery {
		return
	}
	l.lastSweep = now
	l.sweep(now)
}

func (l *Limiter) sweep(now time.Time) {
	for key, w := range l.windows {
		rule, ok := l.rules[key.route]
		if !ok {
			delete(l.windows, key)
			continue
		}
		w.prune(now, rule.Window)
		if len(w.stamps) == 0 {
			delete(l.windows, key)
		}
	}
}

// Cleanup evicts every identity whose window has fully elapsed.
func (l *Limiter) Cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)
}

// StartJanitor runs Cleanup periodically until the context is cancelled.
// Optional: opportunistic sweeps in Check already bound memory under steady
// traffic; the janitor covers long fully-idle stretches.
func (l *Limiter) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup(time.Now())
			}
		}
	}()
}

// Tracked reports how many identity windows are currently held. Exposed for
// tests and metrics.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
