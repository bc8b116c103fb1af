package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagate/ratelimit"
)

const loginRoute = "login"

func newLimiter(t *testing.T, requests int, window time.Duration) *ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.NewLimiter(map[string]ratelimit.Rule{
		loginRoute: {Requests: requests, Window: window},
	})
	require.NoError(t, err)
	return l
}

func TestNewLimiter_RejectsBadRules(t *testing.T) {
	tests := []struct {
		name string
		rule ratelimit.Rule
	}{
		{"zero requests", ratelimit.Rule{Requests: 0, Window: time.Minute}},
		{"negative requests", ratelimit.Rule{Requests: -1, Window: time.Minute}},
		{"zero window", ratelimit.Rule{Requests: 5, Window: 0}},
		{"negative window", ratelimit.Rule{Requests: 5, Window: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ratelimit.NewLimiter(map[string]ratelimit.Rule{loginRoute: tt.rule})
			assert.Error(t, err)
		})
	}
}

func TestLimiter_Boundary(t *testing.T) {
	l := newLimiter(t, 5, time.Minute)
	ctx := context.Background()
	base := time.Now()

	// Five requests inside the window all admit.
	for i := range 5 {
		dec, err := l.Check(ctx, "10.0.0.1", loginRoute, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.True(t, dec.Allowed, "request %d", i+1)
		assert.Equal(t, 4-i, dec.Remaining)
	}

	// The sixth within the same window rejects with a positive retry hint.
	dec, err := l.Check(ctx, "10.0.0.1", loginRoute, base.Add(10*time.Second))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Greater(t, dec.RetryAfter, time.Duration(0))

	// Oldest request ages out 60s after base: exactly 50s from now.
	assert.Equal(t, 50*time.Second, dec.RetryAfter)
}

func TestLimiter_RejectedAttemptNotCounted(t *testing.T) {
	l := newLimiter(t, 1, time.Minute)
	ctx := context.Background()
	base := time.Now()

	dec, err := l.Check(ctx, "a", loginRoute, base)
	require.NoError(t, err)
	require.True(t, dec.Allowed)

	// Hammering while limited must not push the window forward.
	for i := 1; i <= 10; i++ {
		dec, err = l.Check(ctx, "a", loginRoute, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.False(t, dec.Allowed)
	}

	// The single counted request still expires on schedule.
	dec, err = l.Check(ctx, "a", loginRoute, base.Add(61*time.Second))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestLimiter_WindowExpiry(t *testing.T) {
	l := newLimiter(t, 5, time.Minute)
	ctx := context.Background()
	base := time.Now()

	for i := range 5 {
		dec, err := l.Check(ctx, "a", loginRoute, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.True(t, dec.Allowed)
	}

	// Past the window from the first request: one slot has opened.
	dec, err := l.Check(ctx, "a", loginRoute, base.Add(time.Minute+time.Millisecond))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	// The second slot is still occupied.
	dec, err = l.Check(ctx, "a", loginRoute, base.Add(time.Minute+2*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
}

func TestLimiter_IdentityIsolation(t *testing.T) {
	l := newLimiter(t, 2, time.Minute)
	ctx := context.Background()
	base := time.Now()

	for range 2 {
		dec, err := l.Check(ctx, "a", loginRoute, base)
		require.NoError(t, err)
		require.True(t, dec.Allowed)
	}

	dec, err := l.Check(ctx, "a", loginRoute, base)
	require.NoError(t, err)
	require.False(t, dec.Allowed)

	// Identity b is unaffected by a's exhaustion.
	dec, err = l.Check(ctx, "b", loginRoute, base)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestLimiter_UnconfiguredRouteUnlimited(t *testing.T) {
	l := newLimiter(t, 1, time.Minute)
	ctx := context.Background()
	now := time.Now()

	for range 100 {
		dec, err := l.Check(ctx, "a", "files", now)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
	}
}

func TestLimiter_ConcurrentNoOvershoot(t *testing.T) {
	const limit = 5
	l := newLimiter(t, limit, time.Minute)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, err := l.Check(ctx, "a", loginRoute, now)
			assert.NoError(t, err)
			if dec.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, admitted)
}

func TestLimiter_Cleanup(t *testing.T) {
	l := newLimiter(t, 5, time.Minute)
	ctx := context.Background()
	base := time.Now()

	for _, id := range []string{"a", "b", "c"} {
		_, err := l.Check(ctx, id, loginRoute, base)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, l.Tracked())

	// Nothing has expired yet.
	l.Cleanup(base.Add(30 * time.Second))
	assert.Equal(t, 3, l.Tracked())

	// All windows elapsed: every identity is evicted.
	l.Cleanup(base.Add(2 * time.Minute))
	assert.Equal(t, 0, l.Tracked())
}

func TestLimiter_OpportunisticSweep(t *testing.T) {
	l, err := ratelimit.NewLimiter(
		map[string]ratelimit.Rule{loginRoute: {Requests: 5, Window: time.Minute}},
		ratelimit.WithSweepInterval(time.Minute),
	)
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Now()

	_, err = l.Check(ctx, "idle", loginRoute, base)
	require.NoError(t, err)

	// A later request from another identity triggers the sweep and evicts
	// the idle window.
	_, err = l.Check(ctx, "active", loginRoute, base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Tracked())
}

func TestLimiter_JanitorStopsOnCancel(t *testing.T) {
	l := newLimiter(t, 5, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := l.Check(ctx, "a", loginRoute, time.Now())
	require.NoError(t, err)

	l.StartJanitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return l.Tracked() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
}
