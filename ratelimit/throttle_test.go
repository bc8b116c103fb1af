package ratelimit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagate/ratelimit"
)

func TestNewThrottle_Validation(t *testing.T) {
	_, err := ratelimit.NewThrottle(0, 1)
	assert.Error(t, err)

	_, err = ratelimit.NewThrottle(-1, 1)
	assert.Error(t, err)

	_, err = ratelimit.NewThrottle(10, 0)
	assert.Error(t, err)
}

func TestThrottle_BurstThenBlock(t *testing.T) {
	// A tiny refill rate so the burst is effectively all we get.
	th, err := ratelimit.NewThrottle(0.001, 3)
	require.NoError(t, err)

	for i := range 3 {
		assert.True(t, th.Allow(), "burst request %d", i+1)
	}
	assert.False(t, th.Allow())
}
