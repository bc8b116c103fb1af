package mediagate_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagate"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		path string
		want mediagate.Category
	}{
		{"png", "segments/42/last_frame.png", mediagate.CategoryImage},
		{"jpg", "uploads/photo.jpg", mediagate.CategoryImage},
		{"jpeg", "uploads/photo.jpeg", mediagate.CategoryImage},
		{"webp", "a.webp", mediagate.CategoryImage},
		{"avif", "a.avif", mediagate.CategoryImage},
		{"gif", "a.gif", mediagate.CategoryImage},
		{"mp4", "job/0_output.mp4", mediagate.CategoryVideo},
		{"safetensors", "model.safetensors", mediagate.CategoryOpaque},
		{"unknown extension", "notes.txt", mediagate.CategoryOpaque},
		{"no extension", "README", mediagate.CategoryOpaque},
		{"empty path", "", mediagate.CategoryOpaque},
		{"trailing dot", "weird.", mediagate.CategoryOpaque},
		{"dotfile", ".png", mediagate.CategoryImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mediagate.Classify(tt.path))
		})
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	for _, p := range []string{"a.PNG", "a.png", "a.Png"} {
		assert.Equal(t, mediagate.CategoryImage, mediagate.Classify(p), p)
	}
	assert.Equal(t, mediagate.CategoryVideo, mediagate.Classify("clip.MP4"))
}

func TestFingerprint_Deterministic(t *testing.T) {
	const path = "segments/42/last_frame.png"

	first := mediagate.Fingerprint(path)
	assert.Len(t, first, 16)

	for range 100 {
		assert.Equal(t, first, mediagate.Fingerprint(path))
	}
}

func TestFingerprint_NoCollisions(t *testing.T) {
	seen := make(map[string]string, 20000)

	for i := range 10000 {
		for _, p := range []string{
			fmt.Sprintf("segments/%d/last_frame.png", i),
			fmt.Sprintf("jobs/%d/output.mp4", i),
		} {
			token := mediagate.Fingerprint(p)
			if prev, ok := seen[token]; ok {
				t.Fatalf("collision: %q and %q both map to %s", prev, p, token)
			}
			seen[token] = p
		}
	}
}

func TestFingerprint_DistinctPaths(t *testing.T) {
	assert.NotEqual(t,
		mediagate.Fingerprint("a/b.png"),
		mediagate.Fingerprint("a/c.png"))
}

func newGateway(t *testing.T) *mediagate.CacheGateway {
	t.Helper()
	gw, err := mediagate.NewCacheGateway(mediagate.DefaultPolicies())
	require.NoError(t, err)
	return gw
}

func TestEvaluate_NoToken_Serves(t *testing.T) {
	gw := newGateway(t)

	dec := gw.Evaluate("segments/42/last_frame.png", "")

	assert.False(t, dec.NotModified)
	assert.Equal(t, mediagate.CategoryImage, dec.Category)
	assert.Equal(t, mediagate.Fingerprint("segments/42/last_frame.png"), dec.Token)
	assert.True(t, dec.Policy.Cacheable)
}

func TestEvaluate_MatchingToken_NotModified(t *testing.T) {
	gw := newGateway(t)
	const path = "segments/42/last_frame.png"
	token := mediagate.Fingerprint(path)

	// Idempotent: the same conditional request short-circuits every time.
	for range 2 {
		dec := gw.Evaluate(path, token)
		assert.True(t, dec.NotModified)
	}
}

func TestEvaluate_RoundTrip(t *testing.T) {
	gw := newGateway(t)
	const path = "jobs/7/3_output.mp4"

	first := gw.Evaluate(path, "")
	assert.False(t, first.NotModified)
	assert.NotEmpty(t, first.Token)

	// Client resubmits the token it was served.
	second := gw.Evaluate(path, first.Token)
	assert.True(t, second.NotModified)
}

func TestEvaluate_StaleToken_Serves(t *testing.T) {
	gw := newGateway(t)
	const path = "segments/42/last_frame.png"

	dec := gw.Evaluate(path, "stale")

	assert.False(t, dec.NotModified)
	assert.Equal(t, mediagate.Fingerprint(path), dec.Token)
}

func TestEvaluate_Opaque_NeverNotModified(t *testing.T) {
	gw := newGateway(t)
	const path = "model.safetensors"

	// Even a token that would match is ignored for opaque objects.
	dec := gw.Evaluate(path, mediagate.Fingerprint(path))

	assert.False(t, dec.NotModified)
	assert.Equal(t, mediagate.CategoryOpaque, dec.Category)
	assert.Empty(t, dec.Token)
	assert.False(t, dec.Policy.Cacheable)
	assert.Equal(t, "no-store", dec.Policy.CacheControl)
}

func TestEvaluate_TokenFromOtherPath_Serves(t *testing.T) {
	gw := newGateway(t)

	dec := gw.Evaluate("a.png", mediagate.Fingerprint("b.png"))

	assert.False(t, dec.NotModified)
}
