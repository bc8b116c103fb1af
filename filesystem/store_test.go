package filesystem_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagate"
	"mediagate/filesystem"
)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()

	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	return filesystem.NewStore(root), dir
}

func TestStore_Fetch(t *testing.T) {
	store, dir := newStore(t)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "segments/42"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "segments/42/last_frame.png"), []byte("png-bytes"), 0o644))

	rc, err := store.Fetch(context.Background(), "segments/42/last_frame.png")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestStore_Fetch_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Fetch(context.Background(), "missing.png")
	assert.ErrorIs(t, err, mediagate.ErrNotFound)
}

func TestStore_Fetch_DirectoryIsNotFound(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "segments"), 0o755))

	_, err := store.Fetch(context.Background(), "segments")
	assert.ErrorIs(t, err, mediagate.ErrNotFound)
}

func TestStore_Fetch_EscapeBlocked(t *testing.T) {
	store, _ := newStore(t)

	// os.Root refuses traversal outside the sandbox.
	_, err := store.Fetch(context.Background(), "../outside.png")
	assert.Error(t, err)
}

func TestStore_Fetch_CancelledContext(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Fetch(ctx, "a.png")
	assert.ErrorIs(t, err, context.Canceled)
}
