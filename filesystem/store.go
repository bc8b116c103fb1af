// Package filesystem provides a local, read-only storage backend for the
// gateway, sandboxed with os.Root to prevent path traversal. Intended for
// development and tests; production deployments use the s3store package.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"mediagate"
)

// Store serves object bytes from a directory tree.
type Store struct {
	root *os.Root
}

// NewStore creates a Store reading from the given root directory. The root
// provides sandboxed file operations preventing path traversal.
func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

// Fetch opens a file for reading. Returns mediagate.ErrNotFound if the file
// does not exist; any other failure wraps mediagate.ErrStorageUnavailable.
func (s *Store) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, mediagate.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w: %w", path, mediagate.ErrStorageUnavailable, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w: %w", path, mediagate.ErrStorageUnavailable, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, mediagate.ErrNotFound
	}

	return f, nil
}
