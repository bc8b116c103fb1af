package mediagate

import (
	"context"
	"io"
)

// Storage fetches object bytes for the gateway. The gateway calls Fetch only
// after Evaluate decides to serve; never after a NotModified decision.
//
// Implementations must map a missing object to ErrNotFound and any backend
// failure to an error wrapping ErrStorageUnavailable. Retry policy, if any,
// belongs to the implementation; the gateway does not retry.
type Storage interface {
	// Fetch opens the object at path for reading. The caller is
	// responsible for closing the returned reader.
	Fetch(ctx context.Context, path string) (io.ReadCloser, error)
}
