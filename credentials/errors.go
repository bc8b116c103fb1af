package credentials

import "errors"

var (
	// ErrUnknownUser is returned when the username does not exist in the store.
	ErrUnknownUser = errors.New("unknown user")
	// ErrInvalidCredentials is returned when verification fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSession is returned when a session token is missing or expired.
	ErrInvalidSession = errors.New("invalid session")
)
