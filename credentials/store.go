// Package credentials provides the credential and session collaborators for
// the gateway's protected login route: pluggable user stores (in-memory map,
// YAML file), bcrypt password verification, and short-lived bearer sessions.
package credentials

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Store looks up the bcrypt password hash for a username.
type Store interface {
	// Lookup returns the stored hash, or ErrUnknownUser.
	Lookup(username string) (string, error)
}

// UsersConfig holds configuration for loading users.
type UsersConfig struct {
	Inline []UserEntry `mapstructure:"inline"` // Inline users from config
	File   string      `mapstructure:"file"`   // Path to YAML file containing users
}

// NewStore creates a Store from the given configuration. It loads users from
// both inline config and file (if specified), merging them into a single
// store. File entries take precedence over inline entries on duplicates.
func NewStore(cfg UsersConfig) (Store, error) {
	users := make(map[string]string)

	for _, u := range cfg.Inline {
		if u.Username != "" && u.PasswordHash != "" {
			users[u.Username] = u.PasswordHash
		}
	}

	if cfg.File != "" {
		fileUsers, err := LoadUsersFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for name, hash := range fileUsers {
			users[name] = hash
		}
	}

	return NewMapStore(users), nil
}

// Verifier checks a username/password pair against a Store.
type Verifier struct {
	store Store
	dummy []byte
}

// NewVerifier creates a Verifier. The dummy hash is compared when the user
// is unknown so lookups and misses take comparable time.
func NewVerifier(store Store) *Verifier {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		// GenerateFromPassword only fails on an out-of-range cost.
		panic(err)
	}
	return &Verifier{store: store, dummy: dummy}
}

// Verify returns nil when the password matches the stored hash, and
// ErrInvalidCredentials otherwise. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (v *Verifier) Verify(username, password string) error {
	hash, err := v.store.Lookup(username)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(v.dummy, []byte(password))
		return ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns the bcrypt hash to store for a password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("hash password: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
