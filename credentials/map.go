package credentials

import "fmt"

// MapStore retrieves password hashes from an in-memory map. Suitable for
// configuration file-based user storage.
type MapStore struct {
	users map[string]string
}

// NewMapStore creates a new map-based store with the given username to
// password hash mapping.
func NewMapStore(users map[string]string) *MapStore {
	return &MapStore{users: users}
}

// Lookup retrieves the password hash for the given username from the map.
func (s *MapStore) Lookup(username string) (string, error) {
	hash, found := s.users[username]
	if !found {
		return "", fmt.Errorf("lookup %q: %w", username, ErrUnknownUser)
	}
	return hash, nil
}
