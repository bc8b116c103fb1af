package credentials

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UserEntry represents one user in a users file.
type UserEntry struct {
	Username     string `yaml:"username" mapstructure:"username"`
	PasswordHash string `yaml:"password_hash" mapstructure:"password_hash"`
}

type usersFile struct {
	Users []UserEntry `yaml:"users"`
}

// LoadUsersFile loads users from a YAML file of the form:
//
//	users:
//	  - username: alice
//	    password_hash: $2a$10$...
//
// Returns a map of username to password hash.
func LoadUsersFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	users := make(map[string]string, len(f.Users))
	for _, u := range f.Users {
		if u.Username != "" && u.PasswordHash != "" {
			users[u.Username] = u.PasswordHash
		}
	}

	return users, nil
}

// ReadUsersFile returns the raw entries of a users file, preserving order.
// A missing file is not an error; it returns an empty slice so callers can
// create the file on first write.
func ReadUsersFile(path string) ([]UserEntry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	return f.Users, nil
}

// WriteUsersFile writes entries back to a YAML users file with restrictive
// permissions.
func WriteUsersFile(path string, users []UserEntry) error {
	data, err := yaml.Marshal(usersFile{Users: users})
	if err != nil {
		return fmt.Errorf("marshal users file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return nil
}
