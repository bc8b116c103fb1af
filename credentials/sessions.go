package credentials

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is an issued bearer token.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// SessionStore holds issued sessions in memory. Like the in-memory rate
// limiter, it is single-process state; nothing is persisted.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
}

// NewSessionStore creates a SessionStore issuing tokens valid for ttl.
func NewSessionStore(ttl time.Duration) (*SessionStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session store: ttl must be positive, got %s", ttl)
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]Session),
	}, nil
}

// TTL returns the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Issue creates a session for username. Expired sessions are pruned on the
// way through, so the table is bounded by the number of logins per TTL.
func (s *SessionStore) Issue(username string, now time.Time) Session {
	sess := Session{
		Token:     uuid.NewString(),
		Username:  username,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for token, old := range s.sessions {
		if !old.ExpiresAt.After(now) {
			delete(s.sessions, token)
		}
	}
	s.sessions[sess.Token] = sess

	return sess
}

// Validate resolves a token to its username, or returns ErrInvalidSession
// for unknown and expired tokens alike.
func (s *SessionStore) Validate(token string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || !sess.ExpiresAt.After(now) {
		return "", ErrInvalidSession
	}
	return sess.Username, nil
}

// Revoke drops a session if present.
func (s *SessionStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Active reports how many sessions are currently held, expired or not.
// Exposed for tests.
func (s *SessionStore) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
