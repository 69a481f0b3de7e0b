package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
	"github.com/tasklet-dev/tasklet/pkg/cryptox"
)

// DefaultSessionTTL is the lifetime of a session absent explicit renewal
// (1800 minutes).
const DefaultSessionTTL = 1800 * time.Minute

// SessionService owns the in-memory table of active sessions. Sessions never
// outlive the process and are not replicated; the table is the single shared
// mutable structure of the core, so every per-token read-modify-write runs
// under the lock.
type SessionService struct {
	TTL time.Duration

	mu       sync.Mutex
	sessions map[string]domain.Session

	now func() time.Time // test hook
}

// NewSessionService builds a registry with the given TTL, defaulting to
// DefaultSessionTTL when ttl is zero or negative.
func NewSessionService(ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		TTL:      ttl,
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

// Create opens a session for user and returns its opaque token. The stored
// user is a snapshot: later account changes do not propagate into it.
func (s *SessionService) Create(user domain.User) (string, error) {
	if user.IsZero() {
		return "", fmt.Errorf("session user must carry an identity: %w", domain.ErrInvalidInput)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = domain.Session{
		Token:     token,
		User:      user,
		ExpiresAt: s.now().Add(s.TTL),
	}
	return token, nil
}

// Resolve returns the user snapshot behind token. An expired session is
// evicted in the same critical section, so a racing Resolve on the same
// token observes either the live entry or its absence, never a stale one.
// Both "is this session active" and "who is the caller" go through here.
func (s *SessionService) Resolve(token string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return domain.User{}, fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return domain.User{}, fmt.Errorf("session: %w", domain.ErrExpired)
	}
	return sess.User, nil
}

// Renew pushes the session's expiry out to now+TTL. Absent and expired
// sessions both report Expired; an expired entry is evicted on the way.
func (s *SessionService) Renew(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return fmt.Errorf("session: %w", domain.ErrExpired)
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return fmt.Errorf("session: %w", domain.ErrExpired)
	}

	sess.ExpiresAt = s.now().Add(s.TTL)
	s.sessions[token] = sess
	return nil
}

// Invalidate removes the session. Removal is atomic with the existence
// check, so an invalidated token can never be resurrected by a racing renew.
func (s *SessionService) Invalidate(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	delete(s.sessions, token)
	return nil
}

// SweepExpired drops every expired entry. Best-effort hygiene only: Resolve
// performs its own lazy expiry check, so correctness never depends on the
// sweeper running.
func (s *SessionService) SweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, token)
		}
	}
}

// Count reports the number of entries currently in the table, expired or
// not. Used by metrics and housekeeping logs.
func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
