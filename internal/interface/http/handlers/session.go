package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// ErrSessionUnknown is returned when a token cannot be resolved.
var ErrSessionUnknown = errors.New("session: unknown or expired token")

// SessionStore resolves bearer tokens to authenticated principals.
// The Redis-backed implementation shares sessions across instances; the
// in-memory one below serves single-instance deployments and tests.
type SessionStore interface {
	// Create issues a token for (userID, role).
	Create(ctx context.Context, userID, role string) (string, error)

	// Get resolves a token to (userID, role).
	Get(ctx context.Context, token string) (string, string, error)

	// Delete revokes a token.
	Delete(ctx context.Context, token string) error
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

type memorySession struct {
	userID    string
	role      string
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	ttl      time.Duration
}

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		ttl:      ttl,
	}
}

// Create issues a new session token.
func (s *MemorySessionStore) Create(ctx context.Context, userID, role string) (string, error) {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{
		userID:    userID,
		role:      role,
		expiresAt: time.Now().Add(s.ttl),
	}
	return token, nil
}

// Get resolves a token, pruning it if expired.
func (s *MemorySessionStore) Get(ctx context.Context, token string) (string, string, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return "", "", ErrSessionUnknown
	}
	if time.Now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return "", "", ErrSessionUnknown
	}
	return sess.userID, sess.role, nil
}

// Delete revokes a token.
func (s *MemorySessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)
