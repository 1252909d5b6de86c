package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// ErrSessionNotFound is returned when a session token is unknown or expired.
var ErrSessionNotFound = errors.New("session_store: session not found")

// sessionRecord is the JSON shape stored per token.
type sessionRecord struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps login sessions in Redis so that any instance behind a
// load balancer can authenticate a request. Expiry is handled entirely by
// the key TTL.
type SessionStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionStore creates a session store. A non-positive ttl falls back to
// TTLSessionData.
func NewSessionStore(cache *Cache, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = TTLSessionData
	}
	return &SessionStore{cache: cache, ttl: ttl}
}

// Create issues a new session token for the user.
func (s *SessionStore) Create(ctx context.Context, userID, role string) (string, error) {
	token := uuid.NewString()
	rec := sessionRecord{
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, SessionKey(token), rec, s.ttl); err != nil {
		return "", fmt.Errorf("session store create: %w", err)
	}
	return token, nil
}

// Get resolves a token to (userID, role).
func (s *SessionStore) Get(ctx context.Context, token string) (string, string, error) {
	var rec sessionRecord
	err := s.cache.Get(ctx, SessionKey(token), &rec)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", "", ErrSessionNotFound
		}
		return "", "", fmt.Errorf("session store get: %w", err)
	}
	return rec.UserID, rec.Role, nil
}

// Delete revokes a session token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, SessionKey(token))
}

// Touch extends the TTL of an active session.
func (s *SessionStore) Touch(ctx context.Context, token string) error {
	return s.cache.Expire(ctx, SessionKey(token), s.ttl)
}
