package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	token, err := store.Create(ctx, "u-1", "staff")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, "staff", role)

	require.NoError(t, store.Delete(ctx, token))

	_, _, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionUnknown)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore(10 * time.Millisecond)
	ctx := context.Background()

	token, err := store.Create(ctx, "u-1", "staff")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, _, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionUnknown)
}

func TestMemorySessionStoreTokensAreUnique(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	first, err := store.Create(ctx, "u-1", "staff")
	require.NoError(t, err)
	second, err := store.Create(ctx, "u-1", "staff")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSessionAuthMiddleware(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	token, err := store.Create(context.Background(), "u-7", "admin")
	require.NoError(t, err)

	auth := NewSessionAuth(store)

	var seen Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token injects principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		auth.Middleware(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u-7", seen.UserID)
		assert.True(t, seen.IsAdmin())
	})

	t.Run("missing token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		auth.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nonsense")
		rec := httptest.NewRecorder()

		auth.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPrincipalFromContextMissing(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)
}
