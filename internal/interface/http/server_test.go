package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeUserRepo struct {
	byUsername map[user.Username]*user.User
	byID       map[string]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		byUsername: make(map[user.Username]*user.User),
		byID:       make(map[string]*user.User),
	}
	for _, u := range users {
		repo.byUsername[u.Username] = u
		repo.byID[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	if _, ok := r.byUsername[u.Username]; ok {
		return shared.ErrUsernameTaken
	}
	r.byUsername[u.Username] = u
	r.byID[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username user.Username) (*user.User, error) {
	u, ok := r.byUsername[username]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *user.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return shared.ErrUserNotFound
	}
	r.byID[u.ID] = u
	r.byUsername[u.Username] = u
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, opts user.ListOptions) ([]*user.User, error) {
	var out []*user.User
	for _, u := range r.byID {
		if opts.OnlyActive && !u.IsActive {
			continue
		}
		if opts.Role != "" && u.Role != opts.Role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, opts user.ListOptions) (int, error) {
	users, err := r.List(ctx, opts)
	return len(users), err
}

func testStaff(t *testing.T, username, password string) *user.User {
	t.Helper()
	u := &user.User{
		ID:       "u-" + username,
		Username: user.Username(username),
		FullName: "Test " + username,
		Role:     user.RoleStaff,
		IsActive: true,
	}
	require.NoError(t, u.SetPassword(password))
	return u
}

func newTestServer(t *testing.T, users ...*user.User) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // off, tests hammer one IP
	return NewServer(cfg, Dependencies{
		UserRepo: newFakeUserRepo(users...),
		Sessions: handlers.NewMemorySessionStore(time.Hour),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"user not found", shared.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"record not found", shared.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"username taken", shared.ErrUsernameTaken, http.StatusConflict, "already_exists"},
		{"record exists", shared.ErrRecordExists, http.StatusConflict, "already_exists"},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, "validation_failed"},
		{"out of range", shared.ErrOutOfRange, http.StatusUnprocessableEntity, "rule_violation"},
		{"too early", shared.ErrTooEarly, http.StatusUnprocessableEntity, "rule_violation"},
		{"store down", shared.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
		{"inactive user", shared.ErrInactiveUser, http.StatusForbidden, "account_deactivated"},
		{"wrapped inactive user", fmt.Errorf("check_in: %w", shared.ErrInactiveUser), http.StatusForbidden, "account_deactivated"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_server_error"},
		{"wrapped rule violation", fmt.Errorf("check_in: %w", shared.ErrAlreadyCheckedIn), http.StatusUnprocessableEntity, "rule_violation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestWriteDomainErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, errors.New("pq: connection refused on host 10.0.0.3"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.NotContains(t, resp.Error.Message, "10.0.0.3")
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH FLOW
// ══════════════════════════════════════════════════════════════════════════════

func TestLoginIssuesToken(t *testing.T) {
	srv := newTestServer(t, testStaff(t, "budi", "rahasia1"))

	body, _ := json.Marshal(loginRequest{Username: "budi", Password: "rahasia1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool          `json:"success"`
		Data    loginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, "budi", resp.Data.User.Username)
	assert.Equal(t, "staff", resp.Data.User.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv := newTestServer(t, testStaff(t, "budi", "rahasia1"))

	body, _ := json.Marshal(loginRequest{Username: "budi", Password: "salah"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	staff := testStaff(t, "budi", "rahasia1")
	staff.Deactivate()
	srv := newTestServer(t, staff)

	body, _ := json.Marshal(loginRequest{Username: "budi", Password: "rahasia1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/day", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestAdminRouteRejectsStaff(t *testing.T) {
	srv := newTestServer(t, testStaff(t, "budi", "rahasia1"))

	// Вход штатным сотрудником.
	body, _ := json.Marshal(loginRequest{Username: "budi", Password: "rahasia1"})
	loginReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	loginRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(loginRec, loginReq)
	require.Equal(t, http.StatusOK, loginRec.Code)

	var resp struct {
		Data loginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/config", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Data.Token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv := newTestServer(t, testStaff(t, "budi", "rahasia1"))

	body, _ := json.Marshal(loginRequest{Username: "budi", Password: "rahasia1"})
	loginReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	loginRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(loginRec, loginReq)
	require.Equal(t, http.StatusOK, loginRec.Code)

	var resp struct {
		Data loginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &resp))
	token := resp.Data.Token

	logoutReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	logoutReq.Header.Set("Authorization", "Bearer "+token)
	logoutRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(logoutRec, logoutReq)
	require.Equal(t, http.StatusOK, logoutRec.Code)

	// Токен больше не действителен.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// OPERATIONAL ENDPOINTS AND HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func TestLivenessProbe(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRootReturnsServiceInfo(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "geopresensi-attendance-hub")
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d should pass", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Другой клиент не затронут.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", getClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", getClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.5:51234"
	assert.Equal(t, "192.0.2.5", getClientIP(req))
}
