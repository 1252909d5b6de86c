package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/internal/interface/http/handlers"
	"github.com/geopresensi/attendance-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// Вход по логину и паролю, bearer-токен живёт в хранилище сессий.
// ══════════════════════════════════════════════════════════════════════════════

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

// userView is the public shape of a staff account. PasswordHash never
// leaves the server.
type userView struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	FullName        string   `json:"full_name"`
	NUPTK           string   `json:"nuptk,omitempty"`
	Role            string   `json:"role"`
	IsActive        bool     `json:"is_active"`
	Subjects        []string `json:"subjects,omitempty"`
	AdditionalRoles []string `json:"additional_roles,omitempty"`
	ActiveDays      []int    `json:"active_days,omitempty"`
}

func newUserView(u *user.User) userView {
	roles := make([]string, 0, len(u.AdditionalRoles))
	for _, r := range u.AdditionalRoles {
		roles = append(roles, string(r))
	}
	return userView{
		ID:              u.ID,
		Username:        string(u.Username),
		FullName:        u.FullName,
		NUPTK:           string(u.NUPTK),
		Role:            string(u.Role),
		IsActive:        u.IsActive,
		Subjects:        u.Subjects,
		AdditionalRoles: roles,
		ActiveDays:      u.SpecificActiveDays,
	}
}

// handleLogin authenticates a staff member and issues a session token.
// POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Username and password are required")
		return
	}

	u, err := s.deps.UserRepo.GetByUsername(r.Context(), user.Username(req.Username))
	if err != nil || !u.IsActive || !u.CheckPassword(req.Password) {
		// Одинаковый ответ для всех трёх случаев, чтобы не раскрывать,
		// какой логин существует.
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}

	token, err := s.deps.Sessions.Create(r.Context(), u.ID, string(u.Role))
	if err != nil {
		s.logger.Error("failed to create session", logger.Err(err), logger.String("user_id", u.ID))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: newUserView(u)})
}

// handleLogout deletes the current session.
// POST /api/v1/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerTokenFromRequest(r)
	if token != "" {
		if err := s.deps.Sessions.Delete(r.Context(), token); err != nil {
			s.logger.Warn("failed to delete session", logger.Err(err))
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// bearerTokenFromRequest extracts the token from the Authorization header.
func bearerTokenFromRequest(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// currentPrincipal reads the principal that SessionAuth put into the context.
func currentPrincipal(r *http.Request) handlers.Principal {
	principal, _ := handlers.PrincipalFromContext(r.Context())
	return principal
}
