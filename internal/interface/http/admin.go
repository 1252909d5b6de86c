package http

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/geopresensi/attendance-hub/internal/application/command"
	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// Конфигурация школы, управление сотрудниками, правки записей, фоновые задачи.
// Все маршруты обёрнуты в adminOnly; AdminID команды берётся из сессии.
// ══════════════════════════════════════════════════════════════════════════════

// maxImportSize bounds the CSV upload body.
const maxImportSize = 5 << 20 // 5 MB

// ─────────────────────────────────────────────────────────────────────────────
// School configuration
// ─────────────────────────────────────────────────────────────────────────────

type configView struct {
	SchoolName      string    `json:"school_name"`
	SchoolAddress   string    `json:"school_address"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	RadiusMeters    int       `json:"radius_meters"`
	StartHour       int       `json:"start_hour"`
	MinCheckOutHour int       `json:"min_check_out_hour"`
	EndHour         int       `json:"end_hour"`
	ActiveDays      []int     `json:"active_days"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newConfigView(cfg *school.Config) configView {
	return configView{
		SchoolName:      cfg.SchoolName,
		SchoolAddress:   cfg.SchoolAddress,
		Latitude:        cfg.GeofenceCenter.Lat,
		Longitude:       cfg.GeofenceCenter.Lng,
		RadiusMeters:    cfg.RadiusMeters,
		StartHour:       int(cfg.StartHour),
		MinCheckOutHour: int(cfg.MinCheckOutHour),
		EndHour:         int(cfg.EndHour),
		ActiveDays:      cfg.ActiveDays,
		UpdatedAt:       cfg.UpdatedAt,
	}
}

// handleGetConfig returns the active school configuration.
// GET /api/v1/admin/config
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.deps.ConfigStore.Load(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newConfigView(cfg))
}

type saveConfigRequest struct {
	SchoolName      string  `json:"school_name"`
	SchoolAddress   string  `json:"school_address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	RadiusMeters    int     `json:"radius_meters"`
	StartHour       int     `json:"start_hour"`
	MinCheckOutHour int     `json:"min_check_out_hour"`
	EndHour         int     `json:"end_hour"`
	ActiveDays      []int   `json:"active_days"`
}

// handleSaveConfig replaces the school configuration.
// PUT /api/v1/admin/config
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var req saveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	cfg, err := s.deps.SaveConfigHandler.Handle(r.Context(), command.SaveConfigCommand{
		AdminID:         currentPrincipal(r).UserID,
		SchoolName:      req.SchoolName,
		SchoolAddress:   req.SchoolAddress,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		RadiusMeters:    req.RadiusMeters,
		StartHour:       req.StartHour,
		MinCheckOutHour: req.MinCheckOutHour,
		EndHour:         req.EndHour,
		ActiveDays:      req.ActiveDays,
		CorrelationID:   getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newConfigView(cfg))
}

// ─────────────────────────────────────────────────────────────────────────────
// Staff management
// ─────────────────────────────────────────────────────────────────────────────

// handleListUsers lists staff accounts.
// GET /api/v1/admin/users?active=true&role=staff&limit=N&offset=N
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	opts := user.ListOptions{
		OnlyActive: getQueryParam(r, "active", "") == "true",
		Role:       user.Role(getQueryParam(r, "role", "")),
		Limit:      getQueryParamInt(r, "limit", 0),
		Offset:     getQueryParamInt(r, "offset", 0),
	}

	users, err := s.deps.UserRepo.List(r.Context(), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	writeJSON(w, http.StatusOK, views)
}

type createUserRequest struct {
	Username           string   `json:"username"`
	FullName           string   `json:"full_name"`
	NUPTK              string   `json:"nuptk"`
	Password           string   `json:"password"`
	Role               string   `json:"role"`
	Subjects           []string `json:"subjects"`
	AdditionalRoles    []string `json:"additional_roles"`
	SpecificActiveDays []int    `json:"specific_active_days"`
}

// handleCreateUser registers a new staff account.
// POST /api/v1/admin/users
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	u, err := s.deps.UserAdminHandler.HandleCreate(r.Context(), command.CreateUserCommand{
		AdminID:            currentPrincipal(r).UserID,
		Username:           req.Username,
		FullName:           req.FullName,
		NUPTK:              req.NUPTK,
		Password:           req.Password,
		Role:               user.Role(req.Role),
		Subjects:           req.Subjects,
		AdditionalRoles:    toRoleLabels(req.AdditionalRoles),
		SpecificActiveDays: req.SpecificActiveDays,
		CorrelationID:      getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserView(u))
}

type updateUserRequest struct {
	FullName           *string  `json:"full_name"`
	NUPTK              *string  `json:"nuptk"`
	Password           *string  `json:"password"`
	Subjects           []string `json:"subjects"`
	AdditionalRoles    []string `json:"additional_roles"`
	SpecificActiveDays []int    `json:"specific_active_days"`
}

// handleUpdateUser updates a staff account. Absent fields stay unchanged.
// PUT /api/v1/admin/users/{id}
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	var roles []shared.RoleLabel
	if req.AdditionalRoles != nil {
		roles = toRoleLabels(req.AdditionalRoles)
	}

	u, err := s.deps.UserAdminHandler.HandleUpdate(r.Context(), command.UpdateUserCommand{
		AdminID:            currentPrincipal(r).UserID,
		UserID:             r.PathValue("id"),
		FullName:           req.FullName,
		NUPTK:              req.NUPTK,
		Password:           req.Password,
		Subjects:           req.Subjects,
		AdditionalRoles:    roles,
		SpecificActiveDays: req.SpecificActiveDays,
		CorrelationID:      getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserView(u))
}

// handleDeactivateUser deactivates a staff account, keeping its history.
// DELETE /api/v1/admin/users/{id}
func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	err := s.deps.UserAdminHandler.HandleDeactivate(r.Context(), command.DeactivateUserCommand{
		AdminID:       currentPrincipal(r).UserID,
		UserID:        r.PathValue("id"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}

type importResultView struct {
	TotalRows    int            `json:"total_rows"`
	CreatedCount int            `json:"created_count"`
	FailedCount  int            `json:"failed_count"`
	Errors       map[int]string `json:"errors,omitempty"`
}

// handleImportStaffCSV bulk-creates staff accounts from a CSV upload.
// Accepts either a multipart form with a "file" field or a raw CSV body.
// POST /api/v1/admin/users/import
func (s *Server) handleImportStaffCSV(w http.ResponseWriter, r *http.Request) {
	reader, err := importReader(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.ImportStaffCSVHandler.Handle(r.Context(), command.ImportStaffCSVCommand{
		AdminID:       currentPrincipal(r).UserID,
		Reader:        reader,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	view := importResultView{
		TotalRows:    result.TotalRows,
		CreatedCount: result.CreatedCount,
		FailedCount:  result.FailedCount,
	}
	if len(result.Errors) > 0 {
		view.Errors = make(map[int]string, len(result.Errors))
		for line, rowErr := range result.Errors {
			view.Errors[line] = rowErr.Error()
		}
	}

	writeJSON(w, http.StatusOK, view)
}

// importReader picks the CSV stream from the request.
func importReader(r *http.Request) (io.Reader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		return file, nil
	}
	return io.LimitReader(r.Body, maxImportSize), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Record corrections
// ─────────────────────────────────────────────────────────────────────────────

type overrideStatusRequest struct {
	NewStatus string `json:"new_status"`
}

type overrideStatusResponse struct {
	RecordID  string `json:"record_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`

	// Points are unchanged by the override; use the recompute endpoint
	// to realign them.
	Points int `json:"points"`
}

// handleOverrideStatus replaces a record's day status.
// POST /api/v1/admin/records/{id}/override
func (s *Server) handleOverrideStatus(w http.ResponseWriter, r *http.Request) {
	var req overrideStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	result, err := s.deps.OverrideStatusHandler.Handle(r.Context(), command.OverrideStatusCommand{
		AdminID:       currentPrincipal(r).UserID,
		RecordID:      r.PathValue("id"),
		NewStatus:     attendance.Status(req.NewStatus),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, overrideStatusResponse{
		RecordID:  result.RecordID,
		OldStatus: string(result.OldStatus),
		NewStatus: string(result.NewStatus),
		Points:    int(result.Points),
	})
}

type recomputePointsResponse struct {
	RecordID  string `json:"record_id"`
	OldPoints int    `json:"old_points"`
	NewPoints int    `json:"new_points"`
}

// handleRecomputePoints realigns a record's points with its status.
// POST /api/v1/admin/records/{id}/recompute
func (s *Server) handleRecomputePoints(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.RecomputePointsHandler.Handle(r.Context(), command.RecomputePointsCommand{
		AdminID:       currentPrincipal(r).UserID,
		RecordID:      r.PathValue("id"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recomputePointsResponse{
		RecordID:  result.RecordID,
		OldPoints: int(result.OldPoints),
		NewPoints: int(result.NewPoints),
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Scheduled jobs
// ─────────────────────────────────────────────────────────────────────────────

type jobView struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run,omitempty"`
	NextRun     time.Time `json:"next_run,omitempty"`
	RunCount    int64     `json:"run_count"`
	FailCount   int64     `json:"fail_count"`
}

// handleListJobs lists registered background jobs.
// GET /api/v1/admin/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeJSON(w, http.StatusOK, []jobView{})
		return
	}

	infos := s.deps.Scheduler.ListJobs()
	views := make([]jobView, 0, len(infos))
	for _, info := range infos {
		views = append(views, jobView{
			Name:        info.Name,
			Description: info.Description,
			Enabled:     info.Enabled,
			Schedule:    info.Schedule,
			LastRun:     info.LastRun,
			NextRun:     info.NextRun,
			RunCount:    info.RunCount,
			FailCount:   info.FailCount,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

type jobRunView struct {
	JobName  string `json:"job_name"`
	Success  bool   `json:"success"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// handleRunJob triggers a background job immediately.
// POST /api/v1/admin/jobs/{name}/run
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Scheduler not configured")
		return
	}

	name := r.PathValue("name")
	result, err := s.deps.Scheduler.RunNow(r.Context(), name)
	if err != nil {
		s.logger.Warn("manual job run failed", logger.String("job", name), logger.Err(err))
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	view := jobRunView{
		JobName:  result.JobName,
		Success:  result.Success,
		Duration: result.Duration.String(),
	}
	if result.Error != nil {
		view.Error = result.Error.Error()
	}
	writeJSON(w, http.StatusOK, view)
}

// toRoleLabels converts raw strings into role labels.
func toRoleLabels(raw []string) []shared.RoleLabel {
	labels := make([]shared.RoleLabel, 0, len(raw))
	for _, r := range raw {
		labels = append(labels, shared.RoleLabel(r))
	}
	return labels
}
