package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/geopresensi/attendance-hub/internal/application/command"
	"github.com/geopresensi/attendance-hub/internal/application/query"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE HANDLERS
// Отметки сотрудника: приход, уход, заявление об отсутствии, доп. задачи.
// Идентификатор сотрудника всегда берётся из сессии, не из тела запроса.
// ══════════════════════════════════════════════════════════════════════════════

type checkInRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type checkInResponse struct {
	RecordID       string    `json:"record_id"`
	Status         string    `json:"status"`
	Points         int       `json:"points"`
	DistanceMeters float64   `json:"distance_meters"`
	CheckInTime    time.Time `json:"check_in_time"`
}

// handleCheckIn records the daily arrival.
// POST /api/v1/attendance/check-in
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	principal := currentPrincipal(r)
	result, err := s.deps.CheckInHandler.Handle(r.Context(), command.CheckInCommand{
		UserID:        principal.UserID,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkInResponse{
		RecordID:       result.RecordID,
		Status:         string(result.Status),
		Points:         int(result.Points),
		DistanceMeters: result.DistanceMeters,
		CheckInTime:    result.CheckInTime,
	})
}

type checkOutResponse struct {
	RecordID     string    `json:"record_id"`
	Status       string    `json:"status"`
	Points       int       `json:"points"`
	CheckOutTime time.Time `json:"check_out_time"`
}

// handleCheckOut records the daily departure.
// POST /api/v1/attendance/check-out
func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	principal := currentPrincipal(r)
	result, err := s.deps.CheckOutHandler.Handle(r.Context(), command.CheckOutCommand{
		UserID:        principal.UserID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkOutResponse{
		RecordID:     result.RecordID,
		Status:       string(result.Status),
		Points:       int(result.Points),
		CheckOutTime: result.CheckOutTime,
	})
}

type fileExcuseRequest struct {
	Reason           string `json:"reason"`
	SubstitutionLink string `json:"substitution_link,omitempty"`
}

type fileExcuseResponse struct {
	RecordID string `json:"record_id"`
	Status   string `json:"status"`
	Date     string `json:"date"`
}

// handleFileExcuse files an excused absence for today.
// POST /api/v1/attendance/excuse
func (s *Server) handleFileExcuse(w http.ResponseWriter, r *http.Request) {
	var req fileExcuseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	principal := currentPrincipal(r)
	result, err := s.deps.FileExcuseHandler.Handle(r.Context(), command.FileExcuseCommand{
		UserID:           principal.UserID,
		Reason:           req.Reason,
		SubstitutionLink: req.SubstitutionLink,
		CorrelationID:    getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fileExcuseResponse{
		RecordID: result.RecordID,
		Status:   string(result.Status),
		Date:     string(result.Date),
	})
}

type reportTaskRequest struct {
	RoleLabel string `json:"role_label"`
}

type reportTaskResponse struct {
	RecordID string `json:"record_id"`
	Points   int    `json:"points"`
	Date     string `json:"date"`
}

// handleReportTask claims today's bonus for an additional duty.
// POST /api/v1/attendance/tasks
func (s *Server) handleReportTask(w http.ResponseWriter, r *http.Request) {
	var req reportTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	principal := currentPrincipal(r)
	result, err := s.deps.ReportTaskHandler.Handle(r.Context(), command.ReportTaskCommand{
		UserID:        principal.UserID,
		RoleLabel:     shared.RoleLabel(req.RoleLabel),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reportTaskResponse{
		RecordID: result.RecordID,
		Points:   int(result.Points),
		Date:     string(result.Date),
	})
}

// handleMyDay returns the personal dashboard for today.
// GET /api/v1/me/day
func (s *Server) handleMyDay(w http.ResponseWriter, r *http.Request) {
	principal := currentPrincipal(r)
	view, err := s.deps.GetMyDayHandler.Handle(r.Context(), query.GetMyDayQuery{
		UserID: principal.UserID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard returns the all-staff leaderboard.
// GET /api/v1/leaderboard?month=YYYY-MM&limit=N
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.serveLeaderboard(w, r, "")
}

// handleGetLeaderboardByCategory returns a per-duty leaderboard.
// GET /api/v1/leaderboard/{category}
func (s *Server) handleGetLeaderboardByCategory(w http.ResponseWriter, r *http.Request) {
	s.serveLeaderboard(w, r, r.PathValue("category"))
}

func (s *Server) serveLeaderboard(w http.ResponseWriter, r *http.Request, category string) {
	month := getQueryParam(r, "month", "")
	if month != "" {
		if _, err := timeutil.ParseMonthKey(month); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Month must be in YYYY-MM format")
			return
		}
	}

	view, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), query.GetLeaderboardQuery{
		Category: shared.RoleLabel(category),
		Month:    month,
		Limit:    getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if view.FromCache {
		w.Header().Set("X-Cache", "HIT")
	}
	writeJSON(w, http.StatusOK, view)
}
