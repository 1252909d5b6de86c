package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/geopresensi/attendance-hub/internal/application/query"
	"github.com/geopresensi/attendance-hub/pkg/logger"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT HANDLERS
// Месячный рекап посещаемости: JSON для панели, XLSX для выгрузки.
// ══════════════════════════════════════════════════════════════════════════════

// handleMonthlyReport returns the monthly attendance recap.
// GET /api/v1/admin/reports/monthly?month=YYYY-MM&format=json|xlsx
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	month := getQueryParam(r, "month", "")
	if month != "" {
		if _, err := timeutil.ParseMonthKey(month); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Month must be in YYYY-MM format")
			return
		}
	}

	report, err := s.deps.GetMonthlyReportHandler.Handle(r.Context(), query.GetMonthlyReportQuery{
		Month: month,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if getQueryParam(r, "format", "json") != "xlsx" {
		writeJSON(w, http.StatusOK, report)
		return
	}

	if s.deps.ReportWriter == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Excel export not configured")
		return
	}

	data, err := s.deps.ReportWriter.Write(report)
	if err != nil {
		s.logger.Error("failed to render report workbook",
			logger.Err(err),
			logger.String("month", report.Month),
		)
		writeJSONError(w, http.StatusInternalServerError, "export_failed", "Failed to render the workbook")
		return
	}

	filename := s.deps.ReportWriter.Filename(report.Month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
