package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/scoring"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MONTHLY REPORT QUERY
// Месячная матрица посещаемости: сотрудники по строкам, дни месяца по
// колонкам, в ячейках буквенные коды статусов. Источник данных для
// Excel-экспорта администратора.
// ══════════════════════════════════════════════════════════════════════════════

// Буквенные коды статусов в отчёте (индонезийская школьная номенклатура:
// Hadir, Terlambat, Izin, Alpha).
const (
	CodePresent = "H"
	CodeLate    = "T"
	CodeExcused = "I"
	CodeAbsent  = "A"
)

// statusCode переводит статус записи в код отчёта.
func statusCode(s attendance.Status) string {
	switch s {
	case attendance.StatusPresent:
		return CodePresent
	case attendance.StatusLate:
		return CodeLate
	case attendance.StatusExcused:
		return CodeExcused
	case attendance.StatusAbsent:
		return CodeAbsent
	default:
		return ""
	}
}

// GetMonthlyReportQuery содержит параметры отчёта.
type GetMonthlyReportQuery struct {
	// Month - месяц YYYY-MM (пусто = текущий месяц школы).
	Month string
}

// ReportRow - строка отчёта по одному сотруднику.
type ReportRow struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	NUPTK    string `json:"nuptk"`

	// StatusByDay - код статуса по номеру дня месяца (1-31).
	// Дни без Main-записи в карте отсутствуют.
	StatusByDay map[int]string `json:"status_by_day"`

	PresentCount int `json:"present_count"`
	LateCount    int `json:"late_count"`
	ExcusedCount int `json:"excused_count"`
	AbsentCount  int `json:"absent_count"`

	// TotalPoints - баллы за месяц, включая Additional-записи.
	TotalPoints shared.Points `json:"total_points"`
}

// MonthlyReport - результат запроса.
type MonthlyReport struct {
	SchoolName  string      `json:"school_name"`
	Month       string      `json:"month"`
	DaysInMonth int         `json:"days_in_month"`
	Rows        []ReportRow `json:"rows"`
}

// GetMonthlyReportHandler handles the GetMonthlyReportQuery.
type GetMonthlyReportHandler struct {
	recordStore attendance.Store
	userRepo    user.Repository
	aggregator  *scoring.Aggregator
	schoolName  func(ctx context.Context) string
}

// NewGetMonthlyReportHandler creates a new GetMonthlyReportHandler.
// schoolName lazily resolves the configured school name for the header;
// nil leaves the header blank.
func NewGetMonthlyReportHandler(
	recordStore attendance.Store,
	userRepo user.Repository,
	aggregator *scoring.Aggregator,
	schoolName func(ctx context.Context) string,
) *GetMonthlyReportHandler {
	return &GetMonthlyReportHandler{
		recordStore: recordStore,
		userRepo:    userRepo,
		aggregator:  aggregator,
		schoolName:  schoolName,
	}
}

// Handle executes the monthly report query.
func (h *GetMonthlyReportHandler) Handle(ctx context.Context, q GetMonthlyReportQuery) (*MonthlyReport, error) {
	month := q.Month
	if month == "" {
		month = timeutil.MonthKey(timeutil.Now())
	}
	monthStart, err := timeutil.ParseMonthKey(month)
	if err != nil {
		return nil, errors.New("get_monthly_report: month must be YYYY-MM")
	}

	users, err := h.userRepo.List(ctx, user.ListOptions{OnlyActive: true, Role: user.RoleStaff})
	if err != nil {
		return nil, fmt.Errorf("get_monthly_report: failed to list users: %w", err)
	}

	records, err := h.recordStore.List(ctx, attendance.Filter{Month: month})
	if err != nil {
		return nil, fmt.Errorf("get_monthly_report: failed to list records: %w", err)
	}

	byUser := make(map[string][]*attendance.Record, len(users))
	for _, rec := range records {
		byUser[rec.UserID] = append(byUser[rec.UserID], rec)
	}

	report := &MonthlyReport{
		Month:       month,
		DaysInMonth: timeutil.DaysInMonth(monthStart),
		Rows:        make([]ReportRow, 0, len(users)),
	}
	if h.schoolName != nil {
		report.SchoolName = h.schoolName(ctx)
	}

	for _, u := range users {
		row := ReportRow{
			UserID:      u.ID,
			FullName:    u.FullName,
			NUPTK:       string(u.NUPTK),
			StatusByDay: make(map[int]string),
		}
		for _, rec := range byUser[u.ID] {
			row.TotalPoints += rec.Points
			if rec.Type != attendance.TypeMain {
				continue
			}
			day, err := timeutil.ParseDateKey(string(rec.Date))
			if err != nil {
				continue
			}
			row.StatusByDay[day.Day()] = statusCode(rec.Status)
			switch rec.Status {
			case attendance.StatusPresent:
				row.PresentCount++
			case attendance.StatusLate:
				row.LateCount++
			case attendance.StatusExcused:
				row.ExcusedCount++
			case attendance.StatusAbsent:
				row.AbsentCount++
			}
		}
		report.Rows = append(report.Rows, row)
	}

	return report, nil
}
