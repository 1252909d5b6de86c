package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/scoring"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MY DAY QUERY
// Личный кабинет сотрудника: состояние сегодняшнего дня, отмеченные
// обязанности, накопленные баллы и показатель дисциплины.
// ══════════════════════════════════════════════════════════════════════════════

// GetMyDayQuery содержит параметры запроса личного кабинета.
type GetMyDayQuery struct {
	// UserID - идентификатор сотрудника.
	UserID string

	// Timestamp - момент запроса (ноль = текущее время школы).
	Timestamp time.Time
}

// MyDayView - результат запроса.
type MyDayView struct {
	Date         shared.DateKey     `json:"date"`
	IsWorkingDay bool               `json:"is_working_day"`

	// MainRecord - сегодняшняя Main-запись (nil до первой отметки).
	MainRecord *attendance.Record `json:"main_record,omitempty"`

	// ReportedTasks - отмеченные сегодня дополнительные обязанности.
	ReportedTasks []shared.RoleLabel `json:"reported_tasks"`

	// PendingTasks - обязанности сотрудника, ещё не отмеченные сегодня.
	PendingTasks []shared.RoleLabel `json:"pending_tasks"`

	// TotalPoints - сумма баллов за текущий месяц, оба вида записей.
	TotalPoints shared.Points `json:"total_points"`

	// AttendanceRate - процент посещённых дней по Main-истории месяца.
	AttendanceRate int `json:"attendance_rate"`
}

// GetMyDayHandler handles the GetMyDayQuery.
type GetMyDayHandler struct {
	userRepo    user.Repository
	recordStore attendance.Store
	configStore school.Store
	engine      *attendance.Engine
	aggregator  *scoring.Aggregator
}

// NewGetMyDayHandler creates a new GetMyDayHandler.
func NewGetMyDayHandler(
	userRepo user.Repository,
	recordStore attendance.Store,
	configStore school.Store,
	engine *attendance.Engine,
	aggregator *scoring.Aggregator,
) *GetMyDayHandler {
	return &GetMyDayHandler{
		userRepo:    userRepo,
		recordStore: recordStore,
		configStore: configStore,
		engine:      engine,
		aggregator:  aggregator,
	}
}

// Handle executes the my-day query.
func (h *GetMyDayHandler) Handle(ctx context.Context, q GetMyDayQuery) (*MyDayView, error) {
	if q.UserID == "" {
		return nil, errors.New("get_my_day: user_id is required")
	}

	now := q.Timestamp
	if now.IsZero() {
		now = timeutil.Now()
	}
	today := shared.DateKey(timeutil.DateKey(now))

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_my_day: failed to get user: %w", err)
	}

	cfg, err := h.configStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_my_day: failed to load school config: %w", err)
	}

	mainRec, err := h.recordStore.FindMain(ctx, u.ID, today)
	if err != nil {
		return nil, fmt.Errorf("get_my_day: failed to find today's record: %w", err)
	}

	tasks, err := h.recordStore.FindAdditional(ctx, u.ID, today)
	if err != nil {
		return nil, fmt.Errorf("get_my_day: failed to find today's tasks: %w", err)
	}
	reported := make([]shared.RoleLabel, 0, len(tasks))
	for _, rec := range tasks {
		reported = append(reported, rec.RoleTag())
	}

	pending := make([]shared.RoleLabel, 0, len(u.AdditionalRoles))
	for _, duty := range u.AdditionalRoles {
		done := false
		for _, r := range reported {
			if r == duty {
				done = true
				break
			}
		}
		if !done {
			pending = append(pending, duty)
		}
	}

	month := timeutil.MonthKey(now)
	monthRecords, err := h.recordStore.List(ctx, attendance.Filter{UserID: u.ID, Month: month})
	if err != nil {
		return nil, fmt.Errorf("get_my_day: failed to list month records: %w", err)
	}

	return &MyDayView{
		Date:           today,
		IsWorkingDay:   h.engine.DetermineWorkingDay(u, cfg, timeutil.WeekdayOf(now)),
		MainRecord:     mainRec,
		ReportedTasks:  reported,
		PendingTasks:   pending,
		TotalPoints:    h.aggregator.TotalPoints(u.ID, monthRecords),
		AttendanceRate: h.aggregator.AttendanceRate(monthRecords),
	}, nil
}
