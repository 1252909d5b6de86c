package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT ADDITIONAL TASK COMMAND
// Отметка выполнения дополнительной обязанности (Wali Kelas, Pembina OSIS...).
// Одна обязанность даёт не больше одной Additional-записи в день, но разные
// обязанности одного сотрудника учитываются независимо.
// ══════════════════════════════════════════════════════════════════════════════

// ReportTaskCommand содержит данные отметки дополнительной обязанности.
type ReportTaskCommand struct {
	// UserID - внутренний идентификатор сотрудника.
	UserID string

	// RoleLabel - метка обязанности; должна входить в additionalRoles
	// сотрудника.
	RoleLabel shared.RoleLabel

	// Timestamp - момент отметки (ноль = текущее время школы).
	Timestamp time.Time

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate validates the command.
func (c ReportTaskCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("report_task: user_id is required")
	}
	if !c.RoleLabel.IsValid() {
		return errors.New("report_task: role label is required")
	}
	return nil
}

// ReportTaskResult содержит результат отметки.
type ReportTaskResult struct {
	RecordID string
	Points   shared.Points
	Date     shared.DateKey
}

// ReportTaskHandler handles the ReportTaskCommand.
type ReportTaskHandler struct {
	userRepo       user.Repository
	recordStore    attendance.Store
	engine         *attendance.Engine
	eventPublisher shared.EventPublisher
}

// NewReportTaskHandler creates a new ReportTaskHandler.
func NewReportTaskHandler(
	userRepo user.Repository,
	recordStore attendance.Store,
	engine *attendance.Engine,
	eventPublisher shared.EventPublisher,
) *ReportTaskHandler {
	return &ReportTaskHandler{
		userRepo:       userRepo,
		recordStore:    recordStore,
		engine:         engine,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the report-task command.
func (h *ReportTaskHandler) Handle(ctx context.Context, cmd ReportTaskCommand) (*ReportTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("report_task: validation failed: %w", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = timeutil.Now()
	}

	u, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("report_task: failed to get user: %w", err)
	}
	if !u.IsActive {
		return nil, shared.ErrInactiveUser
	}
	if !u.HasDutyRole(cmd.RoleLabel) {
		return nil, shared.NewDomainError("attendance", "ReportTask",
			shared.ErrInvalidInput, fmt.Sprintf("user has no duty role %q", cmd.RoleLabel))
	}

	today := shared.DateKey(timeutil.DateKey(now))
	reported, err := h.recordStore.FindAdditional(ctx, u.ID, today)
	if err != nil {
		return nil, fmt.Errorf("report_task: failed to look up today's tasks: %w", err)
	}
	doneToday := make([]shared.RoleLabel, 0, len(reported))
	for _, rec := range reported {
		doneToday = append(doneToday, rec.RoleTag())
	}

	rec, err := h.engine.ReportAdditionalTask(u, now, cmd.RoleLabel, doneToday)
	if err != nil {
		return nil, err
	}

	if err := h.recordStore.CreateIfAbsent(ctx, rec); err != nil {
		if errors.Is(err, shared.ErrDuplicateTask) {
			return nil, shared.ErrDuplicateTask
		}
		return nil, fmt.Errorf("report_task: failed to persist record: %w", err)
	}

	event := shared.NewAttendanceRecordedEvent(
		shared.EventTaskReported,
		rec.ID, rec.UserID, string(rec.Date),
		string(rec.Type), string(rec.Status), int(rec.Points),
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &ReportTaskResult{
		RecordID: rec.ID,
		Points:   rec.Points,
		Date:     rec.Date,
	}, nil
}
