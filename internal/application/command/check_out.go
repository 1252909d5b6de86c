package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK-OUT COMMAND
// Закрывает рабочий день: фиксирует время ухода сегодняшней Main-записи.
// Статус и баллы, присвоенные при check-in, не пересматриваются.
// ══════════════════════════════════════════════════════════════════════════════

// CheckOutCommand содержит данные для отметки ухода.
type CheckOutCommand struct {
	// UserID - внутренний идентификатор сотрудника.
	UserID string

	// Timestamp - момент отметки (ноль = текущее время школы).
	Timestamp time.Time

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate validates the command.
func (c CheckOutCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("check_out: user_id is required")
	}
	return nil
}

// CheckOutResult содержит результат отметки ухода.
type CheckOutResult struct {
	RecordID     string
	Status       attendance.Status
	Points       shared.Points
	CheckOutTime time.Time
}

// CheckOutHandler handles the CheckOutCommand.
type CheckOutHandler struct {
	recordStore    attendance.Store
	configStore    school.Store
	engine         *attendance.Engine
	eventPublisher shared.EventPublisher
}

// NewCheckOutHandler creates a new CheckOutHandler.
func NewCheckOutHandler(
	recordStore attendance.Store,
	configStore school.Store,
	engine *attendance.Engine,
	eventPublisher shared.EventPublisher,
) *CheckOutHandler {
	return &CheckOutHandler{
		recordStore:    recordStore,
		configStore:    configStore,
		engine:         engine,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the check-out command.
func (h *CheckOutHandler) Handle(ctx context.Context, cmd CheckOutCommand) (*CheckOutResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("check_out: validation failed: %w", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = timeutil.Now()
	}

	cfg, err := h.configStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("check_out: failed to load school config: %w", err)
	}

	today := shared.DateKey(timeutil.DateKey(now))
	existing, err := h.recordStore.FindMain(ctx, cmd.UserID, today)
	if err != nil {
		return nil, fmt.Errorf("check_out: failed to look up today's record: %w", err)
	}
	if existing == nil {
		return nil, shared.ErrNotEligibleForCheckout
	}

	rec, err := h.engine.EvaluateCheckOut(existing, now, cfg)
	if err != nil {
		return nil, err
	}

	if err := h.recordStore.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("check_out: failed to persist record: %w", err)
	}

	event := shared.NewCheckedOutEvent(rec.ID, rec.UserID, string(rec.Date), *rec.CheckOutTime)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &CheckOutResult{
		RecordID:     rec.ID,
		Status:       rec.Status,
		Points:       rec.Points,
		CheckOutTime: *rec.CheckOutTime,
	}, nil
}
