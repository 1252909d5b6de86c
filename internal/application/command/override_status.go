package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// OVERRIDE STATUS COMMAND
// Административная правка статуса записи. Баллы при этом не пересчитываются:
// расхождение сохраняется до явного запроса RecomputePoints.
// ══════════════════════════════════════════════════════════════════════════════

// OverrideStatusCommand содержит данные правки.
type OverrideStatusCommand struct {
	// AdminID - идентификатор администратора, выполняющего правку.
	AdminID string

	// RecordID - идентификатор записи.
	RecordID string

	// NewStatus - новый статус дня.
	NewStatus attendance.Status

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate validates the command.
func (c OverrideStatusCommand) Validate() error {
	if c.AdminID == "" {
		return errors.New("override_status: admin_id is required")
	}
	if c.RecordID == "" {
		return errors.New("override_status: record_id is required")
	}
	if !c.NewStatus.IsValid() {
		return fmt.Errorf("override_status: unknown status %q", c.NewStatus)
	}
	return nil
}

// OverrideStatusResult содержит результат правки.
type OverrideStatusResult struct {
	RecordID  string
	OldStatus attendance.Status
	NewStatus attendance.Status

	// Points - баллы записи после правки (намеренно прежние).
	Points shared.Points
}

// OverrideStatusHandler handles the OverrideStatusCommand.
type OverrideStatusHandler struct {
	userRepo       user.Repository
	recordStore    attendance.Store
	engine         *attendance.Engine
	eventPublisher shared.EventPublisher
}

// NewOverrideStatusHandler creates a new OverrideStatusHandler.
func NewOverrideStatusHandler(
	userRepo user.Repository,
	recordStore attendance.Store,
	engine *attendance.Engine,
	eventPublisher shared.EventPublisher,
) *OverrideStatusHandler {
	return &OverrideStatusHandler{
		userRepo:       userRepo,
		recordStore:    recordStore,
		engine:         engine,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the override-status command.
func (h *OverrideStatusHandler) Handle(ctx context.Context, cmd OverrideStatusCommand) (*OverrideStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("override_status: validation failed: %w", err)
	}

	admin, err := h.userRepo.GetByID(ctx, cmd.AdminID)
	if err != nil {
		return nil, fmt.Errorf("override_status: failed to get admin: %w", err)
	}
	if !admin.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	rec, err := h.recordStore.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, fmt.Errorf("override_status: failed to get record: %w", err)
	}
	oldStatus := rec.Status

	updated, err := h.engine.OverrideStatus(rec, cmd.NewStatus)
	if err != nil {
		return nil, err
	}

	if err := h.recordStore.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("override_status: failed to persist record: %w", err)
	}

	event := shared.NewStatusOverriddenEvent(
		updated.ID, updated.UserID, string(updated.Date),
		string(oldStatus), string(updated.Status), cmd.AdminID,
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &OverrideStatusResult{
		RecordID:  updated.ID,
		OldStatus: oldStatus,
		NewStatus: updated.Status,
		Points:    updated.Points,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE POINTS COMMAND
// Явный пересчёт баллов записи по текущему статусу - единственный способ
// привести баллы в соответствие после административной правки.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputePointsCommand содержит данные пересчёта.
type RecomputePointsCommand struct {
	AdminID       string
	RecordID      string
	CorrelationID string
}

// Validate validates the command.
func (c RecomputePointsCommand) Validate() error {
	if c.AdminID == "" {
		return errors.New("recompute_points: admin_id is required")
	}
	if c.RecordID == "" {
		return errors.New("recompute_points: record_id is required")
	}
	return nil
}

// RecomputePointsResult содержит результат пересчёта.
type RecomputePointsResult struct {
	RecordID  string
	OldPoints shared.Points
	NewPoints shared.Points
}

// RecomputePointsHandler handles the RecomputePointsCommand.
type RecomputePointsHandler struct {
	userRepo       user.Repository
	recordStore    attendance.Store
	engine         *attendance.Engine
	eventPublisher shared.EventPublisher
}

// NewRecomputePointsHandler creates a new RecomputePointsHandler.
func NewRecomputePointsHandler(
	userRepo user.Repository,
	recordStore attendance.Store,
	engine *attendance.Engine,
	eventPublisher shared.EventPublisher,
) *RecomputePointsHandler {
	return &RecomputePointsHandler{
		userRepo:       userRepo,
		recordStore:    recordStore,
		engine:         engine,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the recompute-points command.
func (h *RecomputePointsHandler) Handle(ctx context.Context, cmd RecomputePointsCommand) (*RecomputePointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("recompute_points: validation failed: %w", err)
	}

	admin, err := h.userRepo.GetByID(ctx, cmd.AdminID)
	if err != nil {
		return nil, fmt.Errorf("recompute_points: failed to get admin: %w", err)
	}
	if !admin.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	rec, err := h.recordStore.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, fmt.Errorf("recompute_points: failed to get record: %w", err)
	}
	oldPoints := rec.Points

	updated := h.engine.RecomputePoints(rec)
	if err := h.recordStore.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("recompute_points: failed to persist record: %w", err)
	}

	event := shared.NewAttendanceRecordedEvent(
		shared.EventPointsRecomputed,
		updated.ID, updated.UserID, string(updated.Date),
		string(updated.Type), string(updated.Status), int(updated.Points),
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RecomputePointsResult{
		RecordID:  updated.ID,
		OldPoints: oldPoints,
		NewPoints: updated.Points,
	}, nil
}
