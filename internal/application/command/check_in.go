// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/geo"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK-IN COMMAND
// Ежедневная отметка прихода: позиция сотрудника сверяется с геозоной школы,
// час прихода определяет статус (Present/Late) и баллы.
// ══════════════════════════════════════════════════════════════════════════════

// CheckInCommand содержит данные для отметки прихода.
type CheckInCommand struct {
	// UserID - внутренний идентификатор сотрудника.
	UserID string

	// Latitude, Longitude - позиция из браузера сотрудника.
	Latitude  float64
	Longitude float64

	// Timestamp - момент отметки (ноль = текущее время школы).
	Timestamp time.Time

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate validates the command.
func (c CheckInCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("check_in: user_id is required")
	}
	point := geo.Point{Lat: c.Latitude, Lng: c.Longitude}
	if !point.IsValid() {
		return errors.New("check_in: coordinates out of range")
	}
	return nil
}

// CheckInResult содержит результат отметки прихода.
type CheckInResult struct {
	// RecordID - идентификатор созданной записи.
	RecordID string

	// Status - присвоенный статус (present или late).
	Status attendance.Status

	// Points - начисленные баллы.
	Points shared.Points

	// DistanceMeters - расстояние до центра геозоны.
	DistanceMeters float64

	// CheckInTime - зафиксированное время прихода.
	CheckInTime time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CheckInHandler handles the CheckInCommand.
type CheckInHandler struct {
	userRepo       user.Repository
	recordStore    attendance.Store
	configStore    school.Store
	engine         *attendance.Engine
	eventPublisher shared.EventPublisher
}

// NewCheckInHandler creates a new CheckInHandler.
func NewCheckInHandler(
	userRepo user.Repository,
	recordStore attendance.Store,
	configStore school.Store,
	engine *attendance.Engine,
	eventPublisher shared.EventPublisher,
) *CheckInHandler {
	return &CheckInHandler{
		userRepo:       userRepo,
		recordStore:    recordStore,
		configStore:    configStore,
		engine:         engine,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the check-in command.
func (h *CheckInHandler) Handle(ctx context.Context, cmd CheckInCommand) (*CheckInResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("check_in: validation failed: %w", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = timeutil.Now()
	}

	u, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("check_in: failed to get user: %w", err)
	}
	if !u.IsActive {
		return nil, shared.ErrInactiveUser
	}

	cfg, err := h.configStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("check_in: failed to load school config: %w", err)
	}

	today := shared.DateKey(timeutil.DateKey(now))
	existing, err := h.recordStore.FindMain(ctx, u.ID, today)
	if err != nil {
		return nil, fmt.Errorf("check_in: failed to look up today's record: %w", err)
	}

	position := geo.Point{Lat: cmd.Latitude, Lng: cmd.Longitude}
	rec, err := h.engine.EvaluateCheckIn(u, now, position, cfg, existing)
	if err != nil {
		return nil, err
	}

	// Гонку двух одновременных check-in закрывает хранилище: второй
	// CreateIfAbsent по тому же (user, date) вернёт конфликт.
	if err := h.recordStore.CreateIfAbsent(ctx, rec); err != nil {
		if errors.Is(err, shared.ErrRecordExists) {
			return nil, shared.ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("check_in: failed to persist record: %w", err)
	}

	event := shared.NewAttendanceRecordedEvent(
		shared.EventCheckedIn,
		rec.ID, rec.UserID, string(rec.Date),
		string(rec.Type), string(rec.Status), int(rec.Points),
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &CheckInResult{
		RecordID:       rec.ID,
		Status:         rec.Status,
		Points:         rec.Points,
		DistanceMeters: rec.DistanceMeters,
		CheckInTime:    *rec.CheckInTime,
	}, nil
}
