package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopresensi/attendance-hub/internal/domain/geo"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE SCHOOL CONFIG COMMAND
// Административная запись конфигурации школы. Кандидат валидируется целиком
// до записи; действующие записи посещаемости не пересматриваются.
// ══════════════════════════════════════════════════════════════════════════════

// SaveConfigCommand содержит новую конфигурацию целиком.
type SaveConfigCommand struct {
	AdminID string

	SchoolName    string
	SchoolAddress string

	// Latitude, Longitude, RadiusMeters описывают геозону.
	Latitude     float64
	Longitude    float64
	RadiusMeters int

	// StartHour, MinCheckOutHour, EndHour - целые часы 0-23,
	// строго возрастающие.
	StartHour       int
	MinCheckOutHour int
	EndHour         int

	// ActiveDays - рабочие дни недели (0=вс ... 6=сб).
	ActiveDays []int

	CorrelationID string
}

// Validate validates the command.
func (c SaveConfigCommand) Validate() error {
	if c.AdminID == "" {
		return errors.New("save_config: admin_id is required")
	}
	if c.SchoolName == "" {
		return errors.New("save_config: school name is required")
	}
	return nil
}

// toConfig собирает доменную конфигурацию из команды.
func (c SaveConfigCommand) toConfig() *school.Config {
	return &school.Config{
		SchoolName:      c.SchoolName,
		SchoolAddress:   c.SchoolAddress,
		GeofenceCenter:  geo.Point{Lat: c.Latitude, Lng: c.Longitude},
		RadiusMeters:    c.RadiusMeters,
		StartHour:       shared.HourOfDay(c.StartHour),
		MinCheckOutHour: shared.HourOfDay(c.MinCheckOutHour),
		EndHour:         shared.HourOfDay(c.EndHour),
		ActiveDays:      shared.WeekdaySet(c.ActiveDays),
		UpdatedAt:       timeutil.Now(),
	}
}

// SaveConfigHandler handles the SaveConfigCommand.
type SaveConfigHandler struct {
	userRepo       user.Repository
	configStore    school.Store
	eventPublisher shared.EventPublisher
}

// NewSaveConfigHandler creates a new SaveConfigHandler.
func NewSaveConfigHandler(
	userRepo user.Repository,
	configStore school.Store,
	eventPublisher shared.EventPublisher,
) *SaveConfigHandler {
	return &SaveConfigHandler{
		userRepo:       userRepo,
		configStore:    configStore,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the save-config command.
func (h *SaveConfigHandler) Handle(ctx context.Context, cmd SaveConfigCommand) (*school.Config, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("save_config: validation failed: %w", err)
	}

	admin, err := h.userRepo.GetByID(ctx, cmd.AdminID)
	if err != nil {
		return nil, fmt.Errorf("save_config: failed to get admin: %w", err)
	}
	if !admin.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	cfg := cmd.toConfig()
	cfg.ActiveDays = cfg.ActiveDays.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := h.configStore.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save_config: failed to persist config: %w", err)
	}

	event := shared.ConfigUpdatedEvent{
		BaseEvent:       shared.NewBaseEvent(shared.EventConfigUpdated, cmd.AdminID),
		RadiusMeters:    cfg.RadiusMeters,
		StartHour:       int(cfg.StartHour),
		MinCheckOutHour: int(cfg.MinCheckOutHour),
		EndHour:         int(cfg.EndHour),
		ActiveDays:      []int(cfg.ActiveDays),
	}
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return cfg, nil
}
