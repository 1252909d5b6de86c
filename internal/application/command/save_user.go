package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STAFF MANAGEMENT COMMANDS
// Создание, правка и деактивация сотрудников. Аккаунты не удаляются:
// деактивация сохраняет историю посещаемости и выводит сотрудника из
// ежедневного цикла.
// ══════════════════════════════════════════════════════════════════════════════

// CreateUserCommand содержит данные нового сотрудника.
type CreateUserCommand struct {
	AdminID string

	Username string
	FullName string
	NUPTK    string
	Password string
	Role     user.Role

	Subjects           []string
	AdditionalRoles    []shared.RoleLabel
	SpecificActiveDays []int

	CorrelationID string
}

// Validate validates the command.
func (c CreateUserCommand) Validate() error {
	if c.AdminID == "" {
		return errors.New("create_user: admin_id is required")
	}
	if c.Username == "" {
		return errors.New("create_user: username is required")
	}
	if c.Password == "" {
		return errors.New("create_user: password is required")
	}
	return nil
}

// UpdateUserCommand содержит правки существующего сотрудника.
// Nil-поля остаются без изменений.
type UpdateUserCommand struct {
	AdminID string
	UserID  string

	FullName           *string
	NUPTK              *string
	Password           *string
	Subjects           []string
	AdditionalRoles    []shared.RoleLabel
	SpecificActiveDays []int

	CorrelationID string
}

// Validate validates the command.
func (c UpdateUserCommand) Validate() error {
	if c.AdminID == "" {
		return errors.New("update_user: admin_id is required")
	}
	if c.UserID == "" {
		return errors.New("update_user: user_id is required")
	}
	return nil
}

// DeactivateUserCommand выводит сотрудника из активного состава.
type DeactivateUserCommand struct {
	AdminID       string
	UserID        string
	CorrelationID string
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UserAdminHandler обслуживает команды управления сотрудниками.
type UserAdminHandler struct {
	userRepo       user.Repository
	eventPublisher shared.EventPublisher
}

// NewUserAdminHandler creates a new UserAdminHandler.
func NewUserAdminHandler(userRepo user.Repository, eventPublisher shared.EventPublisher) *UserAdminHandler {
	return &UserAdminHandler{
		userRepo:       userRepo,
		eventPublisher: eventPublisher,
	}
}

// requireAdmin проверяет, что команду выполняет администратор.
func (h *UserAdminHandler) requireAdmin(ctx context.Context, adminID string) error {
	admin, err := h.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to get admin: %w", err)
	}
	if !admin.IsAdmin() {
		return shared.ErrForbidden
	}
	return nil
}

// HandleCreate создаёт нового сотрудника.
func (h *UserAdminHandler) HandleCreate(ctx context.Context, cmd CreateUserCommand) (*user.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_user: validation failed: %w", err)
	}
	if err := h.requireAdmin(ctx, cmd.AdminID); err != nil {
		return nil, fmt.Errorf("create_user: %w", err)
	}

	// Ранняя проверка логина; гонку закрывает уникальный индекс в базе.
	if _, err := h.userRepo.GetByUsername(ctx, user.Username(cmd.Username)); err == nil {
		return nil, shared.ErrUsernameTaken
	} else if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("create_user: failed to check username: %w", err)
	}

	role := cmd.Role
	if role == "" {
		role = user.RoleStaff
	}

	now := timeutil.Now()
	u := &user.User{
		ID:                 uuid.NewString(),
		Username:           user.Username(cmd.Username),
		FullName:           cmd.FullName,
		NUPTK:              user.NUPTK(cmd.NUPTK),
		Role:               role,
		IsActive:           true,
		Subjects:           cmd.Subjects,
		AdditionalRoles:    cmd.AdditionalRoles,
		SpecificActiveDays: shared.WeekdaySet(cmd.SpecificActiveDays).Normalize(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := u.SetPassword(cmd.Password); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	if err := h.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create_user: failed to persist user: %w", err)
	}

	event := shared.NewBaseEvent(shared.EventUserCreated, u.ID)
	if cmd.CorrelationID != "" {
		event = event.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(baseOnlyEvent{event})

	return u, nil
}

// HandleUpdate применяет выборочные правки сотрудника.
func (h *UserAdminHandler) HandleUpdate(ctx context.Context, cmd UpdateUserCommand) (*user.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_user: validation failed: %w", err)
	}
	if err := h.requireAdmin(ctx, cmd.AdminID); err != nil {
		return nil, fmt.Errorf("update_user: %w", err)
	}

	u, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("update_user: failed to get user: %w", err)
	}

	if cmd.FullName != nil {
		u.FullName = *cmd.FullName
	}
	if cmd.NUPTK != nil {
		u.NUPTK = user.NUPTK(*cmd.NUPTK)
	}
	if cmd.Password != nil {
		if err := u.SetPassword(*cmd.Password); err != nil {
			return nil, err
		}
	}
	if cmd.Subjects != nil {
		u.Subjects = cmd.Subjects
	}
	if cmd.AdditionalRoles != nil {
		u.AdditionalRoles = cmd.AdditionalRoles
	}
	if cmd.SpecificActiveDays != nil {
		u.SpecificActiveDays = shared.WeekdaySet(cmd.SpecificActiveDays).Normalize()
	}
	u.UpdatedAt = timeutil.Now()

	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := h.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update_user: failed to persist user: %w", err)
	}

	event := shared.NewBaseEvent(shared.EventUserUpdated, u.ID)
	if cmd.CorrelationID != "" {
		event = event.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(baseOnlyEvent{event})

	return u, nil
}

// HandleDeactivate выводит сотрудника из активного состава.
func (h *UserAdminHandler) HandleDeactivate(ctx context.Context, cmd DeactivateUserCommand) error {
	if cmd.AdminID == "" || cmd.UserID == "" {
		return errors.New("deactivate_user: admin_id and user_id are required")
	}
	if err := h.requireAdmin(ctx, cmd.AdminID); err != nil {
		return fmt.Errorf("deactivate_user: %w", err)
	}

	u, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return fmt.Errorf("deactivate_user: failed to get user: %w", err)
	}

	u.Deactivate()
	u.UpdatedAt = timeutil.Now()
	if err := h.userRepo.Update(ctx, u); err != nil {
		return fmt.Errorf("deactivate_user: failed to persist user: %w", err)
	}

	event := shared.NewUserDeactivatedEvent(u.ID, string(u.Username))
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return nil
}

// baseOnlyEvent adapts a bare BaseEvent to the Event interface for
// notifications that carry no extra payload.
type baseOnlyEvent struct {
	shared.BaseEvent
}

// Payload implements Event interface.
func (e baseOnlyEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}
