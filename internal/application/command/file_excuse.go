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
// FILE EXCUSE COMMAND
// Заявленное отсутствие (izin/sakit): создаёт Main-запись со статусом Excused
// без проверки геозоны и времени. Баллы не начисляются.
// ══════════════════════════════════════════════════════════════════════════════

// FileExcuseCommand содержит данные заявления об отсутствии.
type FileExcuseCommand struct {
	// UserID - внутренний идентификатор сотрудника.
	UserID string

	// Reason - причина отсутствия (обязательна).
	Reason string

	// SubstitutionLink - необязательная ссылка на задание замещения.
	SubstitutionLink string

	// Timestamp - момент подачи (ноль = текущее время школы).
	Timestamp time.Time

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate validates the command.
func (c FileExcuseCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("file_excuse: user_id is required")
	}
	if c.Reason == "" {
		return errors.New("file_excuse: reason is required")
	}
	return nil
}

// FileExcuseResult содержит результат заявления.
type FileExcuseResult struct {
	RecordID string
	Status   attendance.Status
	Date     shared.DateKey
}

// FileExcuseHandler handles the FileExcuseCommand.
type FileExcuseHandler struct {
	userRepo       user.Repository
	recordStore    attendance.Store
	engine         *attendance.Engine
	eventPublisher shared.EventPublisher
}

// NewFileExcuseHandler creates a new FileExcuseHandler.
func NewFileExcuseHandler(
	userRepo user.Repository,
	recordStore attendance.Store,
	engine *attendance.Engine,
	eventPublisher shared.EventPublisher,
) *FileExcuseHandler {
	return &FileExcuseHandler{
		userRepo:       userRepo,
		recordStore:    recordStore,
		engine:         engine,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the file-excuse command.
func (h *FileExcuseHandler) Handle(ctx context.Context, cmd FileExcuseCommand) (*FileExcuseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("file_excuse: validation failed: %w", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = timeutil.Now()
	}

	u, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("file_excuse: failed to get user: %w", err)
	}
	if !u.IsActive {
		return nil, shared.ErrInactiveUser
	}

	today := shared.DateKey(timeutil.DateKey(now))
	existing, err := h.recordStore.FindMain(ctx, u.ID, today)
	if err != nil {
		return nil, fmt.Errorf("file_excuse: failed to look up today's record: %w", err)
	}

	rec, err := h.engine.FileExcuse(u, now, cmd.Reason, cmd.SubstitutionLink, existing)
	if err != nil {
		return nil, err
	}

	if err := h.recordStore.CreateIfAbsent(ctx, rec); err != nil {
		if errors.Is(err, shared.ErrRecordExists) {
			return nil, shared.ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("file_excuse: failed to persist record: %w", err)
	}

	event := shared.NewAttendanceRecordedEvent(
		shared.EventExcuseFiled,
		rec.ID, rec.UserID, string(rec.Date),
		string(rec.Type), string(rec.Status), int(rec.Points),
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &FileExcuseResult{
		RecordID: rec.ID,
		Status:   rec.Status,
		Date:     rec.Date,
	}, nil
}
