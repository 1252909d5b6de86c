package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ABSENCE DIGEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// AbsenceDigestJob publishes a daily digest of staff who were required to be
// present today but produced no attendance record. The digest is purely
// informational: it creates no records and assigns no status, the admin
// decides what an unexplained gap means.
type AbsenceDigestJob struct {
	userRepo       user.Repository
	recordStore    attendance.Store
	configStore    school.Store
	engine         *attendance.Engine
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	timeout time.Duration
}

// NewAbsenceDigestJob creates a new absence digest job.
func NewAbsenceDigestJob(
	userRepo user.Repository,
	recordStore attendance.Store,
	configStore school.Store,
	engine *attendance.Engine,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *AbsenceDigestJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &AbsenceDigestJob{
		userRepo:       userRepo,
		recordStore:    recordStore,
		configStore:    configStore,
		engine:         engine,
		eventPublisher: eventPublisher,
		logger:         logger,
		timeout:        time.Minute,
	}
}

// Name returns the job name.
func (j *AbsenceDigestJob) Name() string {
	return "absence_digest"
}

// Description returns a human-readable description.
func (j *AbsenceDigestJob) Description() string {
	return "Publishes a daily digest of staff with no attendance record on a working day"
}

// Run executes the digest job.
func (j *AbsenceDigestJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	now := timeutil.Now()
	date := shared.DateKey(timeutil.DateKey(now))
	weekday := timeutil.WeekdayOf(now)

	cfg, err := j.configStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load school config: %w", err)
	}

	staff, err := j.userRepo.List(ctx, user.ListOptions{
		OnlyActive: true,
		Role:       user.RoleStaff,
	})
	if err != nil {
		return fmt.Errorf("failed to list staff: %w", err)
	}

	var absent []string
	for _, u := range staff {
		if !j.engine.DetermineWorkingDay(u, cfg, weekday) {
			continue
		}

		rec, err := j.recordStore.FindMain(ctx, u.ID, date)
		if err != nil {
			j.logger.Error("failed to look up main record",
				"user_id", u.ID,
				"date", date,
				"error", err,
			)
			continue
		}
		if rec == nil {
			absent = append(absent, u.ID)
		}
	}

	j.logger.Info("absence digest computed",
		"date", date,
		"staff_checked", len(staff),
		"absent", len(absent),
	)

	if len(absent) == 0 {
		return nil
	}

	event := shared.AbsenceDigestEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventAbsenceDigest, string(date)),
		Date:          string(date),
		AbsentUserIDs: absent,
	}
	if err := j.eventPublisher.Publish(event); err != nil {
		return fmt.Errorf("failed to publish absence digest: %w", err)
	}

	return nil
}
