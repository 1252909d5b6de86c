// Package jobs contains implementations of scheduled jobs for the GeoPresensi
// attendance hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geopresensi/attendance-hub/internal/application/query"
	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/scoring"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob recomputes the current month's leaderboard views and
// warms the cache. Event-driven invalidation keeps the cache fresh during the
// day; this job repairs any view that was dropped without being recomputed,
// so the morning dashboard never hits a cold cache.
type RebuildLeaderboardJob struct {
	recordStore    attendance.Store
	userRepo       user.Repository
	aggregator     *scoring.Aggregator
	cache          query.LeaderboardCache
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config RebuildLeaderboardConfig
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// Categories are the duty-role views to rebuild in addition to the
	// all-staff view. Empty means every duty role found among active staff.
	Categories []shared.RoleLabel

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		Categories: nil,
		Timeout:    2 * time.Minute,
	}
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	recordStore attendance.Store,
	userRepo user.Repository,
	aggregator *scoring.Aggregator,
	cache query.LeaderboardCache,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildLeaderboardJob{
		recordStore:    recordStore,
		userRepo:       userRepo,
		aggregator:     aggregator,
		cache:          cache,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Recomputes the current month's leaderboard views and warms the cache"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	month := timeutil.MonthKey(timeutil.Now())

	j.logger.Info("starting rebuild_leaderboard job", "month", month)

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	// Один проход по записям месяца покрывает все категории.
	records, err := j.recordStore.List(ctx, attendance.Filter{
		Type:  attendance.TypeMain,
		Month: month,
	})
	if err != nil {
		return fmt.Errorf("failed to list month records: %w", err)
	}

	staff, err := j.userRepo.List(ctx, user.ListOptions{
		OnlyActive: true,
		Role:       user.RoleStaff,
	})
	if err != nil {
		return fmt.Errorf("failed to list staff: %w", err)
	}

	categories := j.categories(staff)
	var rebuilt int
	for _, category := range categories {
		entries := j.aggregator.Leaderboard(records, staff, category, 0)
		if err := j.cache.Set(ctx, category, month, entries); err != nil {
			j.logger.Error("failed to cache leaderboard view",
				"category", category,
				"month", month,
				"error", err,
			)
			continue
		}
		rebuilt++

		event := shared.LeaderboardRebuiltEvent{
			BaseEvent:  shared.NewBaseEvent(shared.EventLeaderboardRebuilt, string(category)),
			Category:   string(category),
			EntryCount: len(entries),
			Took:       time.Since(startedAt),
		}
		if err := j.eventPublisher.Publish(event); err != nil {
			j.logger.Warn("failed to publish rebuild event", "error", err)
		}
	}

	j.logger.Info("rebuild_leaderboard job completed",
		"month", month,
		"categories", len(categories),
		"rebuilt", rebuilt,
		"duration", time.Since(startedAt).String(),
	)

	return nil
}

// categories returns the views to rebuild: the all-staff view plus either the
// configured duty roles or every duty role assigned to active staff.
func (j *RebuildLeaderboardJob) categories(staff []*user.User) []shared.RoleLabel {
	categories := []shared.RoleLabel{scoring.CategoryAllStaff}

	if len(j.config.Categories) > 0 {
		return append(categories, j.config.Categories...)
	}

	seen := make(map[shared.RoleLabel]struct{})
	for _, u := range staff {
		for _, role := range u.AdditionalRoles {
			if _, ok := seen[role]; ok {
				continue
			}
			seen[role] = struct{}{}
			categories = append(categories, role)
		}
	}
	return categories
}
