// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"
	"fmt"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/scoring"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Рейтинг персонала за месяц. Считается только по Main-записям; категория
// либо общая (весь персонал), либо одна из дополнительных обязанностей.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultLeaderboardLimit - стандартный топ главной страницы.
	DefaultLeaderboardLimit = 5

	// MaxLeaderboardLimit - верхняя граница запрошенного размера.
	MaxLeaderboardLimit = 100
)

// LeaderboardCache - кэш готовых рейтингов (реализация - Redis).
// Промах кэша не считается ошибкой запроса.
type LeaderboardCache interface {
	Get(ctx context.Context, category shared.RoleLabel, month string) ([]scoring.Entry, bool, error)
	Set(ctx context.Context, category shared.RoleLabel, month string, entries []scoring.Entry) error
	Invalidate(ctx context.Context, month string) error
}

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Category - категория рейтинга (пусто = общая).
	Category shared.RoleLabel

	// Month - месяц YYYY-MM (пусто = текущий месяц школы).
	Month string

	// Limit - количество строк (по умолчанию 5, максимум 100).
	Limit int
}

// normalize подставляет значения по умолчанию.
func (q GetLeaderboardQuery) normalize() GetLeaderboardQuery {
	if q.Category == "" {
		q.Category = scoring.CategoryAllStaff
	}
	if q.Month == "" {
		q.Month = timeutil.MonthKey(timeutil.Now())
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLeaderboardLimit
	}
	if q.Limit > MaxLeaderboardLimit {
		q.Limit = MaxLeaderboardLimit
	}
	return q
}

// LeaderboardView - результат запроса.
type LeaderboardView struct {
	Category  shared.RoleLabel `json:"category"`
	Month     string           `json:"month"`
	Entries   []scoring.Entry  `json:"entries"`
	FromCache bool             `json:"-"`
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	recordStore attendance.Store
	userRepo    user.Repository
	aggregator  *scoring.Aggregator
	cache       LeaderboardCache // nil = кэш отключён
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(
	recordStore attendance.Store,
	userRepo user.Repository,
	aggregator *scoring.Aggregator,
	cache LeaderboardCache,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		recordStore: recordStore,
		userRepo:    userRepo,
		aggregator:  aggregator,
		cache:       cache,
	}
}

// Handle executes the leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardView, error) {
	q = q.normalize()

	if h.cache != nil {
		if entries, ok, err := h.cache.Get(ctx, q.Category, q.Month); err == nil && ok {
			if len(entries) > q.Limit {
				entries = entries[:q.Limit]
			}
			return &LeaderboardView{Category: q.Category, Month: q.Month, Entries: entries, FromCache: true}, nil
		}
	}

	entries, err := h.compute(ctx, q)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, q.Category, q.Month, entries)
	}

	return &LeaderboardView{Category: q.Category, Month: q.Month, Entries: entries}, nil
}

// compute пересчитывает рейтинг из хранилищ.
func (h *GetLeaderboardHandler) compute(ctx context.Context, q GetLeaderboardQuery) ([]scoring.Entry, error) {
	records, err := h.recordStore.List(ctx, attendance.Filter{
		Type:  attendance.TypeMain,
		Month: q.Month,
	})
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to list records: %w", err)
	}

	users, err := h.userRepo.List(ctx, user.ListOptions{OnlyActive: true, Role: user.RoleStaff})
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to list users: %w", err)
	}

	return h.aggregator.Leaderboard(records, users, q.Category, q.Limit), nil
}
