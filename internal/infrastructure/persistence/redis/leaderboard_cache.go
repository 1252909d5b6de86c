package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopresensi/attendance-hub/internal/domain/scoring"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache caches computed leaderboard views in Redis.
//
// Keying:
//   - "leaderboard:{month}:{category}" stores the ranked entries as a JSON array
//
// A view is small (top staff of one school), so the whole slice is stored as
// one value rather than a sorted set. Invalidation drops every category of a
// month at once, because any attendance change in that month can reshuffle
// all of them.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a leaderboard cache on top of the shared client.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

func leaderboardViewKey(month string, category shared.RoleLabel) string {
	if category == "" {
		category = scoring.CategoryAllStaff
	}
	return fmt.Sprintf("%s%s:%s", PrefixLeaderboard, month, category)
}

// Get returns the cached view for (category, month). The second return value
// reports whether the view was present.
func (lc *LeaderboardCache) Get(ctx context.Context, category shared.RoleLabel, month string) ([]scoring.Entry, bool, error) {
	var entries []scoring.Entry
	err := lc.cache.Get(ctx, leaderboardViewKey(month, category), &entries)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("leaderboard cache get: %w", err)
	}
	return entries, true, nil
}

// Set stores the computed view for (category, month).
func (lc *LeaderboardCache) Set(ctx context.Context, category shared.RoleLabel, month string, entries []scoring.Entry) error {
	err := lc.cache.Set(ctx, leaderboardViewKey(month, category), entries, TTLLeaderboardCache)
	if err != nil {
		return fmt.Errorf("leaderboard cache set: %w", err)
	}
	return nil
}

// Invalidate drops every cached category view of the given month.
func (lc *LeaderboardCache) Invalidate(ctx context.Context, month string) error {
	pattern := fmt.Sprintf("%s%s:*", PrefixLeaderboard, month)
	if err := lc.cache.DeleteByPattern(ctx, pattern); err != nil {
		return fmt.Errorf("leaderboard cache invalidate: %w", err)
	}
	return nil
}
