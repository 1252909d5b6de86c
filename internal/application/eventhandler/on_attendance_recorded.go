// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они реагируют на изменения
// и запускают побочные эффекты, например сброс кэшей.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/geopresensi/attendance-hub/internal/application/query"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ATTENDANCE RECORDED HANDLER
// Любая запись посещаемости или её правка устаревает готовые рейтинги
// месяца. Обработчик сбрасывает кэш; следующий запрос рейтинга
// пересчитает и заполнит его заново.
// ═══════════════════════════════════════════════════════════════════════════

// OnAttendanceRecordedHandler сбрасывает кэш рейтингов при изменениях
// посещаемости.
type OnAttendanceRecordedHandler struct {
	cache  query.LeaderboardCache
	logger *slog.Logger

	// invalidateTimeout ограничивает поход в Redis из обработчика.
	invalidateTimeout time.Duration
}

// NewOnAttendanceRecordedHandler создаёт обработчик.
func NewOnAttendanceRecordedHandler(cache query.LeaderboardCache, logger *slog.Logger) *OnAttendanceRecordedHandler {
	return &OnAttendanceRecordedHandler{
		cache:             cache,
		logger:            logger,
		invalidateTimeout: 3 * time.Second,
	}
}

// EventTypes возвращает события, на которые подписан обработчик.
func (h *OnAttendanceRecordedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventCheckedIn,
		shared.EventExcuseFiled,
		shared.EventTaskReported,
		shared.EventStatusOverridden,
		shared.EventPointsRecomputed,
	}
}

// Handle реализует shared.EventHandler.
func (h *OnAttendanceRecordedHandler) Handle(event shared.Event) error {
	if h.cache == nil {
		return nil
	}

	month := monthOfEvent(event)
	if month == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.invalidateTimeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx, month); err != nil {
		// Устаревший кэш не фатален: истечёт по TTL.
		h.logger.Warn("leaderboard cache invalidation failed",
			slog.String("event", string(event.EventType())),
			slog.String("month", month),
			slog.Any("error", err),
		)
		return nil
	}

	h.logger.Debug("leaderboard cache invalidated",
		slog.String("event", string(event.EventType())),
		slog.String("month", month),
	)
	return nil
}

// monthOfEvent извлекает месяц YYYY-MM из даты события.
func monthOfEvent(event shared.Event) string {
	payload := event.Payload()
	date, _ := payload["date"].(string)
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}
