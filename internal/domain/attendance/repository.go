package attendance

import (
	"context"

	"github.com/geopresensi/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD STORE INTERFACE
// Контракт хранилища записей. Движок предполагает, что дубликат уже проверен
// вызывающей стороной, но хранилище обязано исключить гонку двух одновременных
// вставок атомарным CreateIfAbsent.
// ══════════════════════════════════════════════════════════════════════════════

// Filter задаёт параметры выборки записей.
type Filter struct {
	// UserID - фильтр по сотруднику (пустая строка = все).
	UserID string

	// Type - фильтр по виду записи (пустая строка = оба вида).
	Type Type

	// Month - фильтр по месяцу YYYY-MM (пустая строка = без ограничения).
	Month string

	// DateFrom, DateTo - диапазон дней включительно (пустые = без границ).
	DateFrom shared.DateKey
	DateTo   shared.DateKey

	// Limit - максимум записей (0 = без ограничения).
	Limit int
}

// Store определяет операции хранилища записей посещаемости.
type Store interface {
	// CreateIfAbsent атомарно вставляет запись, если ключ ещё не занят:
	// (userID, date) для Main, (userID, date, метка обязанности) для
	// Additional. Возвращает shared.ErrRecordExists при конфликте Main и
	// shared.ErrDuplicateTask при конфликте Additional.
	CreateIfAbsent(ctx context.Context, rec *Record) error

	// Update обновляет существующую запись (check-out, override, пересчёт).
	// Возвращает shared.ErrRecordNotFound, если записи нет.
	Update(ctx context.Context, rec *Record) error

	// GetByID возвращает запись по идентификатору.
	// Возвращает shared.ErrRecordNotFound, если записи нет.
	GetByID(ctx context.Context, id string) (*Record, error)

	// FindMain возвращает Main-запись сотрудника за день либо nil,
	// если записи нет (отсутствие записи - не ошибка).
	FindMain(ctx context.Context, userID string, date shared.DateKey) (*Record, error)

	// FindAdditional возвращает Additional-записи сотрудника за день.
	FindAdditional(ctx context.Context, userID string, date shared.DateKey) ([]*Record, error)

	// List возвращает записи согласно фильтру, упорядоченные по дню
	// (новые первыми).
	List(ctx context.Context, f Filter) ([]*Record, error)
}
