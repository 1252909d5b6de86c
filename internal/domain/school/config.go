// Package school содержит единственную (singleton) конфигурацию школы:
// геозону, временные окна посещаемости и общешкольное расписание рабочих дней.
// Конфигурация создаётся один раз с значениями по умолчанию, читается при
// каждом решении о посещаемости и меняется только явным сохранением
// администратора после повторной валидации.
package school

import (
	"context"
	"strings"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/geo"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: SCHOOL CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// Config - конфигурация школы. Передаётся в движок посещаемости явно при
// каждом вызове: никакого глобального состояния, движок остаётся чистой
// функцией своих входов.
type Config struct {
	// SchoolName - название школы (для отчётов и интерфейса).
	SchoolName string

	// SchoolAddress - адрес школы.
	SchoolAddress string

	// GeofenceCenter - опорная точка геозоны.
	GeofenceCenter geo.Point

	// RadiusMeters - радиус геозоны в метрах. Расстояние, равное радиусу,
	// ещё считается "в школе" (граница включительно).
	RadiusMeters int

	// StartHour - час (0-23), с которого открыт check-in.
	// Ровно в этот час - Present, позже - Late.
	StartHour shared.HourOfDay

	// MinCheckOutHour - самый ранний час check-out.
	MinCheckOutHour shared.HourOfDay

	// EndHour - конец рабочего дня. Участвует только в инварианте
	// конфигурации: поздний check-in им не ограничивается.
	EndHour shared.HourOfDay

	// ActiveDays - общешкольные обязательные дни недели (0=воскресенье).
	ActiveDays shared.WeekdaySet

	// UpdatedAt - время последнего сохранения.
	UpdatedAt time.Time
}

// Default возвращает конфигурацию первого запуска.
func Default() *Config {
	return &Config{
		SchoolName:      "GeoPresensi School",
		SchoolAddress:   "-",
		GeofenceCenter:  geo.Point{Lat: -6.2, Lng: 106.8},
		RadiusMeters:    50,
		StartHour:       6,
		MinCheckOutHour: 14,
		EndHour:         17,
		ActiveDays:      shared.WeekdaySet{1, 2, 3, 4, 5},
	}
}

// Validate проверяет структурные инварианты перед сохранением.
// Единственный обязательный инвариант временных окон:
// StartHour < MinCheckOutHour < EndHour (строго).
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SchoolName) == "" {
		return shared.NewDomainError("school", "Validate", shared.ErrEmptyValue, "school name is required")
	}
	if !c.GeofenceCenter.IsValid() {
		return shared.NewDomainError("school", "Validate", shared.ErrValueOutOfRange, "geofence center is out of WGS84 bounds")
	}
	if c.RadiusMeters <= 0 {
		return shared.ErrBadGeofence
	}
	if !c.StartHour.IsValid() || !c.MinCheckOutHour.IsValid() || !c.EndHour.IsValid() {
		return shared.NewDomainError("school", "Validate", shared.ErrValueOutOfRange, "hours must be within 0-23")
	}
	if !(c.StartHour < c.MinCheckOutHour && c.MinCheckOutHour < c.EndHour) {
		return shared.ErrBadTimeWindow
	}
	if !c.ActiveDays.IsValid() {
		return shared.NewDomainError("school", "Validate", shared.ErrValueOutOfRange, "invalid weekday index in active days")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Store определяет контракт хранилища конфигурации.
// Реализация находится в infrastructure/persistence/postgres.
type Store interface {
	// Load возвращает активную конфигурацию.
	// Возвращает shared.ErrConfigNotFound, если конфигурация ещё не создана.
	Load(ctx context.Context) (*Config, error)

	// Save сохраняет конфигурацию. Вызывающая сторона обязана провести
	// Validate до записи.
	Save(ctx context.Context, cfg *Config) error

	// SeedDefault создаёт конфигурацию по умолчанию, если хранилище пусто.
	// Возвращает действующую конфигурацию.
	SeedDefault(ctx context.Context) (*Config, error)
}
