// Package attendance содержит ядро системы GeoPresensi: модель записи
// посещаемости и движок, который решает судьбу каждого действия сотрудника -
// check-in, check-out, уважительная причина, дополнительная задача.
// Это чистая бизнес-логика: движок не выполняет побочных эффектов,
// он только возвращает запись, которую вызывающая сторона сохраняет.
package attendance

import (
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/geo"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет вид записи посещаемости.
type Type string

const (
	// TypeMain - основной дневной цикл check-in/check-out (физическое присутствие).
	TypeMain Type = "main"
	// TypeAdditional - дополнительная задача по закреплённой обязанности,
	// отмечается раз в день на каждую обязанность, без геозоны.
	TypeAdditional Type = "additional"
)

// IsValid проверяет, что тип корректен.
func (t Type) IsValid() bool {
	return t == TypeMain || t == TypeAdditional
}

// Status определяет статус дня.
type Status string

const (
	// StatusPresent - пришёл вовремя (ровно в стартовый час).
	StatusPresent Status = "present"
	// StatusLate - опоздал (после стартового часа).
	StatusLate Status = "late"
	// StatusExcused - отсутствие по уважительной причине (без физического check-in).
	StatusExcused Status = "excused"
	// StatusAbsent - прогул. Выставляется только администратором.
	StatusAbsent Status = "absent"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusExcused, StatusAbsent:
		return true
	default:
		return false
	}
}

// IsTerminalForDay возвращает true, если статус закрывает день:
// для Excused и Absent check-out не существует.
func (s Status) IsTerminalForDay() bool {
	return s == StatusExcused || s == StatusAbsent
}

// CountsAsAttended возвращает true, если статус засчитывается как присутствие
// при расчёте процента посещаемости.
func (s Status) CountsAsAttended() bool {
	return s == StatusPresent || s == StatusLate
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORING RULE
// ══════════════════════════════════════════════════════════════════════════════

// Базовые очки за статусы. Очки присваиваются один раз при создании записи
// и никогда не пересчитываются неявно.
const (
	// PointsPresent - очки за своевременный check-in.
	PointsPresent shared.Points = 10
	// PointsLate - очки за опоздание.
	PointsLate shared.Points = 5
	// PointsAdditional - очки за дополнительную задачу (независимо от статуса).
	PointsAdditional shared.Points = 5
	// PointsNone - ноль очков (Excused, Absent).
	PointsNone shared.Points = 0
)

// PointsFor возвращает очки по правилу начисления: дополнительная задача
// всегда даёт 5, основная запись - по статусу.
func PointsFor(status Status, recordType Type) shared.Points {
	if recordType == TypeAdditional {
		return PointsAdditional
	}
	switch status {
	case StatusPresent:
		return PointsPresent
	case StatusLate:
		return PointsLate
	default:
		return PointsNone
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ATTENDANCE RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record - одна запись посещаемости. Инвариант: не более одной Main-записи
// на (сотрудник, день) и не более одной Additional-записи на (сотрудник,
// день, обязанность). Движок проверяет это до вставки, хранилище - атомарно
// при вставке.
type Record struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// UserID - идентификатор сотрудника.
	UserID string

	// Date - календарный день (YYYY-MM-DD, школьный часовой пояс),
	// без компонента времени.
	Date shared.DateKey

	// Type - вид записи (main или additional).
	Type Type

	// Status - статус дня.
	Status Status

	// CheckInTime - время check-in. null вместе со статусом Excused означает
	// заранее заявленное отсутствие (физического check-in не было).
	CheckInTime *time.Time

	// CheckOutTime - время check-out; null до закрытия дня.
	CheckOutTime *time.Time

	// Location - снимок позиции, по которой принято решение.
	// Нулевая точка для Additional и Excused записей (геозона не проверялась).
	Location geo.Point

	// DistanceMeters - вычисленное расстояние до центра геозоны.
	DistanceMeters float64

	// Points - очки, присвоенные при создании записи.
	Points shared.Points

	// Notes - причина отсутствия либо метка обязанности для Additional.
	Notes string

	// SubstitutionLink - ссылка на задание замещения (для Excused).
	SubstitutionLink string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// IsCheckedOut возвращает true, если день закрыт check-out'ом.
func (r *Record) IsCheckedOut() bool {
	return r.CheckOutTime != nil
}

// EligibleForCheckout проверяет предусловия check-out: запись существует,
// check-in состоялся, check-out ещё не было, статус не терминальный.
func (r *Record) EligibleForCheckout() bool {
	return r != nil &&
		r.CheckInTime != nil &&
		r.CheckOutTime == nil &&
		!r.Status.IsTerminalForDay()
}

// RoleTag возвращает метку обязанности Additional-записи.
func (r *Record) RoleTag() shared.RoleLabel {
	return shared.RoleLabel(r.Notes)
}

// Validate проверяет инварианты записи.
func (r *Record) Validate() error {
	if r.UserID == "" {
		return shared.NewDomainError("attendance", "Validate", shared.ErrEmptyValue, "user ID is required")
	}
	if !r.Date.IsValid() {
		return shared.ErrInvalidRecordDay
	}
	if !r.Type.IsValid() {
		return shared.NewDomainError("attendance", "Validate", shared.ErrInvalidInput, "invalid record type")
	}
	if !r.Status.IsValid() {
		return shared.ErrInvalidStatus
	}
	if !r.Points.IsValid() {
		return shared.NewDomainError("attendance", "Validate", shared.ErrValueOutOfRange, "points cannot be negative")
	}
	return nil
}
