package attendance

import (
	"fmt"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/geo"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
	"github.com/geopresensi/attendance-hub/pkg/timeutil"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPED RULE ERRORS
// Ошибки правил, несущие данные для отображения пользователю.
// ══════════════════════════════════════════════════════════════════════════════

// OutOfRangeError - позиция вне геозоны. Несёт вычисленное расстояние,
// чтобы вызывающая сторона могла показать "как далеко" даже при отказе.
type OutOfRangeError struct {
	DistanceMeters float64
	RadiusMeters   int
}

// Error реализует интерфейс error.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("attendance.CheckIn: %.0fm from school, allowed radius %dm", e.DistanceMeters, e.RadiusMeters)
}

// Is сопоставляет ошибку с базовой shared.ErrOutOfRange.
func (e *OutOfRangeError) Is(target error) bool {
	return target == shared.ErrOutOfRange
}

// TooEarlyError - действие раньше разрешённого часа. Несёт порог,
// который не был достигнут.
type TooEarlyError struct {
	Op            string // "CheckIn" или "CheckOut"
	ThresholdHour shared.HourOfDay
}

// Error реализует интерфейс error.
func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("attendance.%s: not allowed before %s", e.Op, e.ThresholdHour)
}

// Is сопоставляет ошибку с базовой shared.ErrTooEarly.
func (e *TooEarlyError) Is(target error) bool {
	return target == shared.ErrTooEarly
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine решает исход одного действия посещаемости для одного сотрудника
// в один момент времени. Движок чистый: состояние на входе, решение плюс
// новая/обновлённая запись на выходе. Сохранение - забота вызывающей стороны,
// атомарность вставки - забота хранилища.
type Engine struct{}

// NewEngine создаёт движок посещаемости.
func NewEngine() *Engine {
	return &Engine{}
}

// EvaluateCheckIn решает судьбу check-in.
//
// Порядок проверок фиксирован: дубликат, геозона, час. Граница геозоны
// включительна (distance == radius ещё проходит). Ровно в стартовый час -
// Present (10 очков), позже - Late (5 очков), раньше - TooEarly.
// EndHour check-in не ограничивает: правило поздней отсечки в исходной
// системе отсутствует.
func (e *Engine) EvaluateCheckIn(u *user.User, now time.Time, position geo.Point, cfg *school.Config, existing *Record) (*Record, error) {
	if existing != nil {
		return nil, shared.ErrAlreadyCheckedIn
	}

	distance := geo.Distance(position, cfg.GeofenceCenter)
	if distance > float64(cfg.RadiusMeters) {
		return nil, &OutOfRangeError{DistanceMeters: distance, RadiusMeters: cfg.RadiusMeters}
	}

	hour := shared.HourOfDay(timeutil.HourOf(now))
	if hour < cfg.StartHour {
		return nil, &TooEarlyError{Op: "CheckIn", ThresholdHour: cfg.StartHour}
	}

	status := StatusPresent
	if hour > cfg.StartHour {
		status = StatusLate
	}

	checkIn := now
	rec := &Record{
		ID:             uuid.NewString(),
		UserID:         u.ID,
		Date:           shared.DateKey(timeutil.DateKey(now)),
		Type:           TypeMain,
		Status:         status,
		CheckInTime:    &checkIn,
		CheckOutTime:   nil,
		Location:       position,
		DistanceMeters: distance,
		Points:         PointsFor(status, TypeMain),
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
	return rec, nil
}

// EvaluateCheckOut решает судьбу check-out для существующей Main-записи.
//
// Предусловия: запись есть, check-in состоялся, check-out ещё не было,
// статус не терминальный (Excused и Absent закрывают день навсегда).
// Статус и очки при check-out НЕ пересчитываются.
func (e *Engine) EvaluateCheckOut(existing *Record, now time.Time, cfg *school.Config) (*Record, error) {
	if !existing.EligibleForCheckout() {
		return nil, shared.ErrNotEligibleForCheckout
	}

	hour := shared.HourOfDay(timeutil.HourOf(now))
	if hour < cfg.MinCheckOutHour {
		return nil, &TooEarlyError{Op: "CheckOut", ThresholdHour: cfg.MinCheckOutHour}
	}

	updated := *existing
	checkOut := now
	updated.CheckOutTime = &checkOut
	updated.UpdatedAt = now.UTC()
	return &updated, nil
}

// FileExcuse оформляет заранее заявленное отсутствие по уважительной причине.
//
// Ни геозона, ни час не проверяются; единственное условие - Main-запись
// на сегодня ещё не существует. Очков ноль, check-in/check-out отсутствуют.
func (e *Engine) FileExcuse(u *user.User, now time.Time, reason, substitutionLink string, existing *Record) (*Record, error) {
	if existing != nil {
		return nil, shared.ErrAlreadyCheckedIn
	}

	rec := &Record{
		ID:               uuid.NewString(),
		UserID:           u.ID,
		Date:             shared.DateKey(timeutil.DateKey(now)),
		Type:             TypeMain,
		Status:           StatusExcused,
		Points:           PointsNone,
		Notes:            reason,
		SubstitutionLink: substitutionLink,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
	return rec, nil
}

// ReportAdditionalTask отмечает выполнение дополнительной обязанности.
//
// Одна обязанность - один зачёт в день: повтор метки в doneToday даёт
// DuplicateTask. Геозона не проверяется, позиция не сохраняется.
func (e *Engine) ReportAdditionalTask(u *user.User, now time.Time, roleLabel shared.RoleLabel, doneToday []shared.RoleLabel) (*Record, error) {
	for _, done := range doneToday {
		if done == roleLabel {
			return nil, shared.ErrDuplicateTask
		}
	}

	moment := now
	rec := &Record{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		Date:         shared.DateKey(timeutil.DateKey(now)),
		Type:         TypeAdditional,
		Status:       StatusPresent,
		CheckInTime:  &moment,
		CheckOutTime: &moment,
		Points:       PointsFor(StatusPresent, TypeAdditional),
		Notes:        roleLabel.String(),
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	return rec, nil
}

// DetermineWorkingDay - чистый предикат: обязан ли сотрудник присутствовать
// в данный день недели. Индивидуальное расписание, если оно задано, ЗАМЕНЯЕТ
// общешкольное. Предикат информационный: check-in возможен и в свободный день.
func (e *Engine) DetermineWorkingDay(u *user.User, cfg *school.Config, weekday int) bool {
	return u.WorkingDays(cfg.ActiveDays).Contains(weekday)
}

// OverrideStatus - безусловная замена статуса администратором.
//
// Очки НЕ пересчитываются (осознанный разрыв исходной системы: статус и
// очки расходятся, пока администратор явно не вызовет RecomputePoints).
// Геозона и время повторно не проверяются.
func (e *Engine) OverrideStatus(rec *Record, newStatus Status) (*Record, error) {
	if !newStatus.IsValid() {
		return nil, shared.ErrInvalidStatus
	}

	updated := *rec
	updated.Status = newStatus
	updated.UpdatedAt = time.Now().UTC()
	return &updated, nil
}

// RecomputePoints - явная операция пересчёта очков по действующему правилу
// начисления. Никогда не вызывается неявно: только отдельным решением
// администратора после override.
func (e *Engine) RecomputePoints(rec *Record) *Record {
	updated := *rec
	updated.Points = PointsFor(rec.Status, rec.Type)
	updated.UpdatedAt = time.Now().UTC()
	return &updated
}
