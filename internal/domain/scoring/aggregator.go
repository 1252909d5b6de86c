// Package scoring сводит записи посещаемости в баллы, рейтинги и
// показатели дисциплины. Агрегатор только читает записи и никогда
// их не изменяет.
package scoring

import (
	"math"
	"sort"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"
)

// ═════════════════════════════════════════════════════════════════════════════
// КАТЕГОРИИ РЕЙТИНГА
// ═════════════════════════════════════════════════════════════════════════════

// CategoryAllStaff — общая категория рейтинга: весь персонал без
// фильтра по дополнительной обязанности.
const CategoryAllStaff shared.RoleLabel = "Guru"

// ═════════════════════════════════════════════════════════════════════════════
// ЗАПИСЬ РЕЙТИНГА
// ═════════════════════════════════════════════════════════════════════════════

// Entry — одна строка рейтинга.
type Entry struct {
	Rank     int           `json:"rank"`
	UserID   string        `json:"user_id"`
	FullName string        `json:"full_name"`
	Points   shared.Points `json:"points"`
}

// ═════════════════════════════════════════════════════════════════════════════
// АГРЕГАТОР
// ═════════════════════════════════════════════════════════════════════════════

// Aggregator — чистые свёртки над записями посещаемости.
type Aggregator struct{}

// NewAggregator создаёт агрегатор.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// TotalPoints возвращает сумму баллов пользователя по всем записям,
// включая Main и Additional. Используется личным кабинетом.
func (a *Aggregator) TotalPoints(userID string, records []*attendance.Record) shared.Points {
	var total shared.Points
	for _, rec := range records {
		if rec.UserID == userID {
			total += rec.Points
		}
	}
	return total
}

// Leaderboard строит рейтинг персонала по баллам Main-записей.
//
// Правила:
//   - учитываются только записи типа Main;
//   - участвуют только пользователи с ролью staff;
//   - roleFilter CategoryAllStaff (или пустой) включает весь персонал,
//     иначе остаются только пользователи с этой дополнительной
//     обязанностью;
//   - сортировка по убыванию баллов, при равенстве сохраняется
//     исходный порядок пользователей;
//   - результат обрезается до limit (limit <= 0 — без ограничения).
func (a *Aggregator) Leaderboard(records []*attendance.Record, users []*user.User, roleFilter shared.RoleLabel, limit int) []Entry {
	pointsByUser := make(map[string]shared.Points, len(users))
	for _, rec := range records {
		if rec.Type != attendance.TypeMain {
			continue
		}
		pointsByUser[rec.UserID] += rec.Points
	}

	entries := make([]Entry, 0, len(users))
	for _, u := range users {
		if !u.IsStaff() {
			continue
		}
		if roleFilter != "" && roleFilter != CategoryAllStaff && !u.HasDutyRole(roleFilter) {
			continue
		}
		entries = append(entries, Entry{
			UserID:   u.ID,
			FullName: u.FullName,
			Points:   pointsByUser[u.ID],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// AttendanceRate возвращает долю посещённых дней в процентах по
// Main-истории пользователя: (Present + Late) / все записи, округление
// до ближайшего целого. Пустая история даёт 100 — новые сотрудники
// не штрафуются.
func (a *Aggregator) AttendanceRate(records []*attendance.Record) int {
	var total, attended int
	for _, rec := range records {
		if rec.Type != attendance.TypeMain {
			continue
		}
		total++
		if rec.Status.CountsAsAttended() {
			attended++
		}
	}
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(attended) / float64(total) * 100))
}
