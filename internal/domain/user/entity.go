// Package user содержит доменную модель сотрудника школы (GeoPresensi).
// Это чистая бизнес-логика - здесь нет внешних зависимостей, кроме bcrypt
// для хеширования пароля.
package user

import (
	"strings"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/shared"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Username представляет уникальный логин сотрудника.
type Username string

// IsValid проверяет корректность логина.
func (u Username) IsValid() bool {
	s := string(u)
	return len(s) >= 3 && len(s) <= 50 && !strings.ContainsAny(s, " \t\n\r")
}

// String возвращает строковое представление логина.
func (u Username) String() string {
	return string(u)
}

// Normalize возвращает логин в нижнем регистре без пробелов по краям.
func (u Username) Normalize() Username {
	return Username(strings.ToLower(strings.TrimSpace(string(u))))
}

// NUPTK представляет национальный номер педагога (опциональный).
type NUPTK string

// IsValid проверяет, что номер пустой либо состоит из 8-20 цифр.
func (n NUPTK) IsValid() bool {
	if n == "" {
		return true
	}
	if len(n) < 8 || len(n) > 20 {
		return false
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role определяет роль пользователя в системе.
type Role string

const (
	// RoleAdmin - администратор: управляет конфигурацией, сотрудниками и отчётами.
	RoleAdmin Role = "admin"
	// RoleStaff - преподаватель/сотрудник: отмечает присутствие и задачи.
	RoleStaff Role = "staff"
)

// IsValid проверяет, что роль корректна.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User - сотрудник школы: личность плюс индивидуальные правила посещаемости.
type User struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Username - логин для входа.
	Username Username

	// FullName - полное имя сотрудника.
	FullName string

	// NUPTK - национальный номер педагога (может быть пустым).
	NUPTK NUPTK

	// PasswordHash - bcrypt-хеш пароля. Пароль в открытом виде не хранится.
	PasswordHash string

	// Role - роль в системе (admin или staff).
	Role Role

	// IsActive - активен ли аккаунт. Деактивация блокирует вход,
	// но не удаляет историю посещаемости.
	IsActive bool

	// Subjects - преподаваемые предметы.
	Subjects []string

	// AdditionalRoles - дополнительные обязанности (например, "Wali Kelas").
	// Каждая даёт право на один бонусный зачёт задачи в день.
	AdditionalRoles []shared.RoleLabel

	// SpecificActiveDays - индивидуальные обязательные дни недели.
	// Непустое множество ЗАМЕНЯЕТ общешкольное расписание, а не дополняет его.
	SpecificActiveDays shared.WeekdaySet

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// Validate проверяет инварианты сущности.
func (u *User) Validate() error {
	if !u.Username.IsValid() {
		return shared.NewDomainError("user", "Validate", shared.ErrInvalidInput, "invalid username")
	}
	if strings.TrimSpace(u.FullName) == "" {
		return shared.NewDomainError("user", "Validate", shared.ErrEmptyValue, "full name is required")
	}
	if !u.Role.IsValid() {
		return shared.ErrInvalidUserRole
	}
	if !u.NUPTK.IsValid() {
		return shared.NewDomainError("user", "Validate", shared.ErrInvalidFormat, "invalid NUPTK")
	}
	if !u.SpecificActiveDays.IsValid() {
		return shared.NewDomainError("user", "Validate", shared.ErrValueOutOfRange, "invalid weekday index in active days")
	}
	return nil
}

// IsAdmin возвращает true для администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff возвращает true для сотрудника-преподавателя.
// Только staff участвует в лидерборде.
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}

// HasDutyRole проверяет, закреплена ли за сотрудником дополнительная обязанность.
func (u *User) HasDutyRole(label shared.RoleLabel) bool {
	for _, r := range u.AdditionalRoles {
		if r == label {
			return true
		}
	}
	return false
}

// WorkingDays возвращает действующее для сотрудника множество обязательных
// дней: индивидуальное, если оно задано, иначе общешкольное.
func (u *User) WorkingDays(schoolDays shared.WeekdaySet) shared.WeekdaySet {
	if !u.SpecificActiveDays.IsEmpty() {
		return u.SpecificActiveDays
	}
	return schoolDays
}

// Deactivate блокирует аккаунт, сохраняя историю.
func (u *User) Deactivate() {
	u.IsActive = false
	u.UpdatedAt = time.Now().UTC()
}

// Reactivate снова активирует аккаунт.
func (u *User) Reactivate() {
	u.IsActive = true
	u.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// PASSWORD
// ══════════════════════════════════════════════════════════════════════════════

// SetPassword хеширует и сохраняет пароль.
func (u *User) SetPassword(plain string) error {
	if len(plain) < 6 {
		return shared.NewDomainError("user", "SetPassword", shared.ErrInvalidInput, "password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return shared.WrapError("user", "SetPassword", shared.ErrInvalidInput, "failed to hash password", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword сверяет пароль с хешем.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}
