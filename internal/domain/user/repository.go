package user

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для работы с хранилищем сотрудников.
// Реализация находится в infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// ListOptions задаёт параметры выборки списка.
type ListOptions struct {
	// OnlyActive - возвращать только активные аккаунты.
	OnlyActive bool

	// Role - фильтр по роли (пустая строка = все роли).
	Role Role

	// Limit и Offset - пагинация (0 = без ограничения).
	Limit  int
	Offset int
}

// Repository определяет операции CRUD для сотрудников.
type Repository interface {
	// Create создаёт нового сотрудника.
	// Возвращает shared.ErrUsernameTaken, если логин занят.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает сотрудника по внутреннему ID.
	// Возвращает shared.ErrUserNotFound, если сотрудник не найден.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByUsername возвращает сотрудника по логину.
	// Возвращает shared.ErrUserNotFound, если сотрудник не найден.
	GetByUsername(ctx context.Context, username Username) (*User, error)

	// Update обновляет данные сотрудника.
	// Возвращает shared.ErrUserNotFound, если сотрудник не найден.
	Update(ctx context.Context, u *User) error

	// List возвращает сотрудников согласно параметрам выборки,
	// упорядоченных по полному имени.
	List(ctx context.Context, opts ListOptions) ([]*User, error)

	// Count возвращает количество сотрудников согласно параметрам выборки.
	Count(ctx context.Context, opts ListOptions) (int, error)
}
