package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/domain/user"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const userColumns = `id, username, full_name, nuptk, password_hash, role, is_active,
	   subjects, additional_roles, specific_active_days, created_at, updated_at`

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create creates a new staff account.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, username, full_name, nuptk, password_hash, role, is_active,
			subjects, additional_roles, specific_active_days, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.conn.Exec(ctx, query,
		u.ID,
		string(u.Username),
		u.FullName,
		string(u.NUPTK),
		u.PasswordHash,
		string(u.Role),
		u.IsActive,
		u.Subjects,
		roleLabelsToStrings(u.AdditionalRoles),
		[]int(u.SpecificActiveDays),
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID returns a staff account by internal ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUser(r.conn.QueryRow(ctx, query, id))
}

// GetByUsername returns a staff account by login.
func (r *UserRepository) GetByUsername(ctx context.Context, username user.Username) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(username) = LOWER($1)`, userColumns)
	return r.scanUser(r.conn.QueryRow(ctx, query, string(username)))
}

// Update updates a staff account.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			username = $1,
			full_name = $2,
			nuptk = $3,
			password_hash = $4,
			role = $5,
			is_active = $6,
			subjects = $7,
			additional_roles = $8,
			specific_active_days = $9,
			updated_at = $10
		WHERE id = $11
	`

	result, err := r.conn.Exec(ctx, query,
		string(u.Username),
		u.FullName,
		string(u.NUPTK),
		u.PasswordHash,
		string(u.Role),
		u.IsActive,
		u.Subjects,
		roleLabelsToStrings(u.AdditionalRoles),
		[]int(u.SpecificActiveDays),
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUsernameTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// List returns staff accounts ordered by full name.
func (r *UserRepository) List(ctx context.Context, opts user.ListOptions) ([]*user.User, error) {
	query, args := buildUserListQuery(fmt.Sprintf("SELECT %s FROM users", userColumns), opts, true)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := r.scanUserFromRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns the number of staff accounts matching the options.
func (r *UserRepository) Count(ctx context.Context, opts user.ListOptions) (int, error) {
	query, args := buildUserListQuery("SELECT COUNT(*) FROM users", opts, false)

	var count int
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// buildUserListQuery appends WHERE/ORDER/LIMIT clauses for ListOptions.
func buildUserListQuery(base string, opts user.ListOptions, ordered bool) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if opts.OnlyActive {
		clauses = append(clauses, "is_active")
	}
	if opts.Role != "" {
		args = append(args, string(opts.Role))
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	if ordered {
		query += " ORDER BY full_name"
		if opts.Limit > 0 {
			args = append(args, opts.Limit)
			query += fmt.Sprintf(" LIMIT $%d", len(args))
		}
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}
	return query, args
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	return scanUserRow(row)
}

func (r *UserRepository) scanUserFromRows(rows pgx.Rows) (*user.User, error) {
	return scanUserRow(rows)
}

func scanUserRow(row pgx.Row) (*user.User, error) {
	var (
		u        user.User
		username string
		nuptk    string
		role     string
		duties   []string
		days     []int
	)

	err := row.Scan(
		&u.ID,
		&username,
		&u.FullName,
		&nuptk,
		&u.PasswordHash,
		&role,
		&u.IsActive,
		&u.Subjects,
		&duties,
		&days,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Username = user.Username(username)
	u.NUPTK = user.NUPTK(nuptk)
	u.Role = user.Role(role)
	u.AdditionalRoles = stringsToRoleLabels(duties)
	u.SpecificActiveDays = shared.WeekdaySet(days)
	return &u, nil
}

func roleLabelsToStrings(labels []shared.RoleLabel) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, string(l))
	}
	return out
}

func stringsToRoleLabels(values []string) []shared.RoleLabel {
	out := make([]shared.RoleLabel, 0, len(values))
	for _, v := range values {
		out = append(out, shared.RoleLabel(v))
	}
	return out
}
