package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATIONS
// Schema versioning with embedded SQL. Uniqueness of attendance is enforced
// by the database, not the application: partial unique indexes guarantee at
// most one Main record per (user, day) and one Additional record per
// (user, day, duty role) even under concurrent check-ins.
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator handles database migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a new migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if needed.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns all applied migration versions.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, isApplied := applied[mig.Version]; isApplied {
			continue
		}
		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			insertQuery := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}
	return nil
}

// Status returns all migrations annotated with their applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Migration, len(m.migrations))
	copy(result, m.migrations)
	for i := range result {
		if appliedAt, ok := applied[result[i].Version]; ok {
			result[i].IsApplied = true
			result[i].AppliedAt = appliedAt
		}
	}
	return result, nil
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_school_config",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_attendance_records",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED SQL
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE users (
	id                   UUID PRIMARY KEY,
	username             TEXT NOT NULL,
	full_name            TEXT NOT NULL,
	nuptk                TEXT NOT NULL DEFAULT '',
	password_hash        TEXT NOT NULL,
	role                 TEXT NOT NULL DEFAULT 'staff',
	is_active            BOOLEAN NOT NULL DEFAULT TRUE,
	subjects             TEXT[] NOT NULL DEFAULT '{}',
	additional_roles     TEXT[] NOT NULL DEFAULT '{}',
	specific_active_days INTEGER[] NOT NULL DEFAULT '{}',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX uq_users_username ON users (LOWER(username));
CREATE INDEX idx_users_role ON users (role) WHERE is_active;
`

const migration001Down = `DROP TABLE IF EXISTS users;`

const migration002Up = `
CREATE TABLE school_config (
	id                 SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	school_name        TEXT NOT NULL,
	school_address     TEXT NOT NULL DEFAULT '',
	geofence_lat       DOUBLE PRECISION NOT NULL,
	geofence_lng       DOUBLE PRECISION NOT NULL,
	radius_meters      INTEGER NOT NULL,
	start_hour         INTEGER NOT NULL,
	min_check_out_hour INTEGER NOT NULL,
	end_hour           INTEGER NOT NULL,
	active_days        INTEGER[] NOT NULL DEFAULT '{1,2,3,4,5}',
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT chk_time_window CHECK (start_hour < min_check_out_hour AND min_check_out_hour < end_hour)
);
`

const migration002Down = `DROP TABLE IF EXISTS school_config;`

const migration003Up = `
CREATE TABLE attendance_records (
	id                UUID PRIMARY KEY,
	user_id           UUID NOT NULL REFERENCES users (id),
	date              DATE NOT NULL,
	type              TEXT NOT NULL CHECK (type IN ('main', 'additional')),
	status            TEXT NOT NULL CHECK (status IN ('present', 'late', 'excused', 'absent')),
	check_in_time     TIMESTAMPTZ,
	check_out_time    TIMESTAMPTZ,
	lat               DOUBLE PRECISION NOT NULL DEFAULT 0,
	lng               DOUBLE PRECISION NOT NULL DEFAULT 0,
	distance_meters   DOUBLE PRECISION NOT NULL DEFAULT 0,
	points            INTEGER NOT NULL DEFAULT 0,
	notes             TEXT NOT NULL DEFAULT '',
	substitution_link TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- One Main record per staff member per day.
CREATE UNIQUE INDEX uq_attendance_main
	ON attendance_records (user_id, date)
	WHERE type = 'main';

-- One Additional record per duty role per day (notes holds the role label).
CREATE UNIQUE INDEX uq_attendance_additional
	ON attendance_records (user_id, date, notes)
	WHERE type = 'additional';

CREATE INDEX idx_attendance_date ON attendance_records (date);
CREATE INDEX idx_attendance_user_date ON attendance_records (user_id, date);
`

const migration003Down = `DROP TABLE IF EXISTS attendance_records;`
