package postgres

import (
	"context"
	"fmt"

	"github.com/geopresensi/attendance-hub/internal/domain/geo"
	"github.com/geopresensi/attendance-hub/internal/domain/school"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOOL CONFIG STORE IMPLEMENTATION
// The config is a single row; the CHECK (id = 1) constraint in the schema
// keeps it that way.
// ══════════════════════════════════════════════════════════════════════════════

// ConfigStore implements school.Store for PostgreSQL.
type ConfigStore struct {
	conn *Connection
}

// NewConfigStore creates a new ConfigStore.
func NewConfigStore(conn *Connection) *ConfigStore {
	return &ConfigStore{conn: conn}
}

// Load returns the active school configuration.
func (s *ConfigStore) Load(ctx context.Context) (*school.Config, error) {
	query := `
		SELECT school_name, school_address, geofence_lat, geofence_lng,
			   radius_meters, start_hour, min_check_out_hour, end_hour,
			   active_days, updated_at
		FROM school_config
		WHERE id = 1
	`

	var (
		cfg      school.Config
		lat, lng float64
		start    int
		minOut   int
		end      int
		days     []int
	)
	err := s.conn.QueryRow(ctx, query).Scan(
		&cfg.SchoolName,
		&cfg.SchoolAddress,
		&lat,
		&lng,
		&cfg.RadiusMeters,
		&start,
		&minOut,
		&end,
		&days,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to load school config: %w", err)
	}

	cfg.GeofenceCenter = geo.Point{Lat: lat, Lng: lng}
	cfg.StartHour = shared.HourOfDay(start)
	cfg.MinCheckOutHour = shared.HourOfDay(minOut)
	cfg.EndHour = shared.HourOfDay(end)
	cfg.ActiveDays = shared.WeekdaySet(days)
	return &cfg, nil
}

// Save replaces the active configuration in a single upsert.
func (s *ConfigStore) Save(ctx context.Context, cfg *school.Config) error {
	query := `
		INSERT INTO school_config (
			id, school_name, school_address, geofence_lat, geofence_lng,
			radius_meters, start_hour, min_check_out_hour, end_hour,
			active_days, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			school_name = EXCLUDED.school_name,
			school_address = EXCLUDED.school_address,
			geofence_lat = EXCLUDED.geofence_lat,
			geofence_lng = EXCLUDED.geofence_lng,
			radius_meters = EXCLUDED.radius_meters,
			start_hour = EXCLUDED.start_hour,
			min_check_out_hour = EXCLUDED.min_check_out_hour,
			end_hour = EXCLUDED.end_hour,
			active_days = EXCLUDED.active_days,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.conn.Exec(ctx, query,
		cfg.SchoolName,
		cfg.SchoolAddress,
		cfg.GeofenceCenter.Lat,
		cfg.GeofenceCenter.Lng,
		cfg.RadiusMeters,
		int(cfg.StartHour),
		int(cfg.MinCheckOutHour),
		int(cfg.EndHour),
		[]int(cfg.ActiveDays),
		cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save school config: %w", err)
	}
	return nil
}

// SeedDefault inserts the first-run configuration if no row exists yet
// and returns whatever configuration is in effect afterwards.
func (s *ConfigStore) SeedDefault(ctx context.Context) (*school.Config, error) {
	cfg := school.Default()
	query := `
		INSERT INTO school_config (
			id, school_name, school_address, geofence_lat, geofence_lng,
			radius_meters, start_hour, min_check_out_hour, end_hour, active_days
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := s.conn.Exec(ctx, query,
		cfg.SchoolName,
		cfg.SchoolAddress,
		cfg.GeofenceCenter.Lat,
		cfg.GeofenceCenter.Lng,
		cfg.RadiusMeters,
		int(cfg.StartHour),
		int(cfg.MinCheckOutHour),
		int(cfg.EndHour),
		[]int(cfg.ActiveDays),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed default config: %w", err)
	}
	return s.Load(ctx)
}
