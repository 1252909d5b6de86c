package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/geo"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE STORE IMPLEMENTATION
// CreateIfAbsent relies on the partial unique indexes from the schema: the
// insert either lands or violates exactly one of them, which maps back to
// the domain conflict errors. No advisory locks, no read-modify-write.
// ══════════════════════════════════════════════════════════════════════════════

const recordColumns = `id, user_id, date, type, status, check_in_time, check_out_time,
	   lat, lng, distance_meters, points, notes, substitution_link, created_at, updated_at`

// AttendanceStore implements attendance.Store for PostgreSQL.
type AttendanceStore struct {
	conn *Connection
}

// NewAttendanceStore creates a new AttendanceStore.
func NewAttendanceStore(conn *Connection) *AttendanceStore {
	return &AttendanceStore{conn: conn}
}

// CreateIfAbsent atomically inserts a record if its day key is free.
func (s *AttendanceStore) CreateIfAbsent(ctx context.Context, rec *attendance.Record) error {
	query := `
		INSERT INTO attendance_records (
			id, user_id, date, type, status, check_in_time, check_out_time,
			lat, lng, distance_meters, points, notes, substitution_link,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.conn.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		string(rec.Date),
		string(rec.Type),
		string(rec.Status),
		rec.CheckInTime,
		rec.CheckOutTime,
		rec.Location.Lat,
		rec.Location.Lng,
		rec.DistanceMeters,
		int(rec.Points),
		rec.Notes,
		rec.SubstitutionLink,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		switch UniqueConstraintName(err) {
		case "uq_attendance_main":
			return shared.ErrRecordExists
		case "uq_attendance_additional":
			return shared.ErrDuplicateTask
		}
		if IsUniqueViolation(err) {
			return shared.ErrRecordExists
		}
		return fmt.Errorf("failed to create attendance record: %w", err)
	}
	return nil
}

// Update updates an existing record (check-out, override, recompute).
func (s *AttendanceStore) Update(ctx context.Context, rec *attendance.Record) error {
	query := `
		UPDATE attendance_records SET
			status = $1,
			check_in_time = $2,
			check_out_time = $3,
			points = $4,
			notes = $5,
			substitution_link = $6,
			updated_at = $7
		WHERE id = $8
	`

	result, err := s.conn.Exec(ctx, query,
		string(rec.Status),
		rec.CheckInTime,
		rec.CheckOutTime,
		int(rec.Points),
		rec.Notes,
		rec.SubstitutionLink,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrRecordNotFound
	}
	return nil
}

// GetByID returns a record by identifier.
func (s *AttendanceStore) GetByID(ctx context.Context, id string) (*attendance.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE id = $1`, recordColumns)

	rec, err := scanRecordRow(s.conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindMain returns the Main record for (user, day), or nil when absent.
func (s *AttendanceStore) FindMain(ctx context.Context, userID string, date shared.DateKey) (*attendance.Record, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM attendance_records WHERE user_id = $1 AND date = $2 AND type = 'main'`,
		recordColumns,
	)

	rec, err := scanRecordRow(s.conn.QueryRow(ctx, query, userID, string(date)))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// FindAdditional returns the Additional records for (user, day).
func (s *AttendanceStore) FindAdditional(ctx context.Context, userID string, date shared.DateKey) ([]*attendance.Record, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM attendance_records WHERE user_id = $1 AND date = $2 AND type = 'additional' ORDER BY created_at`,
		recordColumns,
	)

	rows, err := s.conn.Query(ctx, query, userID, string(date))
	if err != nil {
		return nil, fmt.Errorf("failed to find additional records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// List returns records matching the filter, newest day first.
func (s *AttendanceStore) List(ctx context.Context, f attendance.Filter) ([]*attendance.Record, error) {
	var (
		clauses []string
		args    []interface{}
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Month != "" {
		args = append(args, f.Month)
		clauses = append(clauses, fmt.Sprintf("to_char(date, 'YYYY-MM') = $%d", len(args)))
	}
	if f.DateFrom != "" {
		args = append(args, string(f.DateFrom))
		clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)))
	}
	if f.DateTo != "" {
		args = append(args, string(f.DateTo))
		clauses = append(clauses, fmt.Sprintf("date <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM attendance_records`, recordColumns)
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func collectRecords(rows pgx.Rows) ([]*attendance.Record, error) {
	var records []*attendance.Record
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecordRow(row pgx.Row) (*attendance.Record, error) {
	var (
		rec      attendance.Record
		date     time.Time
		recType  string
		status   string
		lat, lng float64
		points   int
	)

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&date,
		&recType,
		&status,
		&rec.CheckInTime,
		&rec.CheckOutTime,
		&lat,
		&lng,
		&rec.DistanceMeters,
		&points,
		&rec.Notes,
		&rec.SubstitutionLink,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to scan attendance record: %w", err)
	}

	rec.Date = shared.DateKey(date.Format("2006-01-02"))
	rec.Type = attendance.Type(recType)
	rec.Status = attendance.Status(status)
	rec.Location = geo.Point{Lat: lat, Lng: lng}
	rec.Points = shared.Points(points)
	return &rec, nil
}
