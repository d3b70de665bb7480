package shift

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicops/resource-scheduler/internal/interval"
)

type PgRepository struct {
	db DB
}

// DB is the subset of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanShift(row pgx.Row) (*StaffShift, error) {
	var s StaffShift

	err := row.Scan(
		&s.ID,
		&s.ClinicID,
		&s.StaffResourceID,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanPreference(row pgx.Row) (*StaffPreference, error) {
	var p StaffPreference
	var weekday *int

	err := row.Scan(
		&p.ID,
		&p.ClinicID,
		&p.StaffResourceID,
		&p.Type,
		&p.Priority,
		&weekday,
		&p.StartHour,
		&p.EndHour,
		&p.ValidFrom,
		&p.ValidUntil,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if weekday != nil {
		wd := time.Weekday(*weekday)
		p.Weekday = &wd
	}
	return &p, nil
}

const shiftColumns = `id, clinic_id, staff_resource_id, start_time, end_time, status, notes, created_at, updated_at`

// Interface methods

func (r *PgRepository) ListShifts(ctx context.Context, clinicID uuid.UUID, window interval.Interval, status *ShiftStatus) ([]StaffShift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM staff_shifts
		WHERE clinic_id = $1
		  AND start_time < $3
		  AND end_time > $2
	`
	args := []any{clinicID, window.Start, window.End}
	if status != nil {
		query += ` AND status = $4`
		args = append(args, *status)
	}
	query += ` ORDER BY start_time`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectShifts(rows)
}

func (r *PgRepository) OverlappingShifts(ctx context.Context, clinicID, staffResourceID uuid.UUID, window interval.Interval) ([]StaffShift, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM staff_shifts
		WHERE clinic_id = $1
		  AND staff_resource_id = $2
		  AND status <> 'cancelled'
		  AND start_time < $4
		  AND end_time > $3
	`, clinicID, staffResourceID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectShifts(rows)
}

func (r *PgRepository) CreateShift(ctx context.Context, s *StaffShift) (*StaffShift, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO staff_shifts (id, clinic_id, staff_resource_id, start_time, end_time, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+shiftColumns+`
	`, id, s.ClinicID, s.StaffResourceID, s.StartTime, s.EndTime, s.Status, s.Notes)

	return scanShift(row)
}

func (r *PgRepository) ListPreferences(ctx context.Context, clinicID uuid.UUID, staffResourceID *uuid.UUID, activeOnly bool) ([]StaffPreference, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, clinic_id, staff_resource_id, preference_type, priority, weekday, start_hour, end_hour, valid_from, valid_until, is_active, created_at, updated_at
		FROM staff_preferences
		WHERE clinic_id = $1
		  AND ($2::uuid IS NULL OR staff_resource_id = $2)
		  AND (NOT $3 OR is_active)
		ORDER BY priority DESC, created_at
	`, clinicID, staffResourceID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StaffPreference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func collectShifts(rows pgx.Rows) ([]StaffShift, error) {
	var result []StaffShift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
