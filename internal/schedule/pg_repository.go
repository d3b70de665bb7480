package schedule

import (
	"context"
	"errors"
	"fmt"
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
	Begin(ctx context.Context) (pgx.Tx, error)
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var menuID *uuid.UUID
	var expiresAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.ClinicID,
		&a.ResourceID,
		&menuID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.CustomerRef,
		&expiresAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.MenuID = menuID
	a.ExpiresAt = expiresAt
	return &a, nil
}

const appointmentColumns = `id, clinic_id, resource_id, menu_id, start_time, end_time, status, customer_ref, expires_at, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetAppointment(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1 AND id = $2
	`, clinicID, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, clinicID uuid.UUID, window interval.Interval) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`, clinicID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) OverlappingIntervals(ctx context.Context, clinicID, resourceID uuid.UUID, window interval.Interval, excludeID *uuid.UUID) ([]interval.Interval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE clinic_id = $1
		  AND resource_id = $2
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $4
		  AND end_time > $3
		  AND ($5::uuid IS NULL OR id <> $5)
	`, clinicID, resourceID, window.Start, window.End, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectIntervals(rows)
}

// CreateAppointment inserts inside a transaction that locks the resource row
// and re-counts overlaps, so concurrent writers cannot breach the capacity
// invariant even when the Redis lock is unavailable.
func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment, guard Placement) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create appointment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := recheckCapacity(ctx, tx, appt.ClinicID, guard, nil); err != nil {
		return nil, err
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, clinic_id, resource_id, menu_id, start_time, end_time, status, customer_ref, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, appt.ClinicID, appt.ResourceID, appt.MenuID, appt.StartTime, appt.EndTime, appt.Status, appt.CustomerRef, appt.ExpiresAt)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create appointment: %w", err)
	}
	return created, nil
}

// MoveAppointment updates placement under the same transactional guard as
// CreateAppointment; on any failure the stored row is untouched.
func (r *PgRepository) MoveAppointment(ctx context.Context, clinicID, id uuid.UUID, guard Placement) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin move appointment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := recheckCapacity(ctx, tx, clinicID, guard, &id); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET resource_id = $3,
		    start_time = $4,
		    end_time = $5,
		    updated_at = now()
		WHERE clinic_id = $1
		  AND id = $2
		  AND status IN ('pending', 'confirmed')
		RETURNING `+appointmentColumns+`
	`, clinicID, id, guard.ResourceID, guard.Interval.Start, guard.Interval.End)

	moved, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit move appointment: %w", err)
	}
	return moved, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, from []Status, to Status) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3,
		    updated_at = now()
		WHERE clinic_id = $1
		  AND id = $2
		  AND status = ANY($4)
		RETURNING `+appointmentColumns+`
	`, clinicID, id, to, statusStrings(from))

	return scanAppointment(row)
}

func (r *PgRepository) FindExpiredHolds(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND expires_at IS NOT NULL
		  AND expires_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (clinic_id, event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.ClinicID, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

// recheckCapacity takes the resource row lock and re-runs the overlap sweep
// with fresh data. Returns ErrCapacityGuard if the placement no longer fits.
func recheckCapacity(ctx context.Context, tx pgx.Tx, clinicID uuid.UUID, guard Placement, excludeID *uuid.UUID) error {
	var maxConcurrent int
	err := tx.QueryRow(ctx, `
		SELECT max_concurrent
		FROM resources
		WHERE clinic_id = $1 AND id = $2
		FOR UPDATE
	`, clinicID, guard.ResourceID).Scan(&maxConcurrent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lock resource %s: not found", guard.ResourceID)
		}
		return fmt.Errorf("lock resource %s: %w", guard.ResourceID, err)
	}

	rows, err := tx.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE clinic_id = $1
		  AND resource_id = $2
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $4
		  AND end_time > $3
		  AND ($5::uuid IS NULL OR id <> $5)
	`, clinicID, guard.ResourceID, guard.Interval.Start, guard.Interval.End, excludeID)
	if err != nil {
		return fmt.Errorf("re-count overlaps: %w", err)
	}
	defer rows.Close()

	existing, err := collectIntervals(rows)
	if err != nil {
		return fmt.Errorf("re-count overlaps: %w", err)
	}

	if interval.MaxConcurrent(existing) >= maxConcurrent {
		return ErrCapacityGuard
	}
	return nil
}

func collectIntervals(rows pgx.Rows) ([]interval.Interval, error) {
	var result []interval.Interval
	for rows.Next() {
		var iv interval.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		result = append(result, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
