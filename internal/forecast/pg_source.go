package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicops/resource-scheduler/internal/interval"
)

// PgSource reads demand data straight off the appointment table, read-only.
type PgSource struct {
	db DB
}

type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewPgSource(db DB) *PgSource {
	return &PgSource{db: db}
}

func (s *PgSource) DemandStartTimes(ctx context.Context, clinicID uuid.UUID, resourceID *uuid.UUID, window interval.Interval) ([]time.Time, error) {
	rows, err := s.db.Query(ctx, `
		SELECT start_time
		FROM appointments
		WHERE clinic_id = $1
		  AND ($2::uuid IS NULL OR resource_id = $2)
		  AND status IN ('confirmed', 'completed')
		  AND start_time >= $3
		  AND start_time < $4
	`, clinicID, resourceID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var starts []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		starts = append(starts, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return starts, nil
}
