package block

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

func scanBlock(row pgx.Row) (*Block, error) {
	var b Block
	var rule *string

	err := row.Scan(
		&b.ID,
		&b.ClinicID,
		&b.ResourceID,
		&b.StartTime,
		&b.EndTime,
		&rule,
		&b.IsActive,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}

	b.RecurrenceRule = rule
	return &b, nil
}

func (r *PgRepository) CandidateBlocks(ctx context.Context, clinicID, resourceID uuid.UUID, from, to time.Time) ([]Block, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, clinic_id, resource_id, start_time, end_time, recurrence_rule, is_active, created_at, updated_at
		FROM blocks
		WHERE clinic_id = $1
		  AND resource_id = $2
		  AND is_active
		  AND (recurrence_rule IS NOT NULL OR (start_time < $4 AND end_time > $3))
	`, clinicID, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBlocks(rows)
}

func (r *PgRepository) ListBlocksForResource(ctx context.Context, clinicID, resourceID uuid.UUID) ([]Block, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, clinic_id, resource_id, start_time, end_time, recurrence_rule, is_active, created_at, updated_at
		FROM blocks
		WHERE clinic_id = $1 AND resource_id = $2
		ORDER BY start_time
	`, clinicID, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBlocks(rows)
}

func (r *PgRepository) CreateBlock(ctx context.Context, b *Block) (*Block, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO blocks (id, clinic_id, resource_id, start_time, end_time, recurrence_rule, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
		RETURNING id, clinic_id, resource_id, start_time, end_time, recurrence_rule, is_active, created_at, updated_at
	`, id, b.ClinicID, b.ResourceID, b.StartTime, b.EndTime, b.RecurrenceRule)

	return scanBlock(row)
}

func (r *PgRepository) DeactivateBlock(ctx context.Context, clinicID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE blocks
		SET is_active = false,
		    updated_at = now()
		WHERE clinic_id = $1 AND id = $2
	`, clinicID, id)
	if err != nil {
		return fmt.Errorf("deactivate block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlockNotFound
	}
	return nil
}

func collectBlocks(rows pgx.Rows) ([]Block, error) {
	var result []Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
