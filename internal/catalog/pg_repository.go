package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

// Helpers

func scanResource(row pgx.Row) (*Resource, error) {
	var r Resource
	var hoursJSON []byte

	err := row.Scan(
		&r.ID,
		&r.ClinicID,
		&r.Name,
		&r.Type,
		&r.MaxConcurrent,
		&hoursJSON,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	if len(hoursJSON) > 0 {
		if err := json.Unmarshal(hoursJSON, &r.WorkingHours); err != nil {
			return nil, fmt.Errorf("decode working hours for resource %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func scanMenu(row pgx.Row) (*Menu, error) {
	var m Menu
	var optionsJSON []byte

	err := row.Scan(
		&m.ID,
		&m.ClinicID,
		&m.Name,
		&m.DurationMinutes,
		&m.Price,
		&optionsJSON,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}

	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &m.Options); err != nil {
			return nil, fmt.Errorf("decode options for menu %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

// Interface methods

func (r *PgRepository) GetResource(ctx context.Context, clinicID, id uuid.UUID) (*Resource, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, clinic_id, name, type, max_concurrent, working_hours, is_active, created_at, updated_at
		FROM resources
		WHERE clinic_id = $1 AND id = $2
	`, clinicID, id)
	return scanResource(row)
}

func (r *PgRepository) ListActiveResources(ctx context.Context, clinicID uuid.UUID, typeFilter *ResourceType) ([]Resource, error) {
	query := `
		SELECT id, clinic_id, name, type, max_concurrent, working_hours, is_active, created_at, updated_at
		FROM resources
		WHERE clinic_id = $1 AND is_active
	`
	args := []any{clinicID}
	if typeFilter != nil {
		query += ` AND type = $2`
		args = append(args, *typeFilter)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetMenu(ctx context.Context, clinicID, id uuid.UUID) (*Menu, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, clinic_id, name, duration_minutes, price, options, is_active, created_at, updated_at
		FROM menus
		WHERE clinic_id = $1 AND id = $2
	`, clinicID, id)
	return scanMenu(row)
}

func (r *PgRepository) ResourceSupportsMenu(ctx context.Context, clinicID, resourceID, menuID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM resource_menus rm
			JOIN resources r ON r.id = rm.resource_id
			WHERE r.clinic_id = $1 AND rm.resource_id = $2 AND rm.menu_id = $3
		)
	`, clinicID, resourceID, menuID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) CreateResource(ctx context.Context, res *Resource) (*Resource, error) {
	id := uuid.New()

	hoursJSON, err := json.Marshal(res.WorkingHours)
	if err != nil {
		return nil, fmt.Errorf("encode working hours: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO resources (id, clinic_id, name, type, max_concurrent, working_hours, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
		RETURNING id, clinic_id, name, type, max_concurrent, working_hours, is_active, created_at, updated_at
	`, id, res.ClinicID, res.Name, res.Type, res.MaxConcurrent, hoursJSON)

	return scanResource(row)
}

func (r *PgRepository) CreateMenu(ctx context.Context, menu *Menu) (*Menu, error) {
	id := uuid.New()

	options := menu.Options
	if options == nil {
		options = []Option{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO menus (id, clinic_id, name, duration_minutes, price, options, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
		RETURNING id, clinic_id, name, duration_minutes, price, options, is_active, created_at, updated_at
	`, id, menu.ClinicID, menu.Name, menu.DurationMinutes, menu.Price, optionsJSON)

	return scanMenu(row)
}

func (r *PgRepository) AssignMenuToResource(ctx context.Context, clinicID, resourceID, menuID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO resource_menus (resource_id, menu_id)
		SELECT r.id, m.id
		FROM resources r, menus m
		WHERE r.clinic_id = $1 AND r.id = $2 AND m.clinic_id = $1 AND m.id = $3
		ON CONFLICT DO NOTHING
	`, clinicID, resourceID, menuID)
	if err != nil {
		return fmt.Errorf("assign menu to resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either id is missing in this tenant, or the pair already exists.
		// Distinguish by probing the resource.
		if _, err := r.GetResource(ctx, clinicID, resourceID); err != nil {
			return err
		}
	}
	return nil
}
