package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resourceColumns = "id, clinic_id, name, type, max_concurrent, working_hours, is_active, created_at, updated_at"

func resourceRow(res *Resource) *pgxmock.Rows {
	hours, _ := json.Marshal(res.WorkingHours)
	return pgxmock.NewRows([]string{
		"id", "clinic_id", "name", "type", "max_concurrent", "working_hours", "is_active", "created_at", "updated_at",
	}).AddRow(res.ID, res.ClinicID, res.Name, string(res.Type), res.MaxConcurrent, hours, res.IsActive, res.CreatedAt, res.UpdatedAt)
}

func sampleResource(clinicID uuid.UUID) *Resource {
	now := time.Now().Truncate(time.Second)
	return &Resource{
		ID:            uuid.New(),
		ClinicID:      clinicID,
		Name:          "Treatment Room 1",
		Type:          ResourceRoom,
		MaxConcurrent: 2,
		WorkingHours: WorkingHours{
			time.Monday: {StartMinute: 540, EndMinute: 1080},
			time.Friday: {StartMinute: 540, EndMinute: 900},
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestGetResourceScansWorkingHours(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	want := sampleResource(clinicID)

	mock.ExpectQuery("SELECT "+resourceColumns).
		WithArgs(clinicID, want.ID).
		WillReturnRows(resourceRow(want))

	repo := NewPgRepository(mock)
	got, err := repo.GetResource(context.Background(), clinicID, want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.MaxConcurrent, got.MaxConcurrent)
	assert.Equal(t, want.WorkingHours, got.WorkingHours)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetResourceNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	id := uuid.New()

	mock.ExpectQuery("SELECT " + resourceColumns).
		WithArgs(clinicID, id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "clinic_id", "name", "type", "max_concurrent", "working_hours", "is_active", "created_at", "updated_at",
		}))

	repo := NewPgRepository(mock)
	_, err = repo.GetResource(context.Background(), clinicID, id)
	require.ErrorIs(t, err, ErrResourceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveResourcesAppliesTypeFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	staff := sampleResource(clinicID)
	staff.Type = ResourceStaff

	staffType := ResourceStaff
	mock.ExpectQuery("SELECT "+resourceColumns).
		WithArgs(clinicID, staffType).
		WillReturnRows(resourceRow(staff))

	repo := NewPgRepository(mock)
	got, err := repo.ListActiveResources(context.Background(), clinicID, &staffType)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, ResourceStaff, got[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceSupportsMenu(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	resourceID := uuid.New()
	menuID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(clinicID, resourceID, menuID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewPgRepository(mock)
	ok, err := repo.ResourceSupportsMenu(context.Background(), clinicID, resourceID, menuID)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignMenuToResourceProbesOnZeroRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	resourceID := uuid.New()
	menuID := uuid.New()

	mock.ExpectExec("INSERT INTO resource_menus").
		WithArgs(clinicID, resourceID, menuID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	// Zero rows triggers the probe; an absent resource surfaces as not found.
	mock.ExpectQuery("SELECT " + resourceColumns).
		WithArgs(clinicID, resourceID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "clinic_id", "name", "type", "max_concurrent", "working_hours", "is_active", "created_at", "updated_at",
		}))

	repo := NewPgRepository(mock)
	err = repo.AssignMenuToResource(context.Background(), clinicID, resourceID, menuID)
	require.ErrorIs(t, err, ErrResourceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
