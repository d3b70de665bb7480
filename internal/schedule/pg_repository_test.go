package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/resource-scheduler/internal/interval"
)

func apptRowColumns() []string {
	return []string{
		"id", "clinic_id", "resource_id", "menu_id", "start_time", "end_time",
		"status", "customer_ref", "expires_at", "created_at", "updated_at",
	}
}

func apptRow(a *Appointment) *pgxmock.Rows {
	return pgxmock.NewRows(apptRowColumns()).AddRow(
		a.ID, a.ClinicID, a.ResourceID, a.MenuID, a.StartTime, a.EndTime,
		string(a.Status), a.CustomerRef, a.ExpiresAt, a.CreatedAt, a.UpdatedAt,
	)
}

func sampleAppointment(clinicID, resourceID uuid.UUID, status Status) *Appointment {
	now := time.Now().Truncate(time.Second)
	return &Appointment{
		ID:          uuid.New(),
		ClinicID:    clinicID,
		ResourceID:  resourceID,
		StartTime:   now.Add(24 * time.Hour),
		EndTime:     now.Add(25 * time.Hour),
		Status:      status,
		CustomerRef: "cust-42",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func expectRecheck(mock pgxmock.PgxPoolIface, clinicID uuid.UUID, guard Placement, excludeID *uuid.UUID, existing []interval.Interval) {
	mock.ExpectQuery("SELECT max_concurrent").
		WithArgs(clinicID, guard.ResourceID).
		WillReturnRows(pgxmock.NewRows([]string{"max_concurrent"}).AddRow(guard.MaxConcurrent))

	rows := pgxmock.NewRows([]string{"start_time", "end_time"})
	for _, iv := range existing {
		rows.AddRow(iv.Start, iv.End)
	}
	mock.ExpectQuery("SELECT start_time, end_time").
		WithArgs(clinicID, guard.ResourceID, guard.Interval.Start, guard.Interval.End, excludeID).
		WillReturnRows(rows)
}

func TestCreateAppointmentCommitsWhenGuardPasses(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	resourceID := uuid.New()
	appt := sampleAppointment(clinicID, resourceID, StatusConfirmed)
	guard := Placement{ResourceID: resourceID, MaxConcurrent: 1, Interval: appt.Interval()}

	mock.ExpectBegin()
	expectRecheck(mock, clinicID, guard, nil, nil)
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), clinicID, resourceID, appt.MenuID, appt.StartTime, appt.EndTime,
			appt.Status, appt.CustomerRef, appt.ExpiresAt).
		WillReturnRows(apptRow(appt))
	mock.ExpectCommit()

	repo := NewPgRepository(mock)
	created, err := repo.CreateAppointment(context.Background(), appt, guard)
	require.NoError(t, err)
	assert.Equal(t, appt.CustomerRef, created.CustomerRef)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentRollsBackOnCapacityGuard(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	resourceID := uuid.New()
	appt := sampleAppointment(clinicID, resourceID, StatusConfirmed)
	guard := Placement{ResourceID: resourceID, MaxConcurrent: 1, Interval: appt.Interval()}

	mock.ExpectBegin()
	// A freshly committed writer already fills the only slot.
	expectRecheck(mock, clinicID, guard, nil, []interval.Interval{appt.Interval()})
	mock.ExpectRollback()

	repo := NewPgRepository(mock)
	_, err = repo.CreateAppointment(context.Background(), appt, guard)
	require.ErrorIs(t, err, ErrCapacityGuard)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveAppointmentExcludesItselfFromRecheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	resourceID := uuid.New()
	appt := sampleAppointment(clinicID, resourceID, StatusConfirmed)
	guard := Placement{ResourceID: resourceID, MaxConcurrent: 1, Interval: appt.Interval()}

	mock.ExpectBegin()
	expectRecheck(mock, clinicID, guard, &appt.ID, nil)
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(clinicID, appt.ID, guard.ResourceID, guard.Interval.Start, guard.Interval.End).
		WillReturnRows(apptRow(appt))
	mock.ExpectCommit()

	repo := NewPgRepository(mock)
	_, err = repo.MoveAppointment(context.Background(), clinicID, appt.ID, guard)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusFiltersByFromStates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	appt := sampleAppointment(clinicID, uuid.New(), StatusCancelled)

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(clinicID, appt.ID, StatusCancelled, []string{"pending", "confirmed"}).
		WillReturnRows(apptRow(appt))

	repo := NewPgRepository(mock)
	got, err := repo.UpdateStatus(context.Background(), clinicID, appt.ID,
		[]Status{StatusPending, StatusConfirmed}, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNoMatchIsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	id := uuid.New()

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(clinicID, id, StatusCompleted, []string{"confirmed"}).
		WillReturnRows(pgxmock.NewRows(apptRowColumns()))

	repo := NewPgRepository(mock)
	_, err = repo.UpdateStatus(context.Background(), clinicID, id, []Status{StatusConfirmed}, StatusCompleted)
	require.ErrorIs(t, err, ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindExpiredHolds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	appt := sampleAppointment(clinicID, uuid.New(), StatusPending)
	past := time.Now().Add(-time.Minute)
	appt.ExpiresAt = &past

	now := time.Now()
	mock.ExpectQuery("expires_at IS NOT NULL").
		WithArgs(now).
		WillReturnRows(apptRow(appt))

	repo := NewPgRepository(mock)
	stale, err := repo.FindExpiredHolds(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, appt.ID, stale[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	apptID := uuid.New()
	created := time.Now()

	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(clinicID, EventAppointmentCreated, &apptID, []byte(`{}`), &created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPgRepository(mock)
	err = repo.InsertEvent(context.Background(), EventLog{
		ClinicID:      clinicID,
		EventType:     EventAppointmentCreated,
		AppointmentID: &apptID,
		Payload:       []byte(`{}`),
		CreatedAt:     created,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
