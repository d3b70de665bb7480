package block

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockColumns() []string {
	return []string{
		"id", "clinic_id", "resource_id", "start_time", "end_time",
		"recurrence_rule", "is_active", "created_at", "updated_at",
	}
}

func TestCandidateBlocksIncludesAllRecurringTemplates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	resourceID := uuid.New()
	now := time.Now().Truncate(time.Second)
	from, to := now, now.Add(24*time.Hour)

	rule := "FREQ=WEEKLY;COUNT=4"
	rows := pgxmock.NewRows(blockColumns()).
		AddRow(uuid.New(), clinicID, resourceID, now.Add(-30*24*time.Hour), now.Add(-30*24*time.Hour).Add(time.Hour),
			&rule, true, now, now).
		AddRow(uuid.New(), clinicID, resourceID, now.Add(2*time.Hour), now.Add(3*time.Hour),
			(*string)(nil), true, now, now)

	mock.ExpectQuery("FROM blocks").
		WithArgs(clinicID, resourceID, from, to).
		WillReturnRows(rows)

	repo := NewPgRepository(mock)
	blocks, err := repo.CandidateBlocks(context.Background(), clinicID, resourceID, from, to)
	require.NoError(t, err)

	require.Len(t, blocks, 2)
	require.NotNil(t, blocks[0].RecurrenceRule)
	assert.Equal(t, rule, *blocks[0].RecurrenceRule)
	assert.Nil(t, blocks[1].RecurrenceRule)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateBlockNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	id := uuid.New()

	mock.ExpectExec("UPDATE blocks").
		WithArgs(clinicID, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPgRepository(mock)
	err = repo.DeactivateBlock(context.Background(), clinicID, id)
	require.ErrorIs(t, err, ErrBlockNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateBlockSucceeds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinicID := uuid.New()
	id := uuid.New()

	mock.ExpectExec("UPDATE blocks").
		WithArgs(clinicID, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPgRepository(mock)
	require.NoError(t, repo.DeactivateBlock(context.Background(), clinicID, id))
	require.NoError(t, mock.ExpectationsWereMet())
}
