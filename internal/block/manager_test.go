package block

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/resource-scheduler/internal/interval"
	"github.com/clinicops/resource-scheduler/internal/validation"
)

type stubRepo struct {
	blocks  []Block
	created *Block
}

func (s *stubRepo) CandidateBlocks(ctx context.Context, clinicID, resourceID uuid.UUID, from, to time.Time) ([]Block, error) {
	return s.blocks, nil
}

func (s *stubRepo) ListBlocksForResource(ctx context.Context, clinicID, resourceID uuid.UUID) ([]Block, error) {
	return s.blocks, nil
}

func (s *stubRepo) CreateBlock(ctx context.Context, b *Block) (*Block, error) {
	s.created = b
	out := *b
	out.ID = uuid.New()
	return &out, nil
}

func (s *stubRepo) DeactivateBlock(ctx context.Context, clinicID, id uuid.UUID) error {
	return nil
}

func TestActiveBlocksForResourceExpandsAndSorts(t *testing.T) {
	clinicID := uuid.New()
	resourceID := uuid.New()
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	weekly := "FREQ=WEEKLY;COUNT=3"
	repo := &stubRepo{blocks: []Block{
		{
			ID: uuid.New(), ClinicID: clinicID, ResourceID: resourceID,
			StartTime: monday.AddDate(0, 0, 3), EndTime: monday.AddDate(0, 0, 3).Add(time.Hour),
			IsActive: true,
		},
		{
			ID: uuid.New(), ClinicID: clinicID, ResourceID: resourceID,
			StartTime: monday, EndTime: monday.Add(time.Hour),
			RecurrenceRule: &weekly, IsActive: true,
		},
	}}

	mgr := NewManager(repo, zerolog.Nop())

	window := interval.Interval{Start: monday.Add(-time.Hour), End: monday.AddDate(0, 1, 0)}
	occs, err := mgr.ActiveBlocksForResource(context.Background(), clinicID, resourceID, window)
	require.NoError(t, err)
	require.Len(t, occs, 4, "three weekly occurrences plus the one-off")

	for i := 1; i < len(occs); i++ {
		assert.False(t, occs[i].Interval.Start.Before(occs[i-1].Interval.Start), "occurrences must be sorted by start")
	}
}

func TestActiveBlocksForResourceToleratesMalformedStoredRule(t *testing.T) {
	clinicID := uuid.New()
	resourceID := uuid.New()
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	bad := "FREQ=DAILY;COUNT=9"
	repo := &stubRepo{blocks: []Block{{
		ID: uuid.New(), ClinicID: clinicID, ResourceID: resourceID,
		StartTime: monday, EndTime: monday.Add(time.Hour),
		RecurrenceRule: &bad, IsActive: true,
	}}}

	mgr := NewManager(repo, zerolog.Nop())

	window := interval.Interval{Start: monday.Add(-time.Hour), End: monday.AddDate(0, 1, 0)}
	occs, err := mgr.ActiveBlocksForResource(context.Background(), clinicID, resourceID, window)
	require.NoError(t, err, "a malformed stored rule must not fail the read path")
	require.Len(t, occs, 1, "malformed rule degrades to the template occurrence")
	assert.Equal(t, monday, occs[0].Interval.Start)
}

func TestActiveBlocksForResourceRejectsInvalidWindow(t *testing.T) {
	mgr := NewManager(&stubRepo{}, zerolog.Nop())

	now := time.Now()
	_, err := mgr.ActiveBlocksForResource(context.Background(), uuid.New(), uuid.New(),
		interval.Interval{Start: now, End: now})

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
}

func TestCreateBlockRejectsMalformedRule(t *testing.T) {
	repo := &stubRepo{}
	mgr := NewManager(repo, zerolog.Nop())

	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	bad := "FREQ=WEEKLY;COUNT=oops"
	_, err := mgr.CreateBlock(context.Background(), &Block{
		ClinicID:       uuid.New(),
		ResourceID:     uuid.New(),
		StartTime:      monday,
		EndTime:        monday.Add(time.Hour),
		RecurrenceRule: &bad,
	})

	var malformed *MalformedRuleError
	require.ErrorAs(t, err, &malformed)
	assert.Nil(t, repo.created, "nothing persists on rejection")
}

func TestCreateBlockRejectsInvertedInterval(t *testing.T) {
	mgr := NewManager(&stubRepo{}, zerolog.Nop())

	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err := mgr.CreateBlock(context.Background(), &Block{
		ClinicID:   uuid.New(),
		ResourceID: uuid.New(),
		StartTime:  monday.Add(time.Hour),
		EndTime:    monday,
	})

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "interval", vErr.Field)
}

func TestCreateBlockAcceptsValidWeeklyRule(t *testing.T) {
	repo := &stubRepo{}
	mgr := NewManager(repo, zerolog.Nop())

	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rule := "FREQ=WEEKLY;COUNT=6"
	created, err := mgr.CreateBlock(context.Background(), &Block{
		ClinicID:       uuid.New(),
		ResourceID:     uuid.New(),
		StartTime:      monday,
		EndTime:        monday.Add(time.Hour),
		RecurrenceRule: &rule,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, &rule, repo.created.RecurrenceRule)
}
