package block

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/resource-scheduler/internal/interval"
	"github.com/clinicops/resource-scheduler/internal/validation"
)

// Manager owns unavailability intervals per resource and expands recurring
// templates on demand.
type Manager struct {
	repo   Repository
	logger zerolog.Logger
}

func NewManager(repo Repository, logger zerolog.Logger) *Manager {
	return &Manager{
		repo:   repo,
		logger: logger.With().Str("component", "block_manager").Logger(),
	}
}

// ActiveBlocksForResource returns the concrete block occurrences on the
// resource intersecting the window, recurring templates expanded. A stored
// rule that no longer parses is treated as non-recurring and logged for
// operator review rather than guessed at.
func (m *Manager) ActiveBlocksForResource(ctx context.Context, clinicID, resourceID uuid.UUID, window interval.Interval) ([]Occurrence, error) {
	if err := window.Validate(); err != nil {
		return nil, validation.Errorf("window", "%v", err)
	}

	candidates, err := m.repo.CandidateBlocks(ctx, clinicID, resourceID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("load candidate blocks: %w", err)
	}

	var occs []Occurrence
	for i := range candidates {
		b := &candidates[i]
		expanded, err := Expand(b, window)
		if err != nil {
			var malformed *MalformedRuleError
			if errors.As(err, &malformed) {
				m.logger.Warn().
					Str("block_id", b.ID.String()).
					Str("rule", malformed.Rule).
					Str("reason", malformed.Reason).
					Msg("stored recurrence rule is malformed, treating block as non-recurring")
			} else {
				return nil, fmt.Errorf("expand block %s: %w", b.ID, err)
			}
		}
		occs = append(occs, expanded...)
	}

	sort.Slice(occs, func(i, j int) bool {
		return occs[i].Interval.Start.Before(occs[j].Interval.Start)
	})
	return occs, nil
}

func (m *Manager) ListBlocksForResource(ctx context.Context, clinicID, resourceID uuid.UUID) ([]Block, error) {
	blocks, err := m.repo.ListBlocksForResource(ctx, clinicID, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

// CreateBlock validates and persists an unavailability template. Malformed
// recurrence rules are rejected here so the read path never has to guess.
func (m *Manager) CreateBlock(ctx context.Context, b *Block) (*Block, error) {
	if b.ClinicID == uuid.Nil {
		return nil, validation.Errorf("clinic_id", "required")
	}
	if b.ResourceID == uuid.Nil {
		return nil, validation.Errorf("resource_id", "required")
	}
	if err := b.Interval().Validate(); err != nil {
		return nil, validation.Errorf("interval", "%v", err)
	}
	if b.RecurrenceRule != nil && *b.RecurrenceRule != "" {
		if _, err := ParseRule(*b.RecurrenceRule); err != nil {
			return nil, err
		}
	}

	created, err := m.repo.CreateBlock(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	return created, nil
}

func (m *Manager) DeactivateBlock(ctx context.Context, clinicID, id uuid.UUID) error {
	if err := m.repo.DeactivateBlock(ctx, clinicID, id); err != nil {
		return err
	}
	return nil
}
