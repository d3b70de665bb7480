package conflict

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/block"
	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/interval"
)

type Kind string

const (
	KindNone         Kind = "none"
	KindBlocked      Kind = "blocked"
	KindOverCapacity Kind = "over_capacity"
)

// Result is the outcome of a conflict check. "No conflict" is a normal
// result, not an error.
type Result struct {
	Kind Kind

	// Block is the first overlapping occurrence when Kind is KindBlocked.
	Block *block.Occurrence

	// Count and MaxConcurrent are set when Kind is KindOverCapacity:
	// the peak number of existing appointments overlapping the proposal
	// and the resource's capacity.
	Count         int
	MaxConcurrent int
}

func (r Result) Conflicting() bool {
	return r.Kind != KindNone
}

// BlockSource provides expanded block occurrences; the Block Manager
// implements it.
type BlockSource interface {
	ActiveBlocksForResource(ctx context.Context, clinicID, resourceID uuid.UUID, window interval.Interval) ([]block.Occurrence, error)
}

// AppointmentSource provides the intervals of live (pending or confirmed)
// appointments on a resource overlapping a window. excludeID omits one
// appointment, used when an existing appointment is being moved or
// confirmed.
type AppointmentSource interface {
	OverlappingIntervals(ctx context.Context, clinicID, resourceID uuid.UUID, window interval.Interval, excludeID *uuid.UUID) ([]interval.Interval, error)
}

// Detector decides whether a proposed (resource, interval) placement
// collides with an active block or would breach the resource's capacity.
type Detector struct {
	blocks       BlockSource
	appointments AppointmentSource
}

func NewDetector(blocks BlockSource, appointments AppointmentSource) *Detector {
	return &Detector{
		blocks:       blocks,
		appointments: appointments,
	}
}

// Check runs the block test first, then the capacity sweep. Every existing
// appointment returned by the source intersects the proposal, so the peak of
// the sweep is always reachable inside the proposed interval.
func (d *Detector) Check(ctx context.Context, res *catalog.Resource, proposed interval.Interval, excludeID *uuid.UUID) (Result, error) {
	if err := proposed.Validate(); err != nil {
		return Result{}, err
	}

	occs, err := d.blocks.ActiveBlocksForResource(ctx, res.ClinicID, res.ID, proposed)
	if err != nil {
		return Result{}, fmt.Errorf("load active blocks: %w", err)
	}
	for i := range occs {
		if occs[i].Interval.Overlaps(proposed) {
			return Result{Kind: KindBlocked, Block: &occs[i]}, nil
		}
	}

	existing, err := d.appointments.OverlappingIntervals(ctx, res.ClinicID, res.ID, proposed, excludeID)
	if err != nil {
		return Result{}, fmt.Errorf("load overlapping appointments: %w", err)
	}

	peak := interval.MaxConcurrent(existing)
	if peak >= res.MaxConcurrent {
		return Result{Kind: KindOverCapacity, Count: peak, MaxConcurrent: res.MaxConcurrent}, nil
	}

	return Result{Kind: KindNone}, nil
}
