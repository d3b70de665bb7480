package block

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/interval"
)

// Block is a planned unavailability interval on a resource (time off,
// maintenance). A block with a recurrence rule is a template; concrete
// occurrences are materialized on demand by expansion and never persisted.
type Block struct {
	ID             uuid.UUID
	ClinicID       uuid.UUID
	ResourceID     uuid.UUID
	StartTime      time.Time
	EndTime        time.Time
	RecurrenceRule *string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (b *Block) Interval() interval.Interval {
	return interval.Interval{Start: b.StartTime, End: b.EndTime}
}

// Occurrence is one concrete interval of a (possibly recurring) block.
type Occurrence struct {
	BlockID  uuid.UUID
	Interval interval.Interval
}
