package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/interval"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrCapacityGuard is returned by guarded writes when the in-transaction
	// re-count finds the placement would breach the resource's capacity.
	// The scheduler translates it into a ConflictError.
	ErrCapacityGuard = errors.New("capacity re-check failed in transaction")
)

// Placement is the write-side input of a guarded insert/update: the target
// resource, its capacity, and the interval being claimed.
type Placement struct {
	ResourceID    uuid.UUID
	MaxConcurrent int
	Interval      interval.Interval
}

// Repository contains all DB interactions needed by the scheduler.
// Guarded writes re-validate the capacity invariant inside a transaction
// holding the resource row lock, so the check-then-persist sequence stays
// correct under writers that bypass the Redis lock.
type Repository interface {
	GetAppointment(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, clinicID uuid.UUID, window interval.Interval) ([]Appointment, error)

	// OverlappingIntervals feeds the conflict detector: intervals of pending
	// and confirmed appointments on the resource intersecting the window.
	OverlappingIntervals(ctx context.Context, clinicID, resourceID uuid.UUID, window interval.Interval, excludeID *uuid.UUID) ([]interval.Interval, error)

	CreateAppointment(ctx context.Context, appt *Appointment, guard Placement) (*Appointment, error)
	MoveAppointment(ctx context.Context, clinicID, id uuid.UUID, guard Placement) (*Appointment, error)
	UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, from []Status, to Status) (*Appointment, error)

	// Expiry worker
	FindExpiredHolds(ctx context.Context, now time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
