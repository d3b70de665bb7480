package shift

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/interval"
)

var (
	ErrShiftNotFound = errors.New("shift not found")
	ErrShiftOverlap  = errors.New("staff already has an overlapping shift")
)

// Repository contains all DB interactions for shifts and preferences.
type Repository interface {
	ListShifts(ctx context.Context, clinicID uuid.UUID, window interval.Interval, status *ShiftStatus) ([]StaffShift, error)
	OverlappingShifts(ctx context.Context, clinicID, staffResourceID uuid.UUID, window interval.Interval) ([]StaffShift, error)
	CreateShift(ctx context.Context, s *StaffShift) (*StaffShift, error)

	ListPreferences(ctx context.Context, clinicID uuid.UUID, staffResourceID *uuid.UUID, activeOnly bool) ([]StaffPreference, error)
}
