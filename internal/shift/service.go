package shift

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/interval"
	"github.com/clinicops/resource-scheduler/internal/validation"
)

// StaffCatalog is the slice of the resource catalog the shift service needs.
type StaffCatalog interface {
	GetResource(ctx context.Context, clinicID, id uuid.UUID) (*catalog.Resource, error)
}

// Service owns staff shift and preference records.
type Service struct {
	repo    Repository
	catalog StaffCatalog
}

func NewService(repo Repository, cat StaffCatalog) *Service {
	return &Service{repo: repo, catalog: cat}
}

func (s *Service) ListShifts(ctx context.Context, clinicID uuid.UUID, window interval.Interval) ([]StaffShift, error) {
	if err := window.Validate(); err != nil {
		return nil, validation.Errorf("date_range", "%v", err)
	}
	shifts, err := s.repo.ListShifts(ctx, clinicID, window, nil)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// CreateShift persists a draft shift for a staff resource. A shift that
// overlaps an existing non-cancelled shift of the same staff member is
// rejected.
func (s *Service) CreateShift(ctx context.Context, clinicID, staffResourceID uuid.UUID, window interval.Interval, notes string) (*StaffShift, error) {
	if err := window.Validate(); err != nil {
		return nil, validation.Errorf("interval", "%v", err)
	}

	res, err := s.catalog.GetResource(ctx, clinicID, staffResourceID)
	if err != nil {
		return nil, err
	}
	if res.Type != catalog.ResourceStaff {
		return nil, validation.Errorf("staff_resource_id", "resource %s is a %s, not staff", staffResourceID, res.Type)
	}

	overlapping, err := s.repo.OverlappingShifts(ctx, clinicID, staffResourceID, window)
	if err != nil {
		return nil, fmt.Errorf("check overlapping shifts: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrShiftOverlap, overlapping[0].Interval())
	}

	shift := &StaffShift{
		ClinicID:        clinicID,
		StaffResourceID: staffResourceID,
		StartTime:       window.Start,
		EndTime:         window.End,
		Status:          ShiftDraft,
		Notes:           notes,
	}

	created, err := s.repo.CreateShift(ctx, shift)
	if err != nil {
		return nil, fmt.Errorf("create shift: %w", err)
	}
	return created, nil
}

func (s *Service) ListPreferences(ctx context.Context, clinicID uuid.UUID, staffResourceID *uuid.UUID, activeOnly bool) ([]StaffPreference, error) {
	prefs, err := s.repo.ListPreferences(ctx, clinicID, staffResourceID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}
