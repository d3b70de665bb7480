package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/validation"
)

// Service owns Resource and Menu definitions. Read-mostly; writes are
// validated before they reach the store.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetResource(ctx context.Context, clinicID, id uuid.UUID) (*Resource, error) {
	res, err := s.repo.GetResource(ctx, clinicID, id)
	if err != nil {
		return nil, fmt.Errorf("load resource: %w", err)
	}
	return res, nil
}

func (s *Service) ListActiveResources(ctx context.Context, clinicID uuid.UUID, typeFilter *ResourceType) ([]Resource, error) {
	if typeFilter != nil && !typeFilter.Valid() {
		return nil, validation.Errorf("type", "unknown resource type %q", *typeFilter)
	}
	resources, err := s.repo.ListActiveResources(ctx, clinicID, typeFilter)
	if err != nil {
		return nil, fmt.Errorf("list active resources: %w", err)
	}
	return resources, nil
}

func (s *Service) GetMenu(ctx context.Context, clinicID, id uuid.UUID) (*Menu, error) {
	menu, err := s.repo.GetMenu(ctx, clinicID, id)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	return menu, nil
}

// SupportsMenu reports whether the resource is set up to deliver the menu.
func (s *Service) SupportsMenu(ctx context.Context, clinicID, resourceID, menuID uuid.UUID) (bool, error) {
	ok, err := s.repo.ResourceSupportsMenu(ctx, clinicID, resourceID, menuID)
	if err != nil {
		return false, fmt.Errorf("check menu support: %w", err)
	}
	return ok, nil
}

func (s *Service) CreateResource(ctx context.Context, res *Resource) (*Resource, error) {
	if err := validateResource(res); err != nil {
		return nil, err
	}
	created, err := s.repo.CreateResource(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return created, nil
}

func (s *Service) CreateMenu(ctx context.Context, menu *Menu) (*Menu, error) {
	if err := validateMenu(menu); err != nil {
		return nil, err
	}
	created, err := s.repo.CreateMenu(ctx, menu)
	if err != nil {
		return nil, fmt.Errorf("create menu: %w", err)
	}
	return created, nil
}

func (s *Service) AssignMenuToResource(ctx context.Context, clinicID, resourceID, menuID uuid.UUID) error {
	if err := s.repo.AssignMenuToResource(ctx, clinicID, resourceID, menuID); err != nil {
		return fmt.Errorf("assign menu: %w", err)
	}
	return nil
}

func validateResource(res *Resource) error {
	if res.ClinicID == uuid.Nil {
		return validation.Errorf("clinic_id", "required")
	}
	if strings.TrimSpace(res.Name) == "" {
		return validation.Errorf("name", "required")
	}
	if !res.Type.Valid() {
		return validation.Errorf("type", "unknown resource type %q", res.Type)
	}
	if res.MaxConcurrent < 1 {
		return validation.Errorf("max_concurrent", "must be at least 1, got %d", res.MaxConcurrent)
	}
	if len(res.WorkingHours) == 0 {
		return validation.Errorf("working_hours", "at least one working day is required")
	}
	for day, win := range res.WorkingHours {
		if day < 0 || day > 6 {
			return validation.Errorf("working_hours", "invalid weekday %d", day)
		}
		if win.StartMinute < 0 || win.EndMinute > 24*60 || win.StartMinute >= win.EndMinute {
			return validation.Errorf("working_hours", "window for %s must satisfy 0 <= start < end <= 1440", day)
		}
	}
	return nil
}

func validateMenu(menu *Menu) error {
	if menu.ClinicID == uuid.Nil {
		return validation.Errorf("clinic_id", "required")
	}
	if strings.TrimSpace(menu.Name) == "" {
		return validation.Errorf("name", "required")
	}
	if menu.DurationMinutes <= 0 {
		return validation.Errorf("duration_minutes", "must be positive, got %d", menu.DurationMinutes)
	}
	if menu.Price < 0 {
		return validation.Errorf("price", "must not be negative, got %d", menu.Price)
	}
	return nil
}
