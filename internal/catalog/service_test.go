package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/resource-scheduler/internal/validation"
)

type memRepo struct {
	resources map[uuid.UUID]*Resource
	menus     map[uuid.UUID]*Menu
}

func newMemRepo() *memRepo {
	return &memRepo{
		resources: make(map[uuid.UUID]*Resource),
		menus:     make(map[uuid.UUID]*Menu),
	}
}

func (m *memRepo) GetResource(ctx context.Context, clinicID, id uuid.UUID) (*Resource, error) {
	res, ok := m.resources[id]
	if !ok || res.ClinicID != clinicID {
		return nil, ErrResourceNotFound
	}
	return res, nil
}

func (m *memRepo) ListActiveResources(ctx context.Context, clinicID uuid.UUID, typeFilter *ResourceType) ([]Resource, error) {
	var out []Resource
	for _, res := range m.resources {
		if res.ClinicID != clinicID || !res.IsActive {
			continue
		}
		if typeFilter != nil && res.Type != *typeFilter {
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}

func (m *memRepo) GetMenu(ctx context.Context, clinicID, id uuid.UUID) (*Menu, error) {
	menu, ok := m.menus[id]
	if !ok || menu.ClinicID != clinicID {
		return nil, ErrMenuNotFound
	}
	return menu, nil
}

func (m *memRepo) ResourceSupportsMenu(ctx context.Context, clinicID, resourceID, menuID uuid.UUID) (bool, error) {
	return false, nil
}

func (m *memRepo) CreateResource(ctx context.Context, res *Resource) (*Resource, error) {
	out := *res
	out.ID = uuid.New()
	m.resources[out.ID] = &out
	return &out, nil
}

func (m *memRepo) CreateMenu(ctx context.Context, menu *Menu) (*Menu, error) {
	out := *menu
	out.ID = uuid.New()
	m.menus[out.ID] = &out
	return &out, nil
}

func (m *memRepo) AssignMenuToResource(ctx context.Context, clinicID, resourceID, menuID uuid.UUID) error {
	return nil
}

func validResource(clinicID uuid.UUID) *Resource {
	return &Resource{
		ClinicID:      clinicID,
		Name:          "Dr. Tanaka",
		Type:          ResourceStaff,
		MaxConcurrent: 1,
		WorkingHours: WorkingHours{
			time.Monday: {StartMinute: 540, EndMinute: 1080},
		},
	}
}

func TestCreateResourceValidation(t *testing.T) {
	svc := NewService(newMemRepo())
	clinicID := uuid.New()

	tests := []struct {
		name   string
		mutate func(*Resource)
		field  string
	}{
		{"missing clinic", func(r *Resource) { r.ClinicID = uuid.Nil }, "clinic_id"},
		{"blank name", func(r *Resource) { r.Name = " " }, "name"},
		{"bad type", func(r *Resource) { r.Type = "vehicle" }, "type"},
		{"zero capacity", func(r *Resource) { r.MaxConcurrent = 0 }, "max_concurrent"},
		{"no working hours", func(r *Resource) { r.WorkingHours = nil }, "working_hours"},
		{"inverted window", func(r *Resource) {
			r.WorkingHours = WorkingHours{time.Monday: {StartMinute: 600, EndMinute: 540}}
		}, "working_hours"},
		{"window past midnight", func(r *Resource) {
			r.WorkingHours = WorkingHours{time.Monday: {StartMinute: 540, EndMinute: 1500}}
		}, "working_hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validResource(clinicID)
			tt.mutate(res)

			_, err := svc.CreateResource(context.Background(), res)
			var vErr *validation.Error
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	created, err := svc.CreateResource(context.Background(), validResource(clinicID))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestCreateMenuValidation(t *testing.T) {
	svc := NewService(newMemRepo())
	clinicID := uuid.New()

	_, err := svc.CreateMenu(context.Background(), &Menu{ClinicID: clinicID, Name: "Checkup", DurationMinutes: 0})
	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "duration_minutes", vErr.Field)

	_, err = svc.CreateMenu(context.Background(), &Menu{ClinicID: clinicID, Name: "Checkup", DurationMinutes: 30, Price: -1})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "price", vErr.Field)

	created, err := svc.CreateMenu(context.Background(), &Menu{ClinicID: clinicID, Name: "Checkup", DurationMinutes: 30, Price: 5000})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestListActiveResourcesRejectsUnknownType(t *testing.T) {
	svc := NewService(newMemRepo())

	bad := ResourceType("vehicle")
	_, err := svc.ListActiveResources(context.Background(), uuid.New(), &bad)

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "type", vErr.Field)
}

func TestGetResourceScopedToClinic(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	clinicID := uuid.New()
	created, err := svc.CreateResource(context.Background(), validResource(clinicID))
	require.NoError(t, err)

	got, err := svc.GetResource(context.Background(), clinicID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetResource(context.Background(), uuid.New(), created.ID)
	require.ErrorIs(t, err, ErrResourceNotFound)
}
