package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrMenuNotFound     = errors.New("menu not found")
)

// Repository contains all DB interactions needed by the catalog service.
// Every query is scoped by clinic id; a row in another tenant is
// indistinguishable from an absent one.
type Repository interface {
	GetResource(ctx context.Context, clinicID, id uuid.UUID) (*Resource, error)
	ListActiveResources(ctx context.Context, clinicID uuid.UUID, typeFilter *ResourceType) ([]Resource, error)

	GetMenu(ctx context.Context, clinicID, id uuid.UUID) (*Menu, error)
	ResourceSupportsMenu(ctx context.Context, clinicID, resourceID, menuID uuid.UUID) (bool, error)

	CreateResource(ctx context.Context, res *Resource) (*Resource, error)
	CreateMenu(ctx context.Context, menu *Menu) (*Menu, error)
	AssignMenuToResource(ctx context.Context, clinicID, resourceID, menuID uuid.UUID) error
}
