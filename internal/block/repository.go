package block

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrBlockNotFound = errors.New("block not found")

// Repository contains all DB interactions needed by the block manager.
type Repository interface {
	// CandidateBlocks returns active blocks on the resource that may have an
	// occurrence inside [from, to): non-recurring blocks intersecting the
	// window plus every recurring template.
	CandidateBlocks(ctx context.Context, clinicID, resourceID uuid.UUID, from, to time.Time) ([]Block, error)

	ListBlocksForResource(ctx context.Context, clinicID, resourceID uuid.UUID) ([]Block, error)
	CreateBlock(ctx context.Context, b *Block) (*Block, error)
	DeactivateBlock(ctx context.Context, clinicID, id uuid.UUID) error
}
