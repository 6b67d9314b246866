package repositories

import (
	"context"

	"github.com/taechang/production-core/pkg/domain/entities"
)

// EdgeReader returns the active edges leaving a parent item
type EdgeReader interface {
	GetChildEdges(ctx context.Context, parentID entities.ItemID) ([]*entities.BOMEdge, error)
}

// BOMRepository provides access to Bill of Materials data.
// Only active edges are returned by the read methods.
type BOMRepository interface {
	EdgeReader
	GetParentEdges(ctx context.Context, childID entities.ItemID) ([]*entities.BOMEdge, error)
	GetAllEdges(ctx context.Context) ([]*entities.BOMEdge, error)
	SaveEdge(ctx context.Context, edge *entities.BOMEdge) error
	DeactivateEdge(ctx context.Context, bomID int64) error
	// BOMRevision returns a token that changes whenever an edge or an item
	// master record changes. Cached explosions are only valid for the revision
	// they were computed at.
	BOMRevision(ctx context.Context) (string, error)
}
