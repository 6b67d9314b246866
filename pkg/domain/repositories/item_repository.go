package repositories

import (
	"context"

	"github.com/taechang/production-core/pkg/domain/entities"
)

// ItemReader resolves item master records
type ItemReader interface {
	// GetItem returns the item or an *entities.ItemNotFoundError when it is missing or inactive
	GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error)
}

// ItemRepository provides access to item master data
type ItemRepository interface {
	ItemReader
	GetItems(ctx context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error)
	SaveItem(ctx context.Context, item *entities.Item) error
}

// CoilSpecRepository provides access to coil specifications
type CoilSpecRepository interface {
	GetCoilSpecs(ctx context.Context, itemID entities.ItemID) ([]*entities.CoilSpec, error)
	SaveCoilSpec(ctx context.Context, spec *entities.CoilSpec) error
}
