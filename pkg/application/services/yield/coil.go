package yield

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
)

// CoilCalculator converts coil weight into a blanking piece count
type CoilCalculator struct {
	items repositories.ItemReader
	specs repositories.CoilSpecRepository
}

// NewCoilCalculator creates a coil calculator
func NewCoilCalculator(items repositories.ItemReader, specs repositories.CoilSpecRepository) *CoilCalculator {
	return &CoilCalculator{items: items, specs: specs}
}

// SuggestedInputQuantity returns floor(weight / weight_per_piece) from the
// item's first coil spec, or nil when there is no usable spec or no weight.
func (c *CoilCalculator) SuggestedInputQuantity(ctx context.Context, itemID entities.ItemID, weight decimal.Decimal) (*int64, error) {
	specs, err := c.specs.GetCoilSpecs(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load coil specs for item %d: %w", itemID, err)
	}
	if len(specs) == 0 || !weight.IsPositive() {
		return nil, nil
	}
	perPiece := specs[0].WeightPerPiece
	if !perPiece.IsPositive() {
		return nil, nil
	}
	// QuoRem at precision 0 is exact; Div would round to 16 places first.
	quotient, _ := weight.QuoRem(perPiece, 0)
	pieces := quotient.IntPart()
	return &pieces, nil
}

// SuggestForOperation suggests an input piece count for a process run.
// Only BLANKING on COIL material has a suggestion; the coil's current stock is
// taken as the available weight.
func (c *CoilCalculator) SuggestForOperation(ctx context.Context, opType entities.OperationType, inputItemID entities.ItemID) (*int64, error) {
	if opType != entities.OperationBlanking {
		return nil, nil
	}
	item, err := c.items.GetItem(ctx, inputItemID)
	if err != nil {
		return nil, err
	}
	if item.MaterialType != entities.MaterialCoil {
		return nil, nil
	}
	return c.SuggestedInputQuantity(ctx, inputItemID, item.CurrentStock)
}
