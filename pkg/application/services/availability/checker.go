package availability

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/application/services/bom"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
)

// Exploder resolves the components needed for a quantity of an item
type Exploder interface {
	Explode(ctx context.Context, root entities.ItemID, quantity decimal.Decimal) ([]bom.ExplosionLine, error)
}

// MaterialRequirement compares one component's requirement with its stock
type MaterialRequirement struct {
	ItemID            entities.ItemID `json:"item_id"`
	ItemCode          string          `json:"item_code"`
	ItemName          string          `json:"item_name"`
	Level             int             `json:"level"`
	Unit              string          `json:"unit"`
	RequiredQuantity  decimal.Decimal `json:"required_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Sufficient        bool            `json:"sufficient"`
}

// ProductInfo describes the item being checked
type ProductInfo struct {
	ItemID       entities.ItemID `json:"item_id"`
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
}

// Report is the result of an availability check
type Report struct {
	CanProduce        bool                  `json:"can_produce"`
	DesiredQuantity   decimal.Decimal       `json:"desired_quantity"`
	RequiredMaterials []MaterialRequirement `json:"required_materials"`
	ProductInfo       ProductInfo           `json:"product_info"`
}

// Shortages lists the requirements that cannot be covered
func (r *Report) Shortages() []entities.Shortage {
	return Shortages(r.RequiredMaterials)
}

// Checker answers whether a product can be built from current stock.
// It never writes; the production transaction repeats the evaluation under lock.
type Checker struct {
	items    repositories.ItemRepository
	exploder Exploder
}

// NewChecker creates an availability checker
func NewChecker(items repositories.ItemRepository, exploder Exploder) *Checker {
	return &Checker{items: items, exploder: exploder}
}

// CheckBOM explodes product for desired units and compares every component with live stock
func (c *Checker) CheckBOM(ctx context.Context, product entities.ItemID, desired decimal.Decimal) (*Report, error) {
	if !desired.IsPositive() {
		return nil, &entities.InvalidQuantityError{Field: "quantity", Value: desired}
	}
	productItem, err := c.items.GetItem(ctx, product)
	if err != nil {
		return nil, err
	}

	lines, err := c.exploder.Explode(ctx, product, desired)
	if err != nil {
		return nil, err
	}

	ids := make([]entities.ItemID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	items, err := c.items.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read component stock: %w", err)
	}
	stocks := make(map[entities.ItemID]decimal.Decimal, len(items))
	for id, item := range items {
		stocks[id] = item.CurrentStock
	}

	requirements, canProduce := Evaluate(lines, stocks)
	return &Report{
		CanProduce:        canProduce,
		DesiredQuantity:   desired,
		RequiredMaterials: requirements,
		ProductInfo: ProductInfo{
			ItemID:       productItem.ItemID,
			ItemCode:     productItem.ItemCode,
			ItemName:     productItem.ItemName,
			Unit:         productItem.Unit,
			CurrentStock: productItem.CurrentStock,
		},
	}, nil
}

// Evaluate compares each explosion line with the given stock levels. A missing
// stock entry counts as zero. The result can be produced only if every line is covered.
func Evaluate(lines []bom.ExplosionLine, stocks map[entities.ItemID]decimal.Decimal) ([]MaterialRequirement, bool) {
	requirements := make([]MaterialRequirement, 0, len(lines))
	canProduce := true
	for _, line := range lines {
		available, ok := stocks[line.ItemID]
		if !ok {
			available = decimal.Zero
		}
		sufficient := available.GreaterThanOrEqual(line.QuantityRequired)
		if !sufficient {
			canProduce = false
		}
		requirements = append(requirements, MaterialRequirement{
			ItemID:            line.ItemID,
			ItemCode:          line.ItemCode,
			ItemName:          line.ItemName,
			Level:             line.Level,
			Unit:              line.Unit,
			RequiredQuantity:  line.QuantityRequired,
			AvailableQuantity: available,
			Sufficient:        sufficient,
		})
	}
	return requirements, canProduce
}

// Shortages converts insufficient requirements into shortage entries
func Shortages(requirements []MaterialRequirement) []entities.Shortage {
	var shortages []entities.Shortage
	for _, r := range requirements {
		if r.Sufficient {
			continue
		}
		shortages = append(shortages, entities.Shortage{
			ItemID:    r.ItemID,
			ItemCode:  r.ItemCode,
			ItemName:  r.ItemName,
			Required:  r.RequiredQuantity,
			Available: r.AvailableQuantity,
			Short:     r.RequiredQuantity.Sub(r.AvailableQuantity),
		})
	}
	return shortages
}
