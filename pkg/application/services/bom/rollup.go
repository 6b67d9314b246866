package bom

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
)

// CostRollup summarizes what it takes to build a quantity of one item.
// Labor cost and machine time are charged per unit of the parent on each edge;
// setup time is charged once per edge regardless of quantity.
type CostRollup struct {
	ItemID       entities.ItemID `json:"item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	LaborCost    decimal.Decimal `json:"labor_cost"`
	MachineTime  decimal.Decimal `json:"machine_time"`
	SetupTime    decimal.Decimal `json:"setup_time"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Lines        []ExplosionLine `json:"lines"`
}

// Rollup computes material, labor and time totals for quantity units of root.
// Material cost only counts leaves so that purchased parts are not counted twice.
func (r *Resolver) Rollup(ctx context.Context, root entities.ItemID, quantity decimal.Decimal) (*CostRollup, error) {
	g, err := r.resolve(ctx, r.items, r.boms, root, quantity)
	if err != nil {
		return nil, err
	}

	rollup := &CostRollup{
		ItemID:       root,
		Quantity:     quantity,
		MaterialCost: decimal.Zero,
		LaborCost:    decimal.Zero,
		MachineTime:  decimal.Zero,
		SetupTime:    decimal.Zero,
		Lines:        g.lines(),
	}

	for _, n := range g.nodes {
		for _, a := range n.arcs {
			rollup.LaborCost = rollup.LaborCost.Add(a.edge.LaborCost.Mul(n.total))
			rollup.MachineTime = rollup.MachineTime.Add(a.edge.MachineTime.Mul(n.total))
			rollup.SetupTime = rollup.SetupTime.Add(a.edge.SetupTime)
		}
	}
	for _, line := range rollup.Lines {
		if line.IsLeaf {
			rollup.MaterialCost = rollup.MaterialCost.Add(line.ExtendedCost)
		}
	}
	rollup.TotalCost = rollup.MaterialCost.Add(rollup.LaborCost)
	return rollup, nil
}

// Structure holds the one-hop BOM neighborhood of an item
type Structure struct {
	Item     *entities.Item       `json:"item"`
	AsParent []*entities.BOMEdge `json:"as_parent"`
	AsChild  []*entities.BOMEdge `json:"as_child"`
}

// Structure returns the edges where the item is the parent and where it is the child
func (r *Resolver) Structure(ctx context.Context, itemID entities.ItemID) (*Structure, error) {
	item, err := r.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	asParent, err := r.boms.GetChildEdges(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get children of item %d: %w", itemID, err)
	}
	asChild, err := r.boms.GetParentEdges(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parents of item %d: %w", itemID, err)
	}
	return &Structure{Item: item, AsParent: asParent, AsChild: asChild}, nil
}

// FullTree returns every active BOM edge for bulk rendering
func (r *Resolver) FullTree(ctx context.Context) ([]*entities.BOMEdge, error) {
	edges, err := r.boms.GetAllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get BOM edges: %w", err)
	}
	return edges, nil
}
