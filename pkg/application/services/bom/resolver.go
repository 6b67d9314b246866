package bom

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
	"go.uber.org/zap"
)

// ExplosionLine is one resolved item of an exploded BOM
type ExplosionLine struct {
	ItemID           entities.ItemID `json:"item_id"`
	ItemCode         string          `json:"item_code"`
	ItemName         string          `json:"item_name"`
	Level            int             `json:"level"`
	QuantityRequired decimal.Decimal `json:"quantity_required_total"`
	Unit             string          `json:"unit"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ExtendedCost     decimal.Decimal `json:"extended_cost"`
	IsLeaf           bool            `json:"is_leaf"`
}

// WhereUsedEntry is one direct parent of an item
type WhereUsedEntry struct {
	BOMID            int64           `json:"bom_id"`
	ParentItemID     entities.ItemID `json:"parent_item_id"`
	ParentItemCode   string          `json:"parent_item_code"`
	ParentItemName   string          `json:"parent_item_name"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
	LevelNo          int             `json:"level_no"`
}

// AncestorEntry is one item that consumes the queried item directly or indirectly
type AncestorEntry struct {
	ItemID   entities.ItemID `json:"item_id"`
	ItemCode string          `json:"item_code"`
	ItemName string          `json:"item_name"`
	Distance int             `json:"distance"`
}

// Resolver explodes BOMs and answers where-used queries
type Resolver struct {
	items    repositories.ItemReader
	boms     repositories.BOMRepository
	cache    ExplosionCache
	maxDepth int
	logger   *zap.Logger
}

// NewResolver creates a resolver with the default depth cap and no cache
func NewResolver(items repositories.ItemReader, boms repositories.BOMRepository, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		items:    items,
		boms:     boms,
		maxDepth: DefaultMaxDepth,
		logger:   logger,
	}
}

// SetMaxDepth changes the explosion depth cap. Values below 1 restore the default.
func (r *Resolver) SetMaxDepth(depth int) {
	if depth < 1 {
		depth = DefaultMaxDepth
	}
	r.maxDepth = depth
}

// MaxDepth returns the configured explosion depth cap
func (r *Resolver) MaxDepth() int {
	return r.maxDepth
}

// SetCache attaches an advisory explosion cache
func (r *Resolver) SetCache(cache ExplosionCache) {
	r.cache = cache
}

// Explode resolves every item below root with its total requirement for quantity units.
// Results may come from the explosion cache; transactional callers use ExplodeWith.
func (r *Resolver) Explode(ctx context.Context, root entities.ItemID, quantity decimal.Decimal) ([]ExplosionLine, error) {
	if !quantity.IsPositive() {
		return nil, &entities.InvalidQuantityError{Field: "quantity", Value: quantity}
	}
	if r.cache == nil {
		return r.ExplodeWith(ctx, r.items, r.boms, root, quantity)
	}

	// The revision is read before the graph so an entry computed while an edge
	// changes is stored under the old revision and never served afterwards.
	revision, err := r.boms.BOMRevision(ctx)
	if err != nil {
		r.logger.Warn("BOM revision unavailable, bypassing explosion cache", zap.Error(err))
		return r.ExplodeWith(ctx, r.items, r.boms, root, quantity)
	}

	perUnit, hit, err := r.cache.Get(ctx, root, revision)
	if err != nil {
		r.logger.Warn("explosion cache read failed", zap.Int64("item_id", int64(root)), zap.Error(err))
	} else if hit {
		if _, err := r.items.GetItem(ctx, root); err != nil {
			return nil, err
		}
		return ScaleLines(perUnit, quantity), nil
	}

	perUnit, err = r.ExplodeWith(ctx, r.items, r.boms, root, decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}
	if err := r.cache.Put(ctx, root, revision, perUnit); err != nil {
		r.logger.Warn("explosion cache write failed", zap.Int64("item_id", int64(root)), zap.Error(err))
	}
	return ScaleLines(perUnit, quantity), nil
}

// ExplodeWith explodes root against the given readers, bypassing the cache.
// Lines are ordered by level, then by order of first discovery. The root is not included.
func (r *Resolver) ExplodeWith(
	ctx context.Context,
	items repositories.ItemReader,
	edges repositories.EdgeReader,
	root entities.ItemID,
	quantity decimal.Decimal,
) ([]ExplosionLine, error) {
	g, err := r.resolve(ctx, items, edges, root, quantity)
	if err != nil {
		return nil, err
	}
	return g.lines(), nil
}

func (r *Resolver) resolve(
	ctx context.Context,
	items repositories.ItemReader,
	edges repositories.EdgeReader,
	root entities.ItemID,
	quantity decimal.Decimal,
) (*graph, error) {
	if !quantity.IsPositive() {
		return nil, &entities.InvalidQuantityError{Field: "quantity", Value: quantity}
	}

	g, err := loadGraph(ctx, items, edges, root, r.maxDepth)
	if err != nil {
		var cycle *entities.CircularBOMError
		if errors.As(err, &cycle) {
			r.logger.Error("circular BOM", zap.Int64("root_item_id", int64(root)), zap.Any("path", cycle.Path))
		}
		return nil, err
	}
	if err := g.accumulate(quantity, r.maxDepth); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *graph) lines() []ExplosionLine {
	lines := make([]ExplosionLine, 0, len(g.nodes)-1)
	for i := 1; i < len(g.nodes); i++ {
		n := g.nodes[i]
		lines = append(lines, ExplosionLine{
			ItemID:           n.item.ItemID,
			ItemCode:         n.item.ItemCode,
			ItemName:         n.item.ItemName,
			Level:            n.level,
			QuantityRequired: n.total,
			Unit:             n.item.Unit,
			UnitPrice:        n.item.Price,
			ExtendedCost:     n.item.Price.Mul(n.total),
			IsLeaf:           len(n.arcs) == 0,
		})
	}
	// Nodes are stored in discovery order, so a stable sort on level keeps it as the tiebreak.
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Level < lines[j].Level })
	return lines
}

// ScaleLines multiplies the requirement and cost of per-unit lines by quantity
func ScaleLines(perUnit []ExplosionLine, quantity decimal.Decimal) []ExplosionLine {
	scaled := make([]ExplosionLine, len(perUnit))
	for i, line := range perUnit {
		line.QuantityRequired = line.QuantityRequired.Mul(quantity)
		line.ExtendedCost = line.UnitPrice.Mul(line.QuantityRequired)
		scaled[i] = line
	}
	return scaled
}

// WhereUsed returns the direct parents of an item. It does not walk further up.
func (r *Resolver) WhereUsed(ctx context.Context, itemID entities.ItemID) ([]WhereUsedEntry, error) {
	if _, err := r.items.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	edges, err := r.boms.GetParentEdges(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parents of item %d: %w", itemID, err)
	}

	entries := make([]WhereUsedEntry, 0, len(edges))
	for _, edge := range edges {
		parent, err := r.items.GetItem(ctx, edge.ParentItemID)
		if err != nil {
			var notFound *entities.ItemNotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, WhereUsedEntry{
			BOMID:            edge.BOMID,
			ParentItemID:     parent.ItemID,
			ParentItemCode:   parent.ItemCode,
			ParentItemName:   parent.ItemName,
			QuantityRequired: edge.QuantityRequired,
			LevelNo:          edge.LevelNo,
		})
	}
	return entries, nil
}

// WhereUsedTransitive returns every active ancestor of an item with its shortest distance.
// Ancestors are ordered by distance, then by order of discovery.
func (r *Resolver) WhereUsedTransitive(ctx context.Context, itemID entities.ItemID) ([]AncestorEntry, error) {
	if _, err := r.items.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	seen := map[entities.ItemID]bool{itemID: true}
	frontier := []entities.ItemID{itemID}
	var result []AncestorEntry

	for distance := 1; len(frontier) > 0; distance++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []entities.ItemID
		for _, id := range frontier {
			edges, err := r.boms.GetParentEdges(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to get parents of item %d: %w", id, err)
			}
			for _, edge := range edges {
				if seen[edge.ParentItemID] {
					continue
				}
				seen[edge.ParentItemID] = true

				parent, err := r.items.GetItem(ctx, edge.ParentItemID)
				if err != nil {
					var notFound *entities.ItemNotFoundError
					if errors.As(err, &notFound) {
						continue
					}
					return nil, err
				}
				result = append(result, AncestorEntry{
					ItemID:   parent.ItemID,
					ItemCode: parent.ItemCode,
					ItemName: parent.ItemName,
					Distance: distance,
				})
				next = append(next, parent.ItemID)
			}
		}
		frontier = next
	}
	return result, nil
}
