package testing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/infrastructure/repositories/memory"
)

// Item ids used by the fixtures
const (
	ProductA entities.ItemID = 1
	MaterialB entities.ItemID = 2

	DiamondRoot entities.ItemID = 10
	DiamondSub1 entities.ItemID = 11
	DiamondSub2 entities.ItemID = 12
	DiamondLeaf entities.ItemID = 13
	DiamondBolt entities.ItemID = 14

	CoilC  entities.ItemID = 30
	BlankD entities.ItemID = 31
)

// Dec parses a decimal literal, panicking on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// NewItem builds an active item with the given stock and unit price
func NewItem(id entities.ItemID, code string, stock, price string) *entities.Item {
	return &entities.Item{
		ItemID:       id,
		ItemCode:     code,
		ItemName:     code + " 품목",
		Unit:         "EA",
		CurrentStock: Dec(stock),
		Price:        Dec(price),
		MaterialType: entities.MaterialOther,
		IsActive:     true,
	}
}

// NewEdge builds an active BOM edge, panicking on invalid input
func NewEdge(parent, child entities.ItemID, qty string) *entities.BOMEdge {
	edge, err := entities.NewBOMEdge(parent, child, Dec(qty), 1)
	if err != nil {
		panic(err)
	}
	return edge
}

// BuildSimpleProduction builds product A with one child B (2 per A) and the given B stock
func BuildSimpleProduction(bStock string) *memory.Store {
	store := memory.NewStore(2)
	mustLoad(store,
		[]*entities.Item{
			NewItem(ProductA, "A-PRODUCT", "0", "1000"),
			NewItem(MaterialB, "B-MATERIAL", bStock, "150"),
		},
		[]*entities.BOMEdge{
			NewEdge(ProductA, MaterialB, "2"),
		},
	)
	return store
}

// BuildDiamond builds a root with two sub-assemblies that share one leaf.
//
//	ROOT -2-> SUB1 -1-> LEAF
//	ROOT -3-> SUB2 -2-> LEAF
//	SUB1 -4-> BOLT
//
// For one ROOT: SUB1=2, SUB2=3, LEAF=2*1+3*2=8, BOLT=8.
func BuildDiamond() *memory.Store {
	store := memory.NewStore(5)
	mustLoad(store,
		[]*entities.Item{
			NewItem(DiamondRoot, "ROOT", "0", "0"),
			NewItem(DiamondSub1, "SUB1", "100", "20"),
			NewItem(DiamondSub2, "SUB2", "100", "30"),
			NewItem(DiamondLeaf, "LEAF", "1000", "2.5"),
			NewItem(DiamondBolt, "BOLT", "1000", "0.1"),
		},
		[]*entities.BOMEdge{
			NewEdge(DiamondRoot, DiamondSub1, "2"),
			NewEdge(DiamondRoot, DiamondSub2, "3"),
			NewEdge(DiamondSub1, DiamondLeaf, "1"),
			NewEdge(DiamondSub2, DiamondLeaf, "2"),
			NewEdge(DiamondSub1, DiamondBolt, "4"),
		},
	)
	return store
}

// BuildCoil builds coil C (120 kg in stock, 5 kg per piece) and blank D
func BuildCoil() *memory.Store {
	store := memory.NewStore(2)
	coil := NewItem(CoilC, "C-COIL", "120", "1200")
	coil.Unit = "KG"
	coil.MaterialType = entities.MaterialCoil
	blank := NewItem(BlankD, "D-BLANK", "0", "300")
	blank.MaterialType = entities.MaterialSheet
	mustLoad(store, []*entities.Item{coil, blank}, nil)

	if err := store.SaveCoilSpec(context.Background(), &entities.CoilSpec{
		ItemID:         CoilC,
		WeightPerPiece: Dec("5"),
		Thickness:      Dec("1.2"),
		Width:          Dec("1219"),
		MaterialGrade:  "SPCC",
	}); err != nil {
		panic(err)
	}
	return store
}

func mustLoad(store *memory.Store, items []*entities.Item, edges []*entities.BOMEdge) {
	if err := store.LoadItems(items); err != nil {
		panic(err)
	}
	if err := store.LoadBOMEdges(edges); err != nil {
		panic(err)
	}
}
