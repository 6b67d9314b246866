package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BOMEdge is one parent -> child line of the product structure.
// QuantityRequired is the child quantity consumed per one unit of parent.
type BOMEdge struct {
	BOMID            int64
	ParentItemID     ItemID
	ChildItemID      ItemID
	QuantityRequired decimal.Decimal
	LevelNo          int
	LaborCost        decimal.Decimal
	MachineTime      decimal.Decimal
	SetupTime        decimal.Decimal
	Notes            string
	IsActive         bool
}

// NewBOMEdge creates a validated, active BOMEdge
func NewBOMEdge(parentID, childID ItemID, qtyRequired decimal.Decimal, levelNo int) (*BOMEdge, error) {
	edge := &BOMEdge{
		ParentItemID:     parentID,
		ChildItemID:      childID,
		QuantityRequired: qtyRequired,
		LevelNo:          levelNo,
		IsActive:         true,
	}
	if err := edge.Validate(); err != nil {
		return nil, err
	}
	return edge, nil
}

// Validate checks the edge invariants that can be verified without the rest of the graph
func (e *BOMEdge) Validate() error {
	if e.ParentItemID <= 0 {
		return fmt.Errorf("parent item id must be positive, got %d", e.ParentItemID)
	}
	if e.ChildItemID <= 0 {
		return fmt.Errorf("child item id must be positive, got %d", e.ChildItemID)
	}
	if e.ParentItemID == e.ChildItemID {
		return fmt.Errorf("parent and child items cannot be the same: %d", e.ParentItemID)
	}
	if !e.QuantityRequired.IsPositive() {
		return fmt.Errorf("quantity required must be positive, got %s", e.QuantityRequired)
	}
	if e.LevelNo < 1 {
		return fmt.Errorf("level number must be at least 1, got %d", e.LevelNo)
	}
	if e.LaborCost.IsNegative() {
		return fmt.Errorf("labor cost cannot be negative, got %s", e.LaborCost)
	}
	if e.MachineTime.IsNegative() {
		return fmt.Errorf("machine time cannot be negative, got %s", e.MachineTime)
	}
	if e.SetupTime.IsNegative() {
		return fmt.Errorf("setup time cannot be negative, got %s", e.SetupTime)
	}
	return nil
}
