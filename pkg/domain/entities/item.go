package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemID is the primary key of an item in the catalog
type ItemID int64

// MaterialType classifies raw materials for process planning
type MaterialType string

const (
	MaterialCoil  MaterialType = "COIL"
	MaterialSheet MaterialType = "SHEET"
	MaterialOther MaterialType = "OTHER"
)

// ParseMaterialType normalizes a material type string, defaulting to OTHER when empty
func ParseMaterialType(s string) (MaterialType, error) {
	switch MaterialType(strings.ToUpper(strings.TrimSpace(s))) {
	case MaterialCoil:
		return MaterialCoil, nil
	case MaterialSheet:
		return MaterialSheet, nil
	case MaterialOther, "":
		return MaterialOther, nil
	default:
		return "", fmt.Errorf("unknown material type: %s", s)
	}
}

// Item represents a material or product in the item master
type Item struct {
	ItemID        ItemID
	ItemCode      string
	ItemName      string
	Unit          string
	CurrentStock  decimal.Decimal
	Price         decimal.Decimal
	MaterialType  MaterialType
	CoatingStatus string
	IsActive      bool
	Attributes    map[string]any
}

// Validate checks the item master invariants
func (i *Item) Validate() error {
	if i.ItemID <= 0 {
		return fmt.Errorf("item id must be positive, got %d", i.ItemID)
	}
	if strings.TrimSpace(i.ItemCode) == "" {
		return fmt.Errorf("item code cannot be empty")
	}
	if i.CurrentStock.IsNegative() {
		return fmt.Errorf("current stock cannot be negative, got %s", i.CurrentStock)
	}
	if i.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative, got %s", i.Price)
	}
	if _, err := ParseMaterialType(string(i.MaterialType)); err != nil {
		return err
	}
	return nil
}

// Clone returns a copy that shares no mutable state with the receiver
func (i *Item) Clone() *Item {
	c := *i
	if i.Attributes != nil {
		c.Attributes = make(map[string]any, len(i.Attributes))
		for k, v := range i.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

// CoilSpec holds the physical attributes of coiled raw material
type CoilSpec struct {
	ItemID         ItemID
	WeightPerPiece decimal.Decimal
	Thickness      decimal.Decimal
	Width          decimal.Decimal
	Length         decimal.Decimal
	MaterialGrade  string
}
