package entities

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestItem_Validation(t *testing.T) {
	valid := Item{
		ItemID:       1,
		ItemCode:     "TC-100",
		ItemName:     "브래킷",
		Unit:         "EA",
		CurrentStock: decimal.NewFromInt(10),
		Price:        decimal.NewFromInt(1500),
		MaterialType: MaterialOther,
		IsActive:     true,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid item: %v", err)
	}

	testCases := []struct {
		name        string
		mutate      func(i *Item)
		expectError string
	}{
		{"zero id", func(i *Item) { i.ItemID = 0 }, "item id must be positive, got 0"},
		{"empty code", func(i *Item) { i.ItemCode = "  " }, "item code cannot be empty"},
		{"negative stock", func(i *Item) { i.CurrentStock = decimal.NewFromInt(-1) }, "current stock cannot be negative, got -1"},
		{"negative price", func(i *Item) { i.Price = decimal.NewFromInt(-2) }, "price cannot be negative, got -2"},
		{"bad material", func(i *Item) { i.MaterialType = "PLASTIC" }, "unknown material type: PLASTIC"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := valid
			tc.mutate(&item)
			err := item.Validate()
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestParseMaterialType(t *testing.T) {
	tests := []struct {
		in   string
		want MaterialType
	}{
		{"coil", MaterialCoil},
		{" SHEET ", MaterialSheet},
		{"", MaterialOther},
		{"other", MaterialOther},
	}
	for _, tt := range tests {
		got, err := ParseMaterialType(tt.in)
		if err != nil {
			t.Fatalf("ParseMaterialType(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMaterialType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestItem_CloneIsIndependent(t *testing.T) {
	item := &Item{ItemID: 1, ItemCode: "C", Attributes: map[string]any{"thickness": "1.2"}}
	clone := item.Clone()
	clone.Attributes["thickness"] = "2.0"
	clone.CurrentStock = decimal.NewFromInt(9)

	if item.Attributes["thickness"] != "1.2" {
		t.Errorf("Expected original attributes untouched, got %v", item.Attributes["thickness"])
	}
	if !item.CurrentStock.IsZero() {
		t.Errorf("Expected original stock untouched, got %s", item.CurrentStock)
	}
}

func TestItemNotFoundError_IsNotFound(t *testing.T) {
	var err error = &ItemNotFoundError{ItemID: 42}
	if !errors.Is(err, ErrNotFound) {
		t.Error("Expected ItemNotFoundError to match ErrNotFound")
	}
	if err.Error() != "item not found or inactive: 42" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}
