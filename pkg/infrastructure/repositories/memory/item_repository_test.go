package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
)

func newItem(id entities.ItemID, code string, stock int64) *entities.Item {
	return &entities.Item{
		ItemID:       id,
		ItemCode:     code,
		ItemName:     code,
		Unit:         "EA",
		CurrentStock: decimal.NewFromInt(stock),
		Price:        decimal.NewFromInt(10),
		MaterialType: entities.MaterialOther,
		IsActive:     true,
	}
}

func TestStore_SaveAndGetItem(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10)

	item := newItem(1, "TEST_PART", 5)
	item.Attributes = map[string]any{"color": "red"}
	if err := store.SaveItem(ctx, item); err != nil {
		t.Fatalf("Failed to save item: %v", err)
	}

	// Mutating the caller's copy must not leak into the store
	item.CurrentStock = decimal.NewFromInt(99)
	item.Attributes["color"] = "blue"

	retrieved, err := store.GetItem(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if !retrieved.CurrentStock.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected stock 5, got %s", retrieved.CurrentStock)
	}
	if retrieved.Attributes["color"] != "red" {
		t.Errorf("Expected attribute red, got %v", retrieved.Attributes["color"])
	}
}

func TestStore_SaveItemKeepsStock(t *testing.T) {
	ctx := context.Background()
	store := NewStore(1)
	if err := store.SaveItem(ctx, newItem(1, "PART", 50)); err != nil {
		t.Fatal(err)
	}

	reloaded := newItem(1, "PART-V2", 999)
	reloaded.Price = decimal.NewFromInt(175)
	if err := store.SaveItem(ctx, reloaded); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetItem(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CurrentStock.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected stock to stay 50, got %s", got.CurrentStock)
	}
	if got.ItemCode != "PART-V2" || !got.Price.Equal(decimal.NewFromInt(175)) {
		t.Errorf("Expected master data to be replaced, got %+v", got)
	}
}

func TestStore_SaveItem_Invalid(t *testing.T) {
	store := NewStore(1)
	item := newItem(1, "BAD", -1)
	if err := store.SaveItem(context.Background(), item); err == nil {
		t.Error("Expected negative stock to be rejected")
	}
}

func TestStore_GetItem_MissingOrInactive(t *testing.T) {
	ctx := context.Background()
	store := NewStore(2)
	inactive := newItem(2, "OLD", 0)
	inactive.IsActive = false
	if err := store.LoadItems([]*entities.Item{inactive}); err != nil {
		t.Fatal(err)
	}

	for _, id := range []entities.ItemID{1, 2} {
		_, err := store.GetItem(ctx, id)
		var notFound *entities.ItemNotFoundError
		if !errors.As(err, &notFound) || notFound.ItemID != id {
			t.Errorf("item %d: expected ItemNotFoundError, got %v", id, err)
		}
		if !errors.Is(err, entities.ErrNotFound) {
			t.Errorf("item %d: expected error to wrap ErrNotFound", id)
		}
	}
}

func TestStore_GetItems(t *testing.T) {
	ctx := context.Background()
	store := NewStore(2)
	if err := store.LoadItems([]*entities.Item{newItem(1, "A", 1), newItem(2, "B", 2)}); err != nil {
		t.Fatal(err)
	}

	items, err := store.GetItems(ctx, []entities.ItemID{1, 2})
	if err != nil {
		t.Fatalf("GetItems failed: %v", err)
	}
	if len(items) != 2 || items[2].ItemCode != "B" {
		t.Errorf("unexpected items: %+v", items)
	}

	if _, err := store.GetItems(ctx, []entities.ItemID{1, 3}); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestStore_CoilSpecs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(1)
	spec := &entities.CoilSpec{ItemID: 30, WeightPerPiece: decimal.NewFromInt(5), MaterialGrade: "SPCC"}
	if err := store.SaveCoilSpec(ctx, spec); err != nil {
		t.Fatalf("SaveCoilSpec failed: %v", err)
	}

	specs, err := store.GetCoilSpecs(ctx, 30)
	if err != nil || len(specs) != 1 || specs[0].MaterialGrade != "SPCC" {
		t.Errorf("unexpected specs: %+v (%v)", specs, err)
	}
	if specs, _ := store.GetCoilSpecs(ctx, 31); len(specs) != 0 {
		t.Errorf("Expected no specs for item 31, got %d", len(specs))
	}
}
