package bom

import (
	"context"
	"fmt"
	"testing"

	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/taechang/production-core/pkg/infrastructure/testing"
)

// setupDeepBOM builds a chain LEVEL_0 -> LEVEL_1 -> ... of the given depth
func setupDeepBOM(depth int) *memory.Store {
	store := memory.NewStore(depth + 1)
	items := make([]*entities.Item, 0, depth+1)
	edges := make([]*entities.BOMEdge, 0, depth)
	for i := 0; i <= depth; i++ {
		id := entities.ItemID(i + 1)
		items = append(items, testhelpers.NewItem(id, fmt.Sprintf("LEVEL_%d", i), "1000", "1"))
		if i > 0 {
			edges = append(edges, testhelpers.NewEdge(id-1, id, "2"))
		}
	}
	if err := store.LoadItems(items); err != nil {
		panic(err)
	}
	if err := store.LoadBOMEdges(edges); err != nil {
		panic(err)
	}
	return store
}

// setupWideBOM builds TOP with width children, each sharing one common leaf
func setupWideBOM(width int) *memory.Store {
	store := memory.NewStore(width + 2)
	top := entities.ItemID(1)
	leaf := entities.ItemID(width + 2)
	items := []*entities.Item{
		testhelpers.NewItem(top, "TOP_ASSEMBLY", "0", "0"),
		testhelpers.NewItem(leaf, "COMMON_LEAF", "1000", "0.5"),
	}
	var edges []*entities.BOMEdge
	for i := 0; i < width; i++ {
		child := entities.ItemID(i + 2)
		items = append(items, testhelpers.NewItem(child, fmt.Sprintf("CHILD_%d", i), "10", "3"))
		edges = append(edges,
			testhelpers.NewEdge(top, child, "1"),
			testhelpers.NewEdge(child, leaf, "4"),
		)
	}
	if err := store.LoadItems(items); err != nil {
		panic(err)
	}
	if err := store.LoadBOMEdges(edges); err != nil {
		panic(err)
	}
	return store
}

func BenchmarkResolver_Diamond(b *testing.B) {
	ctx := context.Background()
	store := testhelpers.BuildDiamond()
	resolver := NewResolver(store, store, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := resolver.Explode(ctx, testhelpers.DiamondRoot, testhelpers.Dec("10")); err != nil {
			b.Fatalf("Explode failed: %v", err)
		}
	}
}

func BenchmarkResolver_DeepBOM(b *testing.B) {
	ctx := context.Background()
	store := setupDeepBOM(40) // under the default depth cap
	resolver := NewResolver(store, store, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := resolver.Explode(ctx, 1, testhelpers.Dec("1")); err != nil {
			b.Fatalf("Explode failed: %v", err)
		}
	}
}

func BenchmarkResolver_WideBOM(b *testing.B) {
	ctx := context.Background()
	store := setupWideBOM(200)
	resolver := NewResolver(store, store, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := resolver.Explode(ctx, 1, testhelpers.Dec("3")); err != nil {
			b.Fatalf("Explode failed: %v", err)
		}
	}
}

func BenchmarkResolver_Cached(b *testing.B) {
	ctx := context.Background()
	store := setupWideBOM(200)
	resolver := NewResolver(store, store, nil)
	resolver.SetCache(NewMemoryCache())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := resolver.Explode(ctx, 1, testhelpers.Dec("3")); err != nil {
			b.Fatalf("Explode failed: %v", err)
		}
	}
}
