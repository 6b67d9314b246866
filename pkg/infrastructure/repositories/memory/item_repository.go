package memory

import (
	"context"
	"fmt"

	"github.com/taechang/production-core/pkg/domain/entities"
)

// LoadItems loads items into the store
func (s *Store) LoadItems(items []*entities.Item) error {
	for _, item := range items {
		if err := s.SaveItem(context.Background(), item); err != nil {
			return err
		}
	}
	return nil
}

// SaveItem inserts an item with its opening stock, or replaces the master data
// of an existing item. The stock of an existing item is kept: only the ledger moves it.
func (s *Store) SaveItem(_ context.Context, item *entities.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid item %d: %w", item.ItemID, err)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	c := item.Clone()
	if existing, ok := s.items[item.ItemID]; ok {
		c.CurrentStock = existing.CurrentStock
	}
	s.items[item.ItemID] = c
	s.revision++
	return nil
}

// GetItem returns an active item
func (s *Store) GetItem(_ context.Context, id entities.ItemID) (*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getItemLocked(id)
}

func (s *Store) getItemLocked(id entities.ItemID) (*entities.Item, error) {
	item, exists := s.items[id]
	if !exists || !item.IsActive {
		return nil, &entities.ItemNotFoundError{ItemID: id}
	}
	return item.Clone(), nil
}

// GetItems returns the requested active items keyed by id
func (s *Store) GetItems(_ context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[entities.ItemID]*entities.Item, len(ids))
	for _, id := range ids {
		item, err := s.getItemLocked(id)
		if err != nil {
			return nil, err
		}
		result[id] = item
	}
	return result, nil
}

// GetCoilSpecs returns the coil specifications registered for an item
func (s *Store) GetCoilSpecs(_ context.Context, itemID entities.ItemID) ([]*entities.CoilSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	specs := make([]*entities.CoilSpec, 0, len(s.coilSpecs[itemID]))
	for _, spec := range s.coilSpecs[itemID] {
		c := *spec
		specs = append(specs, &c)
	}
	return specs, nil
}

// SaveCoilSpec appends a coil specification for an item
func (s *Store) SaveCoilSpec(_ context.Context, spec *entities.CoilSpec) error {
	if spec.ItemID <= 0 {
		return fmt.Errorf("coil spec item id must be positive, got %d", spec.ItemID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *spec
	s.coilSpecs[spec.ItemID] = append(s.coilSpecs[spec.ItemID], &c)
	return nil
}
