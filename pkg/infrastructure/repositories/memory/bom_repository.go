package memory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/taechang/production-core/pkg/domain/entities"
)

// LoadBOMEdges loads BOM edges into the store
func (s *Store) LoadBOMEdges(edges []*entities.BOMEdge) error {
	for _, edge := range edges {
		if err := s.SaveEdge(context.Background(), edge); err != nil {
			return err
		}
	}
	return nil
}

// SaveEdge inserts a new edge, or replaces the edge with the same BOMID.
// A zero BOMID is assigned the next free id.
func (s *Store) SaveEdge(_ context.Context, edge *entities.BOMEdge) error {
	if err := edge.Validate(); err != nil {
		return fmt.Errorf("invalid BOM edge: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if edge.BOMID == 0 {
		s.nextBOMID++
		edge.BOMID = s.nextBOMID
	} else if edge.BOMID > s.nextBOMID {
		s.nextBOMID = edge.BOMID
	}

	c := *edge
	for i, existing := range s.edges {
		if existing.BOMID == edge.BOMID {
			if existing.ParentItemID != edge.ParentItemID || existing.ChildItemID != edge.ChildItemID {
				return fmt.Errorf("BOM edge %d cannot change its parent or child", edge.BOMID)
			}
			s.edges[i] = &c
			s.revision++
			return nil
		}
	}

	index := len(s.edges)
	s.edges = append(s.edges, &c)
	s.byParent[edge.ParentItemID] = append(s.byParent[edge.ParentItemID], index)
	s.byChild[edge.ChildItemID] = append(s.byChild[edge.ChildItemID], index)
	s.revision++
	return nil
}

// DeactivateEdge soft-deletes an edge
func (s *Store) DeactivateEdge(_ context.Context, bomID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, edge := range s.edges {
		if edge.BOMID == bomID {
			edge.IsActive = false
			s.revision++
			return nil
		}
	}
	return fmt.Errorf("BOM edge %d: %w", bomID, entities.ErrNotFound)
}

// GetChildEdges returns the active edges whose parent is the given item
func (s *Store) GetChildEdges(_ context.Context, parentID entities.ItemID) ([]*entities.BOMEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(s.byParent[parentID]), nil
}

// GetParentEdges returns the active edges whose child is the given item
func (s *Store) GetParentEdges(_ context.Context, childID entities.ItemID) ([]*entities.BOMEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(s.byChild[childID]), nil
}

// GetAllEdges returns every active edge
func (s *Store) GetAllEdges(_ context.Context) ([]*entities.BOMEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]*entities.BOMEdge, 0, len(s.edges))
	for _, edge := range s.edges {
		if edge.IsActive {
			c := *edge
			edges = append(edges, &c)
		}
	}
	return edges, nil
}

func (s *Store) collectLocked(indexes []int) []*entities.BOMEdge {
	edges := make([]*entities.BOMEdge, 0, len(indexes))
	for _, index := range indexes {
		edge := s.edges[index]
		if edge.IsActive {
			c := *edge
			edges = append(edges, &c)
		}
	}
	return edges
}

// BOMRevision changes whenever an item master record or a BOM edge is written
func (s *Store) BOMRevision(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strconv.FormatInt(s.revision, 10), nil
}
