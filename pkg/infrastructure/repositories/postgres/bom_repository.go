package postgres

import (
	"context"
	"fmt"

	"github.com/taechang/production-core/pkg/domain/entities"
)

func (s *Store) GetChildEdges(ctx context.Context, parentID entities.ItemID) ([]*entities.BOMEdge, error) {
	return s.findEdges(ctx, "parent_item_id = ? AND is_active = ?", int64(parentID), true)
}

func (s *Store) GetParentEdges(ctx context.Context, childID entities.ItemID) ([]*entities.BOMEdge, error) {
	return s.findEdges(ctx, "child_item_id = ? AND is_active = ?", int64(childID), true)
}

func (s *Store) GetAllEdges(ctx context.Context) ([]*entities.BOMEdge, error) {
	return s.findEdges(ctx, "is_active = ?", true)
}

func (s *Store) findEdges(ctx context.Context, query string, args ...any) ([]*entities.BOMEdge, error) {
	var models []BOMModel
	if err := s.db.WithContext(ctx).Where(query, args...).Order("bom_id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query BOM: %w", err)
	}
	edges := make([]*entities.BOMEdge, 0, len(models))
	for i := range models {
		edges = append(edges, models[i].toEntity())
	}
	return edges, nil
}

// SaveEdge inserts an edge (assigning BOMID) or updates the edge with the given BOMID
func (s *Store) SaveEdge(ctx context.Context, edge *entities.BOMEdge) error {
	if err := edge.Validate(); err != nil {
		return fmt.Errorf("invalid BOM edge: %w", err)
	}
	m := newBOMModel(edge)
	db := s.db.WithContext(ctx)
	if m.BOMID == 0 {
		if err := db.Create(m).Error; err != nil {
			return fmt.Errorf("failed to create BOM edge: %w", err)
		}
		edge.BOMID = m.BOMID
		return nil
	}
	if err := db.Save(m).Error; err != nil {
		return fmt.Errorf("failed to save BOM edge %d: %w", m.BOMID, err)
	}
	return nil
}

func (s *Store) DeactivateEdge(ctx context.Context, bomID int64) error {
	result := s.db.WithContext(ctx).
		Model(&BOMModel{}).
		Where("bom_id = ?", bomID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate BOM edge %d: %w", bomID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("BOM edge %d: %w", bomID, entities.ErrNotFound)
	}
	return nil
}

// revisionQuery fingerprints the bom and items tables. Every gorm write bumps
// updated_at, and row counts catch hard deletes.
const revisionQuery = `SELECT concat_ws(':',
	(SELECT count(*) FROM bom),
	(SELECT count(*) FROM bom WHERE is_active),
	(SELECT coalesce(extract(epoch FROM max(updated_at)), 0) FROM bom),
	(SELECT count(*) FROM items),
	(SELECT count(*) FROM items WHERE is_active),
	(SELECT coalesce(extract(epoch FROM max(updated_at)), 0) FROM items))`

func (s *Store) BOMRevision(ctx context.Context) (string, error) {
	var revision string
	if err := s.db.WithContext(ctx).Raw(revisionQuery).Scan(&revision).Error; err != nil {
		return "", fmt.Errorf("failed to read BOM revision: %w", err)
	}
	return revision, nil
}
