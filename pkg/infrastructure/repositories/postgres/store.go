package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements every production core repository on PostgreSQL
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open gorm connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Verify interface compliance
var (
	_ repositories.ItemRepository      = (*Store)(nil)
	_ repositories.BOMRepository       = (*Store)(nil)
	_ repositories.CoilSpecRepository  = (*Store)(nil)
	_ repositories.OperationRepository = (*Store)(nil)
	_ repositories.StockLedger         = (*Store)(nil)
)

func (s *Store) GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	var m ItemModel
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND is_active = ?", int64(id), true).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &entities.ItemNotFoundError{ItemID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return m.toEntity(), nil
}

func (s *Store) GetItems(ctx context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error) {
	result := make(map[entities.ItemID]*entities.Item, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []ItemModel
	if err := s.db.WithContext(ctx).
		Where("item_id IN ? AND is_active = ?", toInt64s(ids), true).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	for i := range models {
		item := models[i].toEntity()
		result[item.ItemID] = item
	}
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			return nil, &entities.ItemNotFoundError{ItemID: id}
		}
	}
	return result, nil
}

// masterColumns are overwritten when an existing item is saved again.
// current_stock is left out: only the ledger moves stock.
var masterColumns = []string{
	"item_code", "item_name", "unit", "price", "material_type",
	"coating_status", "is_active", "attributes", "updated_at",
}

// SaveItem inserts an item with its opening stock or updates the master data of an existing one
func (s *Store) SaveItem(ctx context.Context, item *entities.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid item %d: %w", item.ItemID, err)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns(masterColumns),
		}).
		Create(newItemModel(item)).Error
	if err != nil {
		return fmt.Errorf("failed to save item %d: %w", item.ItemID, err)
	}
	return nil
}

func (s *Store) GetCoilSpecs(ctx context.Context, itemID entities.ItemID) ([]*entities.CoilSpec, error) {
	var models []CoilSpecModel
	if err := s.db.WithContext(ctx).
		Where("item_id = ?", int64(itemID)).
		Order("id").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get coil specs for item %d: %w", itemID, err)
	}
	specs := make([]*entities.CoilSpec, 0, len(models))
	for _, m := range models {
		specs = append(specs, &entities.CoilSpec{
			ItemID:         entities.ItemID(m.ItemID),
			WeightPerPiece: m.WeightPerPiece,
			Thickness:      m.Thickness,
			Width:          m.Width,
			Length:         m.Length,
			MaterialGrade:  m.MaterialGrade,
		})
	}
	return specs, nil
}

func (s *Store) SaveCoilSpec(ctx context.Context, spec *entities.CoilSpec) error {
	if spec.ItemID <= 0 {
		return fmt.Errorf("coil spec item id must be positive, got %d", spec.ItemID)
	}
	m := &CoilSpecModel{
		ItemID:         int64(spec.ItemID),
		WeightPerPiece: spec.WeightPerPiece,
		Thickness:      spec.Thickness,
		Width:          spec.Width,
		Length:         spec.Length,
		MaterialGrade:  spec.MaterialGrade,
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to save coil spec for item %d: %w", spec.ItemID, err)
	}
	return nil
}

func toInt64s(ids []entities.ItemID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
