package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithinTx runs fn inside one database transaction. Rows locked through
// LockItems and LockOperation stay locked until commit or rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repositories.StockTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&pgTx{Store: &Store{db: gtx}, db: gtx})
	})
}

type pgTx struct {
	*Store
	db *gorm.DB
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

// LockItems takes row locks in item_id order so concurrent transactions
// touching overlapping items cannot deadlock.
func (t *pgTx) LockItems(ctx context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error) {
	unique := make(map[entities.ItemID]bool, len(ids))
	sorted := make([]entities.ItemID, 0, len(ids))
	for _, id := range ids {
		if !unique[id] {
			unique[id] = true
			sorted = append(sorted, id)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var models []ItemModel
	if err := t.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("item_id IN ? AND is_active = ?", toInt64s(sorted), true).
		Order("item_id").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to lock items: %w", err)
	}

	result := make(map[entities.ItemID]*entities.Item, len(models))
	for i := range models {
		item := models[i].toEntity()
		result[item.ItemID] = item
	}
	for _, id := range sorted {
		if _, ok := result[id]; !ok {
			return nil, &entities.ItemNotFoundError{ItemID: id}
		}
	}
	return result, nil
}

func (t *pgTx) SetStock(ctx context.Context, id entities.ItemID, stock decimal.Decimal) error {
	if stock.IsNegative() {
		return fmt.Errorf("stock for item %d cannot be negative, got %s", id, stock)
	}
	result := t.db.WithContext(ctx).
		Model(&ItemModel{}).
		Where("item_id = ?", int64(id)).
		Update("current_stock", stock)
	if result.Error != nil {
		return fmt.Errorf("failed to update stock for item %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &entities.ItemNotFoundError{ItemID: id}
	}
	return nil
}

func (t *pgTx) LockOperation(ctx context.Context, id string) (*entities.OperationRecord, error) {
	return getOperation(t.db.WithContext(ctx).Clauses(forUpdate), id)
}

func (t *pgTx) CreateDeductions(ctx context.Context, records []*entities.DeductionRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]DeductionModel, 0, len(records))
	for _, r := range records {
		models = append(models, DeductionModel{
			OperationID:      r.OperationID,
			ItemID:           int64(r.ItemID),
			ItemCode:         r.ItemCode,
			DeductedQuantity: r.DeductedQuantity,
			StockBefore:      r.StockBefore,
			StockAfter:       r.StockAfter,
			CreatedAt:        r.CreatedAt,
		})
	}
	if err := t.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to create deductions: %w", err)
	}
	return nil
}

// IsSerializationFailure reports whether err is a PostgreSQL lock or
// serialization conflict that the caller may retry.
func IsSerializationFailure(err error) bool {
	var coded interface{ SQLState() string }
	if !errors.As(err, &coded) {
		return false
	}
	switch coded.SQLState() {
	case "40001", "40P01":
		return true
	}
	return false
}
