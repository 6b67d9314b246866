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

func (s *Store) GetOperation(ctx context.Context, id string) (*entities.OperationRecord, error) {
	return getOperation(s.db.WithContext(ctx), id)
}

func getOperation(db *gorm.DB, id string) (*entities.OperationRecord, error) {
	var m OperationModel
	err := db.Where("operation_id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", entities.ErrOperationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation %s: %w", id, err)
	}
	return m.toEntity(), nil
}

func (s *Store) SaveOperation(ctx context.Context, op *entities.OperationRecord) error {
	return saveOperation(s.db.WithContext(ctx), op)
}

func saveOperation(db *gorm.DB, op *entities.OperationRecord) error {
	if op.OperationID == "" {
		return fmt.Errorf("operation id cannot be empty")
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "operation_id"}},
		UpdateAll: true,
	}).Create(newOperationModel(op)).Error
	if err != nil {
		return fmt.Errorf("failed to save operation %s: %w", op.OperationID, err)
	}
	return nil
}

func (s *Store) FindOperations(ctx context.Context, query repositories.OperationQuery) ([]*entities.OperationRecord, error) {
	db := s.db.WithContext(ctx).Model(&OperationModel{})
	if query.InputItemID != 0 {
		db = db.Where("input_item_id = ?", int64(query.InputItemID))
	}
	if query.OutputItemID != 0 {
		db = db.Where("output_item_id = ?", int64(query.OutputItemID))
	}
	if query.OperationType != "" {
		db = db.Where("operation_type = ?", string(query.OperationType))
	}
	if query.Status != "" {
		db = db.Where("status = ?", string(query.Status))
	}

	var models []OperationModel
	if err := db.Order("created_at, operation_id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find operations: %w", err)
	}
	ops := make([]*entities.OperationRecord, 0, len(models))
	for i := range models {
		ops = append(ops, models[i].toEntity())
	}
	return ops, nil
}

func (s *Store) GetDeductions(ctx context.Context, operationID string) ([]*entities.DeductionRecord, error) {
	var models []DeductionModel
	if err := s.db.WithContext(ctx).
		Where("operation_id = ?", operationID).
		Order("id").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get deductions for %s: %w", operationID, err)
	}
	records := make([]*entities.DeductionRecord, 0, len(models))
	for i := range models {
		records = append(records, models[i].toEntity())
	}
	return records, nil
}
