package repositories

import (
	"context"

	"github.com/taechang/production-core/pkg/domain/entities"
)

// OperationQuery filters historical operation records
type OperationQuery struct {
	InputItemID   entities.ItemID
	OutputItemID  entities.ItemID
	OperationType entities.OperationType
	Status        entities.OperationStatus
}

// OperationRepository stores operation records outside of stock transactions.
// Status changes that move stock go through StockTx instead.
type OperationRepository interface {
	GetOperation(ctx context.Context, id string) (*entities.OperationRecord, error)
	SaveOperation(ctx context.Context, op *entities.OperationRecord) error
	FindOperations(ctx context.Context, query OperationQuery) ([]*entities.OperationRecord, error)
	GetDeductions(ctx context.Context, operationID string) ([]*entities.DeductionRecord, error)
}
