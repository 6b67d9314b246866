package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
)

// StockLedger owns every mutation of Item.CurrentStock.
// WithinTx runs fn in one transaction: if fn returns an error nothing it wrote survives.
type StockLedger interface {
	WithinTx(ctx context.Context, fn func(tx StockTx) error) error
}

// StockTx is the transaction-scoped view handed to StockLedger.WithinTx callbacks
type StockTx interface {
	ItemReader
	EdgeReader

	// LockItems locks the rows for the given items (in ascending id order) and
	// returns their current state. Missing or inactive items yield *entities.ItemNotFoundError.
	LockItems(ctx context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error)

	// SetStock writes a new stock level for an item locked in this transaction.
	// Negative levels are rejected.
	SetStock(ctx context.Context, id entities.ItemID, stock decimal.Decimal) error

	// LockOperation locks and returns an operation record so that concurrent
	// status changes of the same operation are serialized.
	LockOperation(ctx context.Context, id string) (*entities.OperationRecord, error)

	SaveOperation(ctx context.Context, op *entities.OperationRecord) error
	CreateDeductions(ctx context.Context, records []*entities.DeductionRecord) error
}
