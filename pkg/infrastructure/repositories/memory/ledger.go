package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
)

// WithinTx runs fn against a staged view of the store.
// Transactions are serialized, so a locked item cannot change under the callback.
// Staged writes are applied only when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repositories.StockTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memoryTx{
		store:  s,
		stocks: make(map[entities.ItemID]decimal.Decimal),
		locked: make(map[entities.ItemID]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memoryTx struct {
	store      *Store
	stocks     map[entities.ItemID]decimal.Decimal
	locked     map[entities.ItemID]bool
	operations []*entities.OperationRecord
	deductions []*entities.DeductionRecord
}

func (t *memoryTx) GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	item, err := t.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if stock, staged := t.stocks[id]; staged {
		item.CurrentStock = stock
	}
	return item, nil
}

func (t *memoryTx) GetChildEdges(ctx context.Context, parentID entities.ItemID) ([]*entities.BOMEdge, error) {
	return t.store.GetChildEdges(ctx, parentID)
}

func (t *memoryTx) LockItems(ctx context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error) {
	sorted := append([]entities.ItemID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	result := make(map[entities.ItemID]*entities.Item, len(sorted))
	for _, id := range sorted {
		item, err := t.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		t.locked[id] = true
		result[id] = item
	}
	return result, nil
}

func (t *memoryTx) SetStock(_ context.Context, id entities.ItemID, stock decimal.Decimal) error {
	if !t.locked[id] {
		return fmt.Errorf("item %d is not locked in this transaction", id)
	}
	if stock.IsNegative() {
		return fmt.Errorf("stock for item %d cannot be negative, got %s", id, stock)
	}
	t.stocks[id] = stock
	return nil
}

func (t *memoryTx) LockOperation(ctx context.Context, id string) (*entities.OperationRecord, error) {
	for i := len(t.operations) - 1; i >= 0; i-- {
		if t.operations[i].OperationID == id {
			return t.operations[i].Clone(), nil
		}
	}
	return t.store.GetOperation(ctx, id)
}

func (t *memoryTx) SaveOperation(_ context.Context, op *entities.OperationRecord) error {
	if op.OperationID == "" {
		return fmt.Errorf("operation id cannot be empty")
	}
	t.operations = append(t.operations, op.Clone())
	return nil
}

func (t *memoryTx) CreateDeductions(_ context.Context, records []*entities.DeductionRecord) error {
	for _, record := range records {
		c := *record
		t.deductions = append(t.deductions, &c)
	}
	return nil
}

func (t *memoryTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, stock := range t.stocks {
		if item, exists := s.items[id]; exists {
			item.CurrentStock = stock
		}
	}
	for _, op := range t.operations {
		s.putOperationLocked(op)
	}
	for _, record := range t.deductions {
		s.deductions[record.OperationID] = append(s.deductions[record.OperationID], record)
	}
}
