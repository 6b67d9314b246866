package production

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/application/dto"
	"github.com/taechang/production-core/pkg/application/services/availability"
	"github.com/taechang/production-core/pkg/application/services/bom"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
	"github.com/taechang/production-core/pkg/infrastructure/events"
	"go.uber.org/zap"
)

// TxExploder explodes a BOM against transaction-scoped readers
type TxExploder interface {
	ExplodeWith(
		ctx context.Context,
		items repositories.ItemReader,
		edges repositories.EdgeReader,
		root entities.ItemID,
		quantity decimal.Decimal,
	) ([]bom.ExplosionLine, error)
}

// Service executes production and process operations against the stock ledger.
// Every stock movement of one operation commits together or not at all.
// Business failures are returned as-is and never retried.
type Service struct {
	ledger     repositories.StockLedger
	operations repositories.OperationRepository
	exploder   TxExploder
	eventStore events.EventStore
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a production service. eventStore may be nil.
func NewService(
	ledger repositories.StockLedger,
	operations repositories.OperationRepository,
	exploder TxExploder,
	eventStore events.EventStore,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:     ledger,
		operations: operations,
		exploder:   exploder,
		eventStore: eventStore,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock replaces the time source used for timestamps and lot numbers
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// outcome is what one committed stock movement produced
type outcome struct {
	deductions []*entities.DeductionRecord
	input      *entities.Item
	output     *entities.Item
}

// ExecuteProduction builds req.Quantity of a product in one transaction.
// With UseBOM the BOM is exploded again inside the transaction, every component
// is checked against locked stock and consumed; the product grows by
// quantity minus scrap.
func (s *Service) ExecuteProduction(ctx context.Context, req dto.ProductionRequest) (*dto.ProductionResult, error) {
	if !req.Quantity.IsPositive() {
		return nil, &entities.InvalidQuantityError{Field: "quantity", Value: req.Quantity}
	}
	if req.ScrapQuantity.IsNegative() || req.ScrapQuantity.GreaterThanOrEqual(req.Quantity) {
		return nil, fmt.Errorf("scrap quantity %s must be at least 0 and below quantity %s: %w",
			req.ScrapQuantity, req.Quantity,
			&entities.InvalidQuantityError{Field: "scrap_quantity", Value: req.ScrapQuantity})
	}

	op := s.newOperation(entities.OperationProduction)
	op.OutputItemID = req.ProductItemID
	op.InputQuantity = req.Quantity
	op.OutputQuantity = req.Quantity.Sub(req.ScrapQuantity)
	op.ScrapQuantity = req.ScrapQuantity
	op.UseBOM = req.UseBOM
	op.OperatorID = req.OperatorID
	op.Notes = req.Notes

	result, err := s.runImmediately(ctx, op)
	if err != nil {
		return nil, err
	}
	return &dto.ProductionResult{
		Operation:      result.op,
		AutoDeductions: result.deductions,
		ProductStock:   result.output.CurrentStock,
	}, nil
}

// QuickOperation records a process run that is created, started and completed in one step
func (s *Service) QuickOperation(ctx context.Context, req dto.QuickOperationRequest) (*dto.QuickOperationResult, error) {
	opType, err := entities.ParseOperationType(string(req.OperationType))
	if err != nil {
		return nil, err
	}
	op := s.newOperation(opType)
	op.InputItemID = req.InputItemID
	op.OutputItemID = req.OutputItemID
	op.InputQuantity = req.InputQuantity
	op.OutputQuantity = req.OutputQuantity
	op.OperatorID = req.OperatorID
	op.Notes = req.Notes

	result, err := s.runImmediately(ctx, op)
	if err != nil {
		return nil, err
	}

	quick := &dto.QuickOperationResult{
		LotNumber:  result.op.LotNumber,
		Efficiency: result.op.Efficiency,
		Operation:  result.op,
	}
	quick.CurrentStocks.Output = snapshot(result.output)
	if result.input != nil {
		quick.CurrentStocks.Input = snapshot(result.input)
	}
	return quick, nil
}

type immediateResult struct {
	outcome
	op *entities.OperationRecord
}

func (s *Service) runImmediately(ctx context.Context, op *entities.OperationRecord) (*immediateResult, error) {
	if err := s.validate(op); err != nil {
		return nil, err
	}
	if err := op.Start(s.now()); err != nil {
		return nil, err
	}

	var result immediateResult
	err := s.ledger.WithinTx(ctx, func(tx repositories.StockTx) error {
		out, err := s.moveStock(ctx, tx, op)
		if err != nil {
			return err
		}
		if err := op.Complete(s.now()); err != nil {
			return err
		}
		if err := tx.SaveOperation(ctx, op); err != nil {
			return fmt.Errorf("failed to save operation: %w", err)
		}
		if err := stampDeductions(ctx, tx, op, out.deductions); err != nil {
			return err
		}
		result.outcome = *out
		return nil
	})
	if err != nil {
		s.rejected(op, err)
		return nil, err
	}

	result.op = op.Clone()
	s.completed(result.op, &result.outcome)
	return &result, nil
}

// CreateOperation registers a PENDING operation. It checks the referenced items
// exist but moves no stock. OutputQuantity is the good output added on completion.
func (s *Service) CreateOperation(ctx context.Context, req dto.CreateOperationRequest) (*entities.OperationRecord, error) {
	opType, err := entities.ParseOperationType(string(req.OperationType))
	if err != nil {
		return nil, err
	}
	op := s.newOperation(opType)
	op.InputItemID = req.InputItemID
	op.OutputItemID = req.OutputItemID
	op.InputQuantity = req.InputQuantity
	op.OutputQuantity = req.OutputQuantity
	op.ScrapQuantity = req.ScrapQuantity
	op.UseBOM = req.UseBOM
	op.OperatorID = req.OperatorID
	op.Notes = req.Notes
	if err := s.validate(op); err != nil {
		return nil, err
	}

	err = s.ledger.WithinTx(ctx, func(tx repositories.StockTx) error {
		output, err := tx.GetItem(ctx, op.OutputItemID)
		if err != nil {
			return err
		}
		if op.InputItemID > 0 {
			input, err := tx.GetItem(ctx, op.InputItemID)
			if err != nil {
				return err
			}
			if !op.UseBOM && input.Unit == output.Unit {
				if err := checkScrap(op); err != nil {
					return err
				}
			}
		}
		return tx.SaveOperation(ctx, op)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("operation created",
		zap.String("operation_id", op.OperationID),
		zap.String("operation_type", string(op.OperationType)),
		zap.String("lot_number", op.LotNumber),
	)
	s.publish(events.NewOperationChangedEvent(events.OperationCreatedEvent, op))
	return op.Clone(), nil
}

// StartOperation moves a PENDING operation to IN_PROGRESS. Stock is not touched.
func (s *Service) StartOperation(ctx context.Context, id string) (*entities.OperationRecord, error) {
	op, err := s.transition(ctx, id, func(op *entities.OperationRecord) error {
		return op.Start(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(events.NewOperationChangedEvent(events.OperationStartedEvent, op))
	return op, nil
}

// CancelOperation moves a PENDING or IN_PROGRESS operation to CANCELLED. Stock is never touched.
func (s *Service) CancelOperation(ctx context.Context, id string) (*entities.OperationRecord, error) {
	op, err := s.transition(ctx, id, func(op *entities.OperationRecord) error {
		return op.Cancel(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("operation cancelled", zap.String("operation_id", op.OperationID))
	s.publish(events.NewOperationChangedEvent(events.OperationCancelledEvent, op))
	return op, nil
}

func (s *Service) transition(ctx context.Context, id string, change func(*entities.OperationRecord) error) (*entities.OperationRecord, error) {
	var updated *entities.OperationRecord
	err := s.ledger.WithinTx(ctx, func(tx repositories.StockTx) error {
		op, err := tx.LockOperation(ctx, id)
		if err != nil {
			return err
		}
		if err := change(op); err != nil {
			return err
		}
		if err := tx.SaveOperation(ctx, op); err != nil {
			return fmt.Errorf("failed to save operation: %w", err)
		}
		updated = op
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CompleteOperation applies the stock movement of an IN_PROGRESS operation using
// the quantities recorded when it was created.
func (s *Service) CompleteOperation(ctx context.Context, id string) (*dto.CompletionResult, error) {
	var (
		op  *entities.OperationRecord
		out *outcome
	)
	err := s.ledger.WithinTx(ctx, func(tx repositories.StockTx) error {
		locked, err := tx.LockOperation(ctx, id)
		if err != nil {
			return err
		}
		if !locked.CanTransition(entities.StatusCompleted) {
			return &entities.InvalidTransitionError{OperationID: id, From: locked.Status, To: entities.StatusCompleted}
		}
		op = locked

		out, err = s.moveStock(ctx, tx, op)
		if err != nil {
			return err
		}
		if err := op.Complete(s.now()); err != nil {
			return err
		}
		if err := tx.SaveOperation(ctx, op); err != nil {
			return fmt.Errorf("failed to save operation: %w", err)
		}
		return stampDeductions(ctx, tx, op, out.deductions)
	})
	if err != nil {
		if op != nil {
			s.rejected(op, err)
		}
		return nil, err
	}

	s.completed(op, out)
	return &dto.CompletionResult{
		Operation:   op.Clone(),
		Deductions:  out.deductions,
		OutputStock: out.output.CurrentStock,
	}, nil
}

// moveStock locks every affected item, re-checks availability against the
// locked stock and writes the new levels. It returns an InsufficientStockError
// listing every short item before writing anything.
func (s *Service) moveStock(ctx context.Context, tx repositories.StockTx, op *entities.OperationRecord) (*outcome, error) {
	lines, err := s.requirements(ctx, tx, op)
	if err != nil {
		return nil, err
	}

	ids := make([]entities.ItemID, 0, len(lines)+1)
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	ids = append(ids, op.OutputItemID)

	locked, err := tx.LockItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	stocks := make(map[entities.ItemID]decimal.Decimal, len(locked))
	for id, item := range locked {
		stocks[id] = item.CurrentStock
	}
	requirements, ok := availability.Evaluate(lines, stocks)
	if !ok {
		return nil, &entities.InsufficientStockError{Shortages: availability.Shortages(requirements)}
	}

	out := &outcome{deductions: make([]*entities.DeductionRecord, 0, len(lines))}
	for _, line := range lines {
		item := locked[line.ItemID]
		before := item.CurrentStock
		after := before.Sub(line.QuantityRequired)
		if err := tx.SetStock(ctx, item.ItemID, after); err != nil {
			return nil, fmt.Errorf("failed to deduct item %d: %w", item.ItemID, err)
		}
		item.CurrentStock = after
		out.deductions = append(out.deductions, &entities.DeductionRecord{
			ItemID:           item.ItemID,
			ItemCode:         item.ItemCode,
			DeductedQuantity: line.QuantityRequired,
			StockBefore:      before,
			StockAfter:       after,
		})
	}

	product := locked[op.OutputItemID]
	product.CurrentStock = product.CurrentStock.Add(op.OutputQuantity)
	if err := tx.SetStock(ctx, product.ItemID, product.CurrentStock); err != nil {
		return nil, fmt.Errorf("failed to add output to item %d: %w", product.ItemID, err)
	}
	out.output = product
	if op.InputItemID > 0 && !op.UseBOM {
		out.input = locked[op.InputItemID]
	}
	return out, nil
}

// requirements lists what the operation consumes: the exploded BOM for BOM
// production, the single input item for a process run, nothing otherwise.
func (s *Service) requirements(ctx context.Context, tx repositories.StockTx, op *entities.OperationRecord) ([]bom.ExplosionLine, error) {
	if op.UseBOM {
		return s.exploder.ExplodeWith(ctx, tx, tx, op.OutputItemID, op.InputQuantity)
	}
	if op.InputItemID <= 0 {
		return nil, nil
	}
	input, err := tx.GetItem(ctx, op.InputItemID)
	if err != nil {
		return nil, err
	}
	return []bom.ExplosionLine{{
		ItemID:           input.ItemID,
		ItemCode:         input.ItemCode,
		ItemName:         input.ItemName,
		Level:            1,
		QuantityRequired: op.InputQuantity,
		Unit:             input.Unit,
		IsLeaf:           true,
	}}, nil
}

func stampDeductions(ctx context.Context, tx repositories.StockTx, op *entities.OperationRecord, deductions []*entities.DeductionRecord) error {
	if len(deductions) == 0 {
		return nil
	}
	at := *op.CompletedAt
	for _, d := range deductions {
		d.OperationID = op.OperationID
		d.CreatedAt = at
	}
	if err := tx.CreateDeductions(ctx, deductions); err != nil {
		return fmt.Errorf("failed to record deductions: %w", err)
	}
	return nil
}

func (s *Service) validate(op *entities.OperationRecord) error {
	if err := op.Validate(); err != nil {
		return err
	}
	if !op.UseBOM && op.InputItemID == op.OutputItemID {
		return fmt.Errorf("input and output items cannot be the same: %d", op.InputItemID)
	}
	if op.UseBOM {
		return checkScrap(op)
	}
	return nil
}

// checkScrap rejects good output plus scrap above the input. OutputQuantity is
// always the good output that enters stock; scrap is recorded beside it and
// never subtracted again. Only same-unit quantities are compared.
func checkScrap(op *entities.OperationRecord) error {
	if op.OutputQuantity.Add(op.ScrapQuantity).GreaterThan(op.InputQuantity) {
		return fmt.Errorf("output %s plus scrap %s exceeds input %s: %w",
			op.OutputQuantity, op.ScrapQuantity, op.InputQuantity,
			&entities.InvalidQuantityError{Field: "scrap_quantity", Value: op.ScrapQuantity})
	}
	return nil
}

func (s *Service) newOperation(opType entities.OperationType) *entities.OperationRecord {
	now := s.now()
	return &entities.OperationRecord{
		OperationID:   uuid.NewString(),
		OperationType: opType,
		Status:        entities.StatusPending,
		LotNumber:     NewLotNumber(opType, now),
		ScrapQuantity: decimal.Zero,
		CreatedAt:     now,
	}
}

// NewLotNumber builds PREFIX-YYYYMMDD-XXXXXX with a random upper-case hex suffix
func NewLotNumber(opType entities.OperationType, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s-%s-%s", opType.LotPrefix(), at.Format("20060102"), strings.ToUpper(suffix))
}

func snapshot(item *entities.Item) dto.StockSnapshot {
	return dto.StockSnapshot{
		ItemID:       item.ItemID,
		ItemCode:     item.ItemCode,
		ItemName:     item.ItemName,
		Unit:         item.Unit,
		CurrentStock: item.CurrentStock,
	}
}

func (s *Service) completed(op *entities.OperationRecord, out *outcome) {
	s.logger.Info("operation completed",
		zap.String("operation_id", op.OperationID),
		zap.String("operation_type", string(op.OperationType)),
		zap.String("lot_number", op.LotNumber),
		zap.Int64("output_item_id", int64(op.OutputItemID)),
		zap.String("output_quantity", op.OutputQuantity.String()),
		zap.String("efficiency", op.Efficiency.String()),
		zap.Int("deductions", len(out.deductions)),
	)
	s.publish(events.NewOperationCompletedEvent(op, out.deductions, out.output.CurrentStock))
	for _, d := range out.deductions {
		s.publish(events.NewStockDeductedEvent(d))
	}
}

func (s *Service) rejected(op *entities.OperationRecord, err error) {
	var insufficient *entities.InsufficientStockError
	if !errors.As(err, &insufficient) {
		s.logger.Warn("operation failed",
			zap.String("operation_id", op.OperationID),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("insufficient stock",
		zap.String("operation_id", op.OperationID),
		zap.Int64("output_item_id", int64(op.OutputItemID)),
		zap.Any("shortages", insufficient.Shortages),
	)
	s.publish(events.NewProductionRejectedEvent(op.OutputItemID, op.InputQuantity, insufficient.Shortages))
}

func (s *Service) publish(event events.Event) {
	if s.eventStore == nil {
		return
	}
	if err := s.eventStore.AppendEvent(event.StreamID(), event); err != nil {
		s.logger.Error("failed to append event", zap.String("event_type", event.Type()), zap.Error(err))
	}
}

// GetOperation returns an operation record
func (s *Service) GetOperation(ctx context.Context, id string) (*entities.OperationRecord, error) {
	return s.operations.GetOperation(ctx, id)
}

// ListOperations returns operation records matching the query
func (s *Service) ListOperations(ctx context.Context, query repositories.OperationQuery) ([]*entities.OperationRecord, error) {
	return s.operations.FindOperations(ctx, query)
}

// GetDeductions returns the stock deductions recorded for an operation
func (s *Service) GetDeductions(ctx context.Context, operationID string) ([]*entities.DeductionRecord, error) {
	return s.operations.GetDeductions(ctx, operationID)
}
