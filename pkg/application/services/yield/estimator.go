package yield

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// Estimator derives advisory yield figures from completed operations.
// Nothing it returns is used to move stock.
type Estimator struct {
	operations repositories.OperationRepository
	logger     *zap.Logger
}

// NewEstimator creates an efficiency estimator
func NewEstimator(operations repositories.OperationRepository, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{operations: operations, logger: logger}
}

// AverageEfficiency returns the mean output/input percentage over completed
// operations of the given triple, rounded to two places. It returns nil, not
// zero, when there is no history.
func (e *Estimator) AverageEfficiency(
	ctx context.Context,
	input, output entities.ItemID,
	opType entities.OperationType,
) (*decimal.Decimal, error) {
	records, err := e.operations.FindOperations(ctx, repositories.OperationQuery{
		InputItemID:   input,
		OutputItemID:  output,
		OperationType: opType,
		Status:        entities.StatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load operation history: %w", err)
	}

	sum := decimal.Zero
	count := 0
	for _, r := range records {
		if !r.InputQuantity.IsPositive() {
			continue
		}
		sum = sum.Add(r.OutputQuantity.Div(r.InputQuantity).Mul(hundred))
		count++
	}
	if count == 0 {
		return nil, nil
	}

	avg := sum.Div(decimal.NewFromInt(int64(count))).Round(2)
	e.logger.Debug("average efficiency",
		zap.Int64("input_item_id", int64(input)),
		zap.Int64("output_item_id", int64(output)),
		zap.String("operation_type", string(opType)),
		zap.Int("samples", count),
		zap.String("efficiency", avg.String()),
	)
	return &avg, nil
}

// SuggestOutputQuantity projects the expected output for inputQty from the
// historical average, rounded down to whole units. nil means no suggestion.
func (e *Estimator) SuggestOutputQuantity(
	ctx context.Context,
	input, output entities.ItemID,
	opType entities.OperationType,
	inputQty decimal.Decimal,
) (*decimal.Decimal, error) {
	if !inputQty.IsPositive() {
		return nil, &entities.InvalidQuantityError{Field: "input_quantity", Value: inputQty}
	}
	avg, err := e.AverageEfficiency(ctx, input, output, opType)
	if err != nil || avg == nil {
		return nil, err
	}
	suggested := inputQty.Mul(*avg).Div(hundred).Floor()
	return &suggested, nil
}
