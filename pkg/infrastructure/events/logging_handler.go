package events

import (
	"go.uber.org/zap"
)

// LoggingHandler writes every event it receives to a zap logger as an audit trail
type LoggingHandler struct {
	logger *zap.Logger
}

func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger.Named("audit")}
}

func (h *LoggingHandler) CanHandle(string) bool {
	return true
}

func (h *LoggingHandler) Handle(event Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID()),
		zap.String("event_type", event.Type()),
		zap.String("stream_id", event.StreamID()),
		zap.Int("version", event.Version()),
		zap.Time("at", event.Timestamp()),
	}

	switch data := event.Data().(type) {
	case OperationCompleted:
		fields = append(fields,
			zap.String("operation_id", data.Operation.OperationID),
			zap.String("lot_number", data.Operation.LotNumber),
			zap.Int("deductions", len(data.Deductions)),
			zap.String("output_stock", data.OutputStock.String()),
		)
	case OperationChanged:
		fields = append(fields,
			zap.String("operation_id", data.Operation.OperationID),
			zap.String("status", string(data.Operation.Status)),
		)
	case StockDeducted:
		fields = append(fields,
			zap.Int64("item_id", int64(data.Deduction.ItemID)),
			zap.String("deducted", data.Deduction.DeductedQuantity.String()),
			zap.String("stock_after", data.Deduction.StockAfter.String()),
		)
	case ProductionRejected:
		fields = append(fields,
			zap.Int64("product_item_id", int64(data.ProductItemID)),
			zap.String("quantity", data.Quantity.String()),
			zap.Int("shortages", len(data.Shortages)),
		)
	case BOMEdgeChanged:
		fields = append(fields,
			zap.Int64("bom_id", data.Edge.BOMID),
			zap.Int64("child_item_id", int64(data.Edge.ChildItemID)),
		)
	}

	h.logger.Info("event", fields...)
	return nil
}
