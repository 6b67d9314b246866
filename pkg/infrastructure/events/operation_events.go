package events

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
)

const (
	OperationCreatedEvent   = "operation.created"
	OperationStartedEvent   = "operation.started"
	OperationCompletedEvent = "operation.completed"
	OperationCancelledEvent = "operation.cancelled"

	StockDeductedEvent      = "stock.deducted"
	ProductionRejectedEvent = "production.rejected"

	BOMEdgeAddedEvent       = "bom.edge.added"
	BOMEdgeDeactivatedEvent = "bom.edge.deactivated"
)

// AllEventTypes lists every event type published by the production core
var AllEventTypes = []string{
	OperationCreatedEvent,
	OperationStartedEvent,
	OperationCompletedEvent,
	OperationCancelledEvent,
	StockDeductedEvent,
	ProductionRejectedEvent,
	BOMEdgeAddedEvent,
	BOMEdgeDeactivatedEvent,
}

type OperationChanged struct {
	Operation *entities.OperationRecord `json:"operation"`
}

type OperationCompleted struct {
	Operation   *entities.OperationRecord   `json:"operation"`
	Deductions  []*entities.DeductionRecord `json:"deductions"`
	OutputStock decimal.Decimal             `json:"output_stock"`
}

type StockDeducted struct {
	Deduction *entities.DeductionRecord `json:"deduction"`
}

type ProductionRejected struct {
	ProductItemID entities.ItemID     `json:"product_item_id"`
	Quantity      decimal.Decimal     `json:"quantity"`
	Shortages     []entities.Shortage `json:"shortages"`
}

type BOMEdgeChanged struct {
	Edge entities.BOMEdge `json:"edge"`
}

// OperationStream is the stream id for events about one operation
func OperationStream(operationID string) string {
	return "operation-" + operationID
}

// ItemStream is the stream id for events about one item
func ItemStream(itemID entities.ItemID) string {
	return fmt.Sprintf("item-%d", itemID)
}

// NewOperationChangedEvent records a status change that moved no stock
func NewOperationChangedEvent(eventType string, op *entities.OperationRecord) Event {
	return NewEvent(eventType, OperationStream(op.OperationID), OperationChanged{Operation: op.Clone()})
}

func NewOperationCompletedEvent(
	op *entities.OperationRecord,
	deductions []*entities.DeductionRecord,
	outputStock decimal.Decimal,
) Event {
	return NewEvent(OperationCompletedEvent, OperationStream(op.OperationID), OperationCompleted{
		Operation:   op.Clone(),
		Deductions:  deductions,
		OutputStock: outputStock,
	})
}

func NewStockDeductedEvent(deduction *entities.DeductionRecord) Event {
	return NewEvent(StockDeductedEvent, ItemStream(deduction.ItemID), StockDeducted{Deduction: deduction})
}

func NewProductionRejectedEvent(product entities.ItemID, quantity decimal.Decimal, shortages []entities.Shortage) Event {
	return NewEvent(ProductionRejectedEvent, ItemStream(product), ProductionRejected{
		ProductItemID: product,
		Quantity:      quantity,
		Shortages:     shortages,
	})
}

func NewBOMEdgeEvent(eventType string, edge entities.BOMEdge) Event {
	return NewEvent(eventType, ItemStream(edge.ParentItemID), BOMEdgeChanged{Edge: edge})
}
