package dto

import (
	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
)

// ProductionRequest asks to build a quantity of a product.
// With UseBOM every exploded component is consumed; without it only the product stock grows.
type ProductionRequest struct {
	ProductItemID entities.ItemID `json:"product_item_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UseBOM        bool            `json:"use_bom"`
	ScrapQuantity decimal.Decimal `json:"scrap_quantity"`
	OperatorID    string          `json:"operator_id"`
	Notes         string          `json:"notes"`
}

// ProductionResult is returned after a committed production run
type ProductionResult struct {
	Operation      *entities.OperationRecord   `json:"transaction"`
	AutoDeductions []*entities.DeductionRecord `json:"auto_deductions"`
	ProductStock   decimal.Decimal             `json:"product_stock"`
}

// QuickOperationRequest records a process run that completes immediately
type QuickOperationRequest struct {
	OperationType  entities.OperationType `json:"operation_type"`
	InputItemID    entities.ItemID        `json:"input_item_id"`
	OutputItemID   entities.ItemID        `json:"output_item_id"`
	InputQuantity  decimal.Decimal        `json:"input_quantity"`
	OutputQuantity decimal.Decimal        `json:"output_quantity"`
	OperatorID     string                 `json:"operator_id"`
	Notes          string                 `json:"notes"`
}

// StockSnapshot is an item's stock right after a commit
type StockSnapshot struct {
	ItemID       entities.ItemID `json:"item_id"`
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
}

// CurrentStocks holds the input and output stock after a process run
type CurrentStocks struct {
	Input  StockSnapshot `json:"input"`
	Output StockSnapshot `json:"output"`
}

// QuickOperationResult is returned after a committed quick operation
type QuickOperationResult struct {
	LotNumber     string                    `json:"lot_number"`
	Efficiency    decimal.Decimal           `json:"efficiency"`
	CurrentStocks CurrentStocks             `json:"current_stocks"`
	Operation     *entities.OperationRecord `json:"operation"`
}

// CreateOperationRequest registers a staged operation. No stock moves until it completes.
type CreateOperationRequest struct {
	OperationType  entities.OperationType `json:"operation_type"`
	InputItemID    entities.ItemID        `json:"input_item_id"`
	OutputItemID   entities.ItemID        `json:"output_item_id"`
	InputQuantity  decimal.Decimal        `json:"input_quantity"`
	OutputQuantity decimal.Decimal        `json:"output_quantity"`
	ScrapQuantity  decimal.Decimal        `json:"scrap_quantity"`
	UseBOM         bool                   `json:"use_bom"`
	OperatorID     string                 `json:"operator_id"`
	Notes          string                 `json:"notes"`
}

// CompletionResult is returned when a staged operation completes
type CompletionResult struct {
	Operation   *entities.OperationRecord   `json:"operation"`
	Deductions  []*entities.DeductionRecord `json:"deductions"`
	OutputStock decimal.Decimal             `json:"output_stock"`
}
