package entities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by repositories when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrOperationNotFound is returned when an operation id is unknown
	ErrOperationNotFound = fmt.Errorf("operation %w", ErrNotFound)
)

// ItemNotFoundError reports a missing or inactive item
type ItemNotFoundError struct {
	ItemID ItemID
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item not found or inactive: %d", e.ItemID)
}

func (e *ItemNotFoundError) Unwrap() error { return ErrNotFound }

// CircularBOMError reports a cycle found during traversal.
// Path starts and ends with the repeated item.
type CircularBOMError struct {
	Path []ItemID
}

func (e *CircularBOMError) Error() string {
	return fmt.Sprintf("circular BOM detected: %s", formatPath(e.Path))
}

// BOMDepthExceededError reports a structure deeper than the configured cap
type BOMDepthExceededError struct {
	MaxDepth int
	Path     []ItemID
}

func (e *BOMDepthExceededError) Error() string {
	return fmt.Sprintf("BOM depth exceeds %d levels: %s", e.MaxDepth, formatPath(e.Path))
}

// Shortage describes one item that cannot cover its requirement
type Shortage struct {
	ItemID    ItemID          `json:"item_id"`
	ItemCode  string          `json:"item_code"`
	ItemName  string          `json:"item_name"`
	Required  decimal.Decimal `json:"required_quantity"`
	Available decimal.Decimal `json:"available_quantity"`
	Short     decimal.Decimal `json:"shortage"`
}

// InsufficientStockError carries every short item found at commit time
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s(required %s, available %s)", s.ItemCode, s.Required, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// InvalidQuantityError reports a non-positive quantity argument
type InvalidQuantityError struct {
	Field string
	Value decimal.Decimal
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("%s must be positive, got %s", e.Field, e.Value)
}

// InvalidTransitionError reports a forbidden status change
type InvalidTransitionError struct {
	OperationID string
	From        OperationStatus
	To          OperationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("operation %s cannot move from %s to %s", e.OperationID, e.From, e.To)
}

func formatPath(path []ItemID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " -> ")
}
