package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OperationType identifies the kind of process run
type OperationType string

const (
	OperationBlanking   OperationType = "BLANKING"
	OperationPress      OperationType = "PRESS"
	OperationAssembly   OperationType = "ASSEMBLY"
	OperationProduction OperationType = "PRODUCTION"
)

// ParseOperationType validates an operation type string
func ParseOperationType(s string) (OperationType, error) {
	switch t := OperationType(strings.ToUpper(strings.TrimSpace(s))); t {
	case OperationBlanking, OperationPress, OperationAssembly, OperationProduction:
		return t, nil
	default:
		return "", fmt.Errorf("unknown operation type: %s", s)
	}
}

// LotPrefix returns the lot number prefix for the operation type
func (t OperationType) LotPrefix() string {
	switch t {
	case OperationBlanking:
		return "BLK"
	case OperationPress:
		return "PRS"
	case OperationAssembly:
		return "ASM"
	default:
		return "PRD"
	}
}

// OperationStatus is the lifecycle state of an operation record
type OperationStatus string

const (
	StatusPending    OperationStatus = "PENDING"
	StatusInProgress OperationStatus = "IN_PROGRESS"
	StatusCompleted  OperationStatus = "COMPLETED"
	StatusCancelled  OperationStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed
func (s OperationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// OperationRecord is one production or process run.
// InputItemID is zero for production runs, where the inputs come from the explosion
// (or there are none). For those runs InputQuantity is the planned product quantity.
type OperationRecord struct {
	OperationID    string
	OperationType  OperationType
	InputItemID    ItemID
	OutputItemID   ItemID
	InputQuantity  decimal.Decimal
	OutputQuantity decimal.Decimal
	ScrapQuantity  decimal.Decimal
	UseBOM         bool
	Status         OperationStatus
	Efficiency     decimal.Decimal
	LotNumber      string
	OperatorID     string
	Notes          string
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CancelledAt    *time.Time
}

// Validate checks the quantities and item references of the record
func (o *OperationRecord) Validate() error {
	if _, err := ParseOperationType(string(o.OperationType)); err != nil {
		return err
	}
	if o.OutputItemID <= 0 {
		return fmt.Errorf("output item id must be positive, got %d", o.OutputItemID)
	}
	if o.InputItemID <= 0 && !o.UseBOM && o.OperationType != OperationProduction {
		return fmt.Errorf("input item id must be positive, got %d", o.InputItemID)
	}
	if !o.InputQuantity.IsPositive() {
		return &InvalidQuantityError{Field: "input_quantity", Value: o.InputQuantity}
	}
	if !o.OutputQuantity.IsPositive() {
		return &InvalidQuantityError{Field: "output_quantity", Value: o.OutputQuantity}
	}
	if o.ScrapQuantity.IsNegative() {
		return &InvalidQuantityError{Field: "scrap_quantity", Value: o.ScrapQuantity}
	}
	return nil
}

// CalculateEfficiency returns output / input * 100 rounded to two places
func CalculateEfficiency(input, output decimal.Decimal) decimal.Decimal {
	if !input.IsPositive() {
		return decimal.Zero
	}
	return output.Div(input).Mul(decimal.NewFromInt(100)).Round(2)
}

// CanTransition reports whether the state machine allows moving to the target status
func (o *OperationRecord) CanTransition(to OperationStatus) bool {
	switch o.Status {
	case StatusPending:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

func (o *OperationRecord) transition(to OperationStatus) error {
	if !o.CanTransition(to) {
		return &InvalidTransitionError{OperationID: o.OperationID, From: o.Status, To: to}
	}
	o.Status = to
	return nil
}

// Start moves a pending operation to IN_PROGRESS
func (o *OperationRecord) Start(at time.Time) error {
	if o.Status != StatusPending {
		return &InvalidTransitionError{OperationID: o.OperationID, From: o.Status, To: StatusInProgress}
	}
	if err := o.transition(StatusInProgress); err != nil {
		return err
	}
	o.StartedAt = &at
	return nil
}

// Complete marks the operation COMPLETED and fixes its efficiency
func (o *OperationRecord) Complete(at time.Time) error {
	if err := o.transition(StatusCompleted); err != nil {
		return err
	}
	o.Efficiency = CalculateEfficiency(o.InputQuantity, o.OutputQuantity)
	o.CompletedAt = &at
	return nil
}

// Cancel moves a non-terminal operation to CANCELLED
func (o *OperationRecord) Cancel(at time.Time) error {
	if err := o.transition(StatusCancelled); err != nil {
		return err
	}
	o.CancelledAt = &at
	return nil
}

// Clone returns a deep copy of the record
func (o *OperationRecord) Clone() *OperationRecord {
	c := *o
	if o.StartedAt != nil {
		t := *o.StartedAt
		c.StartedAt = &t
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		c.CompletedAt = &t
	}
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

// DeductionRecord is the audit entry for one child item consumed by an operation
type DeductionRecord struct {
	OperationID      string
	ItemID           ItemID
	ItemCode         string
	DeductedQuantity decimal.Decimal
	StockBefore      decimal.Decimal
	StockAfter       decimal.Decimal
	CreatedAt        time.Time
}
