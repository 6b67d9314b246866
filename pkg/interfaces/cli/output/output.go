package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/application/dto"
	"github.com/taechang/production-core/pkg/application/services/availability"
	"github.com/taechang/production-core/pkg/application/services/bom"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/services"
)

// Supported formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Printer renders command results as text tables or indented JSON
type Printer struct {
	w      io.Writer
	format string
}

// NewPrinter creates a printer for format, which must be text or json
func NewPrinter(w io.Writer, format string) (*Printer, error) {
	switch format {
	case FormatText, FormatJSON:
		return &Printer{w: w, format: format}, nil
	case "":
		return &Printer{w: w, format: FormatText}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func (p *Printer) json(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

func rule(widths ...int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, " ")
}

// Explosion prints the flattened component list of root
func (p *Printer) Explosion(root entities.ItemID, quantity decimal.Decimal, lines []bom.ExplosionLine) error {
	if p.format == FormatJSON {
		return p.json(map[string]any{
			"item_id":  root,
			"quantity": quantity,
			"lines":    lines,
		})
	}

	fmt.Fprintf(p.w, "BOM explosion of item %d x %s\n\n", root, quantity)
	if len(lines) == 0 {
		fmt.Fprintln(p.w, "(no components)")
		return nil
	}
	fmt.Fprintf(p.w, "%-5s %-8s %-15s %-20s %12s %-5s %12s\n",
		"Level", "Item ID", "Item Code", "Item Name", "Required", "Unit", "Ext. Cost")
	fmt.Fprintln(p.w, rule(5, 8, 15, 20, 12, 5, 12))
	total := decimal.Zero
	for _, line := range lines {
		fmt.Fprintf(p.w, "%-5d %-8d %-15s %-20s %12s %-5s %12s\n",
			line.Level, line.ItemID, line.ItemCode, line.ItemName,
			line.QuantityRequired.String(), line.Unit, line.ExtendedCost.StringFixed(2))
		if line.IsLeaf {
			total = total.Add(line.ExtendedCost)
		}
	}
	fmt.Fprintf(p.w, "\nLeaf material cost: %s\n", total.StringFixed(2))
	return nil
}

// WhereUsed prints the direct parents of an item
func (p *Printer) WhereUsed(item entities.ItemID, entries []bom.WhereUsedEntry) error {
	if p.format == FormatJSON {
		return p.json(entries)
	}

	fmt.Fprintf(p.w, "Item %d is used in %d parent(s)\n\n", item, len(entries))
	if len(entries) == 0 {
		return nil
	}
	fmt.Fprintf(p.w, "%-8s %-10s %-15s %-20s %10s %-5s\n",
		"BOM ID", "Parent ID", "Parent Code", "Parent Name", "Qty/Unit", "Level")
	fmt.Fprintln(p.w, rule(8, 10, 15, 20, 10, 5))
	for _, e := range entries {
		fmt.Fprintf(p.w, "%-8d %-10d %-15s %-20s %10s %-5d\n",
			e.BOMID, e.ParentItemID, e.ParentItemCode, e.ParentItemName,
			e.QuantityRequired.String(), e.LevelNo)
	}
	return nil
}

// Ancestors prints every item that transitively consumes an item
func (p *Printer) Ancestors(item entities.ItemID, entries []bom.AncestorEntry) error {
	if p.format == FormatJSON {
		return p.json(entries)
	}

	fmt.Fprintf(p.w, "Item %d is consumed by %d item(s)\n\n", item, len(entries))
	if len(entries) == 0 {
		return nil
	}
	fmt.Fprintf(p.w, "%-8s %-15s %-20s %-8s\n", "Item ID", "Item Code", "Item Name", "Distance")
	fmt.Fprintln(p.w, rule(8, 15, 20, 8))
	for _, e := range entries {
		fmt.Fprintf(p.w, "%-8d %-15s %-20s %-8d\n", e.ItemID, e.ItemCode, e.ItemName, e.Distance)
	}
	return nil
}

// Structure prints the one-hop neighborhood of an item
func (p *Printer) Structure(s *bom.Structure) error {
	if p.format == FormatJSON {
		return p.json(s)
	}

	fmt.Fprintf(p.w, "%s (%d) %s, stock %s %s\n\n",
		s.Item.ItemCode, s.Item.ItemID, s.Item.ItemName, s.Item.CurrentStock, s.Item.Unit)
	fmt.Fprintf(p.w, "Components (%d):\n", len(s.AsParent))
	for _, e := range s.AsParent {
		fmt.Fprintf(p.w, "  -> %-8d x %s\n", e.ChildItemID, e.QuantityRequired)
	}
	fmt.Fprintf(p.w, "Used in (%d):\n", len(s.AsChild))
	for _, e := range s.AsChild {
		fmt.Fprintf(p.w, "  <- %-8d x %s\n", e.ParentItemID, e.QuantityRequired)
	}
	return nil
}

// Rollup prints a cost rollup
func (p *Printer) Rollup(r *bom.CostRollup) error {
	if p.format == FormatJSON {
		return p.json(r)
	}

	fmt.Fprintf(p.w, "Cost rollup of item %d x %s\n", r.ItemID, r.Quantity)
	fmt.Fprintf(p.w, "  Material cost: %s\n", r.MaterialCost.StringFixed(2))
	fmt.Fprintf(p.w, "  Labor cost:    %s\n", r.LaborCost.StringFixed(2))
	fmt.Fprintf(p.w, "  Total cost:    %s\n", r.TotalCost.StringFixed(2))
	fmt.Fprintf(p.w, "  Machine time:  %s\n", r.MachineTime.String())
	fmt.Fprintf(p.w, "  Setup time:    %s\n", r.SetupTime.String())
	return nil
}

// Availability prints the result of a stock check
func (p *Printer) Availability(r *availability.Report) error {
	if p.format == FormatJSON {
		return p.json(r)
	}

	verdict := "CAN PRODUCE"
	if !r.CanProduce {
		verdict = "CANNOT PRODUCE"
	}
	fmt.Fprintf(p.w, "%s: %s (%d) x %s\n\n", verdict, r.ProductInfo.ItemCode, r.ProductInfo.ItemID, r.DesiredQuantity)
	if len(r.RequiredMaterials) == 0 {
		return nil
	}
	fmt.Fprintf(p.w, "%-8s %-15s %12s %12s %-5s\n", "Item ID", "Item Code", "Required", "Available", "OK")
	fmt.Fprintln(p.w, rule(8, 15, 12, 12, 5))
	for _, m := range r.RequiredMaterials {
		ok := "yes"
		if !m.Sufficient {
			ok = "NO"
		}
		fmt.Fprintf(p.w, "%-8d %-15s %12s %12s %-5s\n",
			m.ItemID, m.ItemCode, m.RequiredQuantity.String(), m.AvailableQuantity.String(), ok)
	}
	return nil
}

// Shortages prints the shortages of a rejected production
func (p *Printer) Shortages(err *entities.InsufficientStockError) error {
	if p.format == FormatJSON {
		return p.json(map[string]any{"error": "insufficient stock", "shortages": err.Shortages})
	}

	fmt.Fprintln(p.w, "Insufficient stock:")
	for _, s := range err.Shortages {
		fmt.Fprintf(p.w, "  %-15s required %s, available %s, short %s\n",
			s.ItemCode, s.Required, s.Available, s.Short)
	}
	return nil
}

// Production prints a committed production run
func (p *Printer) Production(r *dto.ProductionResult) error {
	if p.format == FormatJSON {
		return p.json(r)
	}

	p.operation(r.Operation)
	p.deductions(r.AutoDeductions)
	fmt.Fprintf(p.w, "Product stock: %s\n", r.ProductStock)
	return nil
}

// QuickOperation prints a committed quick operation
func (p *Printer) QuickOperation(r *dto.QuickOperationResult) error {
	if p.format == FormatJSON {
		return p.json(r)
	}

	p.operation(r.Operation)
	fmt.Fprintf(p.w, "Efficiency: %s%%\n", r.Efficiency.StringFixed(2))
	fmt.Fprintf(p.w, "Input stock:  %s %s %s\n", r.CurrentStocks.Input.ItemCode, r.CurrentStocks.Input.CurrentStock, r.CurrentStocks.Input.Unit)
	fmt.Fprintf(p.w, "Output stock: %s %s %s\n", r.CurrentStocks.Output.ItemCode, r.CurrentStocks.Output.CurrentStock, r.CurrentStocks.Output.Unit)
	return nil
}

// Completion prints a staged operation that just completed
func (p *Printer) Completion(r *dto.CompletionResult) error {
	if p.format == FormatJSON {
		return p.json(r)
	}

	p.operation(r.Operation)
	p.deductions(r.Deductions)
	fmt.Fprintf(p.w, "Output stock: %s\n", r.OutputStock)
	return nil
}

// Operation prints a single operation record
func (p *Printer) Operation(op *entities.OperationRecord) error {
	if p.format == FormatJSON {
		return p.json(op)
	}
	p.operation(op)
	return nil
}

// Operations prints a list of operation records
func (p *Printer) Operations(ops []*entities.OperationRecord) error {
	if p.format == FormatJSON {
		return p.json(ops)
	}

	fmt.Fprintf(p.w, "%-36s %-10s %-11s %-20s %8s %8s %8s\n",
		"Operation ID", "Type", "Status", "Lot", "Input", "Output", "Eff.%")
	fmt.Fprintln(p.w, rule(36, 10, 11, 20, 8, 8, 8))
	for _, op := range ops {
		fmt.Fprintf(p.w, "%-36s %-10s %-11s %-20s %8s %8s %8s\n",
			op.OperationID, op.OperationType, op.Status, op.LotNumber,
			op.InputQuantity, op.OutputQuantity, op.Efficiency.StringFixed(2))
	}
	return nil
}

func (p *Printer) operation(op *entities.OperationRecord) {
	fmt.Fprintf(p.w, "Operation %s\n", op.OperationID)
	fmt.Fprintf(p.w, "  Type:   %s\n", op.OperationType)
	fmt.Fprintf(p.w, "  Status: %s\n", op.Status)
	fmt.Fprintf(p.w, "  Lot:    %s\n", op.LotNumber)
	if op.InputItemID > 0 {
		fmt.Fprintf(p.w, "  Input:  item %d x %s\n", op.InputItemID, op.InputQuantity)
	}
	fmt.Fprintf(p.w, "  Output: item %d x %s (scrap %s)\n", op.OutputItemID, op.OutputQuantity, op.ScrapQuantity)
}

func (p *Printer) deductions(records []*entities.DeductionRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(p.w, "\n%-8s %-15s %12s %12s %12s\n", "Item ID", "Item Code", "Deducted", "Before", "After")
	fmt.Fprintln(p.w, rule(8, 15, 12, 12, 12))
	for _, d := range records {
		fmt.Fprintf(p.w, "%-8d %-15s %12s %12s %12s\n",
			d.ItemID, d.ItemCode, d.DeductedQuantity, d.StockBefore, d.StockAfter)
	}
	fmt.Fprintln(p.w)
}

// Efficiency prints a historical average and an optional suggestion
func (p *Printer) Efficiency(avg, suggested *decimal.Decimal) error {
	if p.format == FormatJSON {
		return p.json(map[string]any{
			"average_efficiency":        avg,
			"suggested_output_quantity": suggested,
		})
	}

	if avg == nil {
		fmt.Fprintln(p.w, "No completed history for this operation")
		return nil
	}
	fmt.Fprintf(p.w, "Average efficiency: %s%%\n", avg.StringFixed(2))
	if suggested != nil {
		fmt.Fprintf(p.w, "Suggested output:   %s\n", suggested)
	}
	return nil
}

// CoilSuggestion prints the suggested piece count for a coil
func (p *Printer) CoilSuggestion(item entities.ItemID, pieces *int64) error {
	if p.format == FormatJSON {
		return p.json(map[string]any{"item_id": item, "suggested_input_quantity": pieces})
	}

	if pieces == nil {
		fmt.Fprintf(p.w, "No coil specification for item %d\n", item)
		return nil
	}
	fmt.Fprintf(p.w, "Item %d yields %d piece(s)\n", item, *pieces)
	return nil
}

// Audit prints a BOM validation result
func (p *Printer) Audit(r *services.ValidationResult) error {
	if p.format == FormatJSON {
		return p.json(r)
	}

	if !r.HasCycles && len(r.DuplicateEdges) == 0 {
		fmt.Fprintln(p.w, "BOM is valid")
		return nil
	}
	for _, path := range r.CyclePaths {
		ids := make([]string, len(path))
		for i, id := range path {
			ids[i] = fmt.Sprint(id)
		}
		fmt.Fprintf(p.w, "cycle: %s\n", strings.Join(ids, " -> "))
	}
	for _, e := range r.DuplicateEdges {
		fmt.Fprintf(p.w, "duplicate: %d -> %d (bom id %d)\n", e.ParentItemID, e.ChildItemID, e.BOMID)
	}
	return nil
}

// Message prints a one-line status, or {"message": ...} in JSON
func (p *Printer) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.format == FormatJSON {
		return p.json(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(p.w, msg)
	return err
}
