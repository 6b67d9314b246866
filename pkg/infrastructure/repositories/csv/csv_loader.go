package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
)

// File names read by LoadDirectory
const (
	ItemsFile      = "items.csv"
	BOMFile        = "bom.csv"
	CoilSpecsFile  = "coil_specs.csv"
	OperationsFile = "operations.csv"
)

var (
	itemsHeader      = []string{"item_id", "item_code", "item_name", "unit", "current_stock", "price", "material_type", "coating_status", "is_active"}
	bomHeader        = []string{"parent_item_id", "child_item_id", "quantity_required", "level_no", "labor_cost", "machine_time", "setup_time", "notes"}
	coilSpecsHeader  = []string{"item_id", "weight_per_piece", "thickness", "width", "length", "material_grade"}
	operationsHeader = []string{"operation_id", "operation_type", "input_item_id", "output_item_id", "input_quantity", "output_quantity", "status", "lot_number", "created_at"}
)

// Target receives the loaded master data. Both the in-memory and the
// PostgreSQL stores satisfy it.
type Target interface {
	SaveItem(ctx context.Context, item *entities.Item) error
	SaveEdge(ctx context.Context, edge *entities.BOMEdge) error
	SaveCoilSpec(ctx context.Context, spec *entities.CoilSpec) error
	SaveOperation(ctx context.Context, op *entities.OperationRecord) error
}

// Summary counts the rows written by LoadDirectory
type Summary struct {
	Items      int
	Edges      int
	CoilSpecs  int
	Operations int
}

// Loader handles loading item master, BOM and history data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDirectory reads items.csv and bom.csv (required) and coil_specs.csv and
// operations.csv (optional) from dir and writes them to target in that order.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, target Target) (*Summary, error) {
	summary := &Summary{}

	items, err := l.LoadItems(filepath.Join(dir, ItemsFile))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := target.SaveItem(ctx, item); err != nil {
			return nil, err
		}
	}
	summary.Items = len(items)

	edges, err := l.LoadBOM(filepath.Join(dir, BOMFile))
	if err != nil {
		return nil, err
	}
	for _, edge := range edges {
		if err := target.SaveEdge(ctx, edge); err != nil {
			return nil, err
		}
	}
	summary.Edges = len(edges)

	specs, err := l.LoadCoilSpecs(filepath.Join(dir, CoilSpecsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for _, spec := range specs {
		if err := target.SaveCoilSpec(ctx, spec); err != nil {
			return nil, err
		}
	}
	summary.CoilSpecs = len(specs)

	ops, err := l.LoadOperations(filepath.Join(dir, OperationsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for _, op := range ops {
		if err := target.SaveOperation(ctx, op); err != nil {
			return nil, err
		}
	}
	summary.Operations = len(ops)

	return summary, nil
}

// LoadItems loads the item master from a CSV file
func (l *Loader) LoadItems(filename string) ([]*entities.Item, error) {
	records, err := readRecords(filename, "items", itemsHeader)
	if err != nil {
		return nil, err
	}

	var items []*entities.Item
	for i, record := range records {
		item, err := parseItem(record)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// LoadBOM loads BOM edges from a CSV file
func (l *Loader) LoadBOM(filename string) ([]*entities.BOMEdge, error) {
	records, err := readRecords(filename, "BOM", bomHeader)
	if err != nil {
		return nil, err
	}

	var edges []*entities.BOMEdge
	for i, record := range records {
		edge, err := parseBOMEdge(record)
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// LoadCoilSpecs loads coil specifications from a CSV file
func (l *Loader) LoadCoilSpecs(filename string) ([]*entities.CoilSpec, error) {
	records, err := readRecords(filename, "coil specs", coilSpecsHeader)
	if err != nil {
		return nil, err
	}

	var specs []*entities.CoilSpec
	for i, record := range records {
		spec, err := parseCoilSpec(record)
		if err != nil {
			return nil, fmt.Errorf("coil specs CSV row %d: %w", i+2, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// LoadOperations loads historical process runs, used for yield estimation
func (l *Loader) LoadOperations(filename string) ([]*entities.OperationRecord, error) {
	records, err := readRecords(filename, "operations", operationsHeader)
	if err != nil {
		return nil, err
	}

	var ops []*entities.OperationRecord
	for i, record := range records {
		op, err := parseOperation(record)
		if err != nil {
			return nil, fmt.Errorf("operations CSV row %d: %w", i+2, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// readRecords opens a CSV file, checks its header and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, records[0])
	}
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		name := strings.ToLower(strings.TrimSpace(actual[i]))
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name != col {
			return false
		}
	}

	return true
}

func parseItem(record []string) (*entities.Item, error) {
	id, err := parseItemID(record[0], "item_id")
	if err != nil {
		return nil, err
	}
	stock, err := parseDecimal(record[4], "current_stock")
	if err != nil {
		return nil, err
	}
	price, err := parseDecimal(record[5], "price")
	if err != nil {
		return nil, err
	}
	materialType, err := entities.ParseMaterialType(record[6])
	if err != nil {
		return nil, err
	}
	active := true
	if s := strings.TrimSpace(record[8]); s != "" {
		if active, err = strconv.ParseBool(s); err != nil {
			return nil, fmt.Errorf("invalid is_active: %s", record[8])
		}
	}

	item := &entities.Item{
		ItemID:        id,
		ItemCode:      strings.TrimSpace(record[1]),
		ItemName:      strings.TrimSpace(record[2]),
		Unit:          strings.TrimSpace(record[3]),
		CurrentStock:  stock,
		Price:         price,
		MaterialType:  materialType,
		CoatingStatus: strings.TrimSpace(record[7]),
		IsActive:      active,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func parseBOMEdge(record []string) (*entities.BOMEdge, error) {
	parent, err := parseItemID(record[0], "parent_item_id")
	if err != nil {
		return nil, err
	}
	child, err := parseItemID(record[1], "child_item_id")
	if err != nil {
		return nil, err
	}
	qty, err := parseDecimal(record[2], "quantity_required")
	if err != nil {
		return nil, err
	}
	level := 1
	if s := strings.TrimSpace(record[3]); s != "" {
		if level, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("invalid level_no: %s", record[3])
		}
	}

	edge := &entities.BOMEdge{
		ParentItemID:     parent,
		ChildItemID:      child,
		QuantityRequired: qty,
		LevelNo:          level,
		Notes:            strings.TrimSpace(record[7]),
		IsActive:         true,
	}
	if edge.LaborCost, err = parseDecimal(record[4], "labor_cost"); err != nil {
		return nil, err
	}
	if edge.MachineTime, err = parseDecimal(record[5], "machine_time"); err != nil {
		return nil, err
	}
	if edge.SetupTime, err = parseDecimal(record[6], "setup_time"); err != nil {
		return nil, err
	}
	if err := edge.Validate(); err != nil {
		return nil, err
	}
	return edge, nil
}

func parseCoilSpec(record []string) (*entities.CoilSpec, error) {
	id, err := parseItemID(record[0], "item_id")
	if err != nil {
		return nil, err
	}
	spec := &entities.CoilSpec{ItemID: id, MaterialGrade: strings.TrimSpace(record[5])}
	if spec.WeightPerPiece, err = parseDecimal(record[1], "weight_per_piece"); err != nil {
		return nil, err
	}
	if !spec.WeightPerPiece.IsPositive() {
		return nil, fmt.Errorf("weight_per_piece must be positive, got %s", spec.WeightPerPiece)
	}
	if spec.Thickness, err = parseDecimal(record[2], "thickness"); err != nil {
		return nil, err
	}
	if spec.Width, err = parseDecimal(record[3], "width"); err != nil {
		return nil, err
	}
	if spec.Length, err = parseDecimal(record[4], "length"); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseOperation(record []string) (*entities.OperationRecord, error) {
	opType, err := entities.ParseOperationType(record[1])
	if err != nil {
		return nil, err
	}
	op := &entities.OperationRecord{
		OperationID:   strings.TrimSpace(record[0]),
		OperationType: opType,
		Status:        entities.OperationStatus(strings.ToUpper(strings.TrimSpace(record[6]))),
		LotNumber:     strings.TrimSpace(record[7]),
	}
	if op.OperationID == "" {
		return nil, fmt.Errorf("operation_id cannot be empty")
	}
	if s := strings.TrimSpace(record[2]); s != "" {
		if op.InputItemID, err = parseItemID(s, "input_item_id"); err != nil {
			return nil, err
		}
	}
	if op.OutputItemID, err = parseItemID(record[3], "output_item_id"); err != nil {
		return nil, err
	}
	if op.InputQuantity, err = parseDecimal(record[4], "input_quantity"); err != nil {
		return nil, err
	}
	if op.OutputQuantity, err = parseDecimal(record[5], "output_quantity"); err != nil {
		return nil, err
	}
	switch op.Status {
	case entities.StatusPending, entities.StatusInProgress, entities.StatusCompleted, entities.StatusCancelled:
	case "":
		op.Status = entities.StatusCompleted
	default:
		return nil, fmt.Errorf("invalid status: %s (expected PENDING, IN_PROGRESS, COMPLETED or CANCELLED)", record[6])
	}
	createdAt, err := time.Parse("2006-01-02", strings.TrimSpace(record[8]))
	if err != nil {
		return nil, fmt.Errorf("invalid created_at format: %s (expected YYYY-MM-DD)", record[8])
	}
	op.CreatedAt = createdAt
	if op.Status == entities.StatusCompleted {
		op.CompletedAt = &createdAt
	}
	op.Efficiency = entities.CalculateEfficiency(op.InputQuantity, op.OutputQuantity)

	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

func parseItemID(s, field string) (entities.ItemID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", field, s)
	}
	return entities.ItemID(id), nil
}

// parseDecimal treats an empty cell as zero
func parseDecimal(s, field string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", field, s)
	}
	return d, nil
}
