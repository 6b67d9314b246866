package postgres

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
	"gorm.io/datatypes"
)

// ItemModel is the items table row
type ItemModel struct {
	ItemID        int64             `gorm:"column:item_id;primaryKey;autoIncrement:false"`
	ItemCode      string            `gorm:"column:item_code;size:50;not null;uniqueIndex"`
	ItemName      string            `gorm:"column:item_name;size:200;not null"`
	Unit          string            `gorm:"column:unit;size:20"`
	CurrentStock  decimal.Decimal   `gorm:"column:current_stock;type:decimal(20,4);not null;check:chk_items_current_stock,current_stock >= 0"`
	Price         decimal.Decimal   `gorm:"column:price;type:decimal(20,4);not null"`
	MaterialType  string            `gorm:"column:material_type;size:20;not null"`
	CoatingStatus string            `gorm:"column:coating_status;size:20"`
	IsActive      bool              `gorm:"column:is_active;not null;index"`
	Attributes    datatypes.JSONMap `gorm:"column:attributes;type:jsonb"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
}

func (ItemModel) TableName() string { return "items" }

func newItemModel(item *entities.Item) *ItemModel {
	m := &ItemModel{
		ItemID:        int64(item.ItemID),
		ItemCode:      item.ItemCode,
		ItemName:      item.ItemName,
		Unit:          item.Unit,
		CurrentStock:  item.CurrentStock,
		Price:         item.Price,
		MaterialType:  string(item.MaterialType),
		CoatingStatus: item.CoatingStatus,
		IsActive:      item.IsActive,
	}
	if m.MaterialType == "" {
		m.MaterialType = string(entities.MaterialOther)
	}
	if len(item.Attributes) > 0 {
		m.Attributes = datatypes.JSONMap(item.Attributes)
	}
	return m
}

func (m *ItemModel) toEntity() *entities.Item {
	item := &entities.Item{
		ItemID:        entities.ItemID(m.ItemID),
		ItemCode:      m.ItemCode,
		ItemName:      m.ItemName,
		Unit:          m.Unit,
		CurrentStock:  m.CurrentStock,
		Price:         m.Price,
		MaterialType:  entities.MaterialType(m.MaterialType),
		CoatingStatus: m.CoatingStatus,
		IsActive:      m.IsActive,
	}
	if len(m.Attributes) > 0 {
		item.Attributes = map[string]any(m.Attributes)
	}
	return item
}

// BOMModel is the bom table row
type BOMModel struct {
	BOMID            int64           `gorm:"column:bom_id;primaryKey;autoIncrement"`
	ParentItemID     int64           `gorm:"column:parent_item_id;not null;index"`
	ChildItemID      int64           `gorm:"column:child_item_id;not null;index"`
	QuantityRequired decimal.Decimal `gorm:"column:quantity_required;type:decimal(20,4);not null"`
	LevelNo          int             `gorm:"column:level_no;not null"`
	LaborCost        decimal.Decimal `gorm:"column:labor_cost;type:decimal(20,4);not null"`
	MachineTime      decimal.Decimal `gorm:"column:machine_time;type:decimal(20,4);not null"`
	SetupTime        decimal.Decimal `gorm:"column:setup_time;type:decimal(20,4);not null"`
	Notes            string          `gorm:"column:notes;type:text"`
	IsActive         bool            `gorm:"column:is_active;not null;index"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}

func (BOMModel) TableName() string { return "bom" }

func newBOMModel(e *entities.BOMEdge) *BOMModel {
	return &BOMModel{
		BOMID:            e.BOMID,
		ParentItemID:     int64(e.ParentItemID),
		ChildItemID:      int64(e.ChildItemID),
		QuantityRequired: e.QuantityRequired,
		LevelNo:          e.LevelNo,
		LaborCost:        e.LaborCost,
		MachineTime:      e.MachineTime,
		SetupTime:        e.SetupTime,
		Notes:            e.Notes,
		IsActive:         e.IsActive,
	}
}

func (m *BOMModel) toEntity() *entities.BOMEdge {
	return &entities.BOMEdge{
		BOMID:            m.BOMID,
		ParentItemID:     entities.ItemID(m.ParentItemID),
		ChildItemID:      entities.ItemID(m.ChildItemID),
		QuantityRequired: m.QuantityRequired,
		LevelNo:          m.LevelNo,
		LaborCost:        m.LaborCost,
		MachineTime:      m.MachineTime,
		SetupTime:        m.SetupTime,
		Notes:            m.Notes,
		IsActive:         m.IsActive,
	}
}

// CoilSpecModel is the coil_specs table row
type CoilSpecModel struct {
	ID             uint            `gorm:"column:id;primaryKey"`
	ItemID         int64           `gorm:"column:item_id;not null;index"`
	WeightPerPiece decimal.Decimal `gorm:"column:weight_per_piece;type:decimal(20,4);not null"`
	Thickness      decimal.Decimal `gorm:"column:thickness;type:decimal(10,3)"`
	Width          decimal.Decimal `gorm:"column:width;type:decimal(10,3)"`
	Length         decimal.Decimal `gorm:"column:length;type:decimal(10,3)"`
	MaterialGrade  string          `gorm:"column:material_grade;size:50"`
}

func (CoilSpecModel) TableName() string { return "coil_specs" }

// OperationModel is the process_operations table row
type OperationModel struct {
	OperationID    string          `gorm:"column:operation_id;primaryKey;size:36"`
	OperationType  string          `gorm:"column:operation_type;size:20;not null;index:idx_operations_triple"`
	InputItemID    int64           `gorm:"column:input_item_id;index:idx_operations_triple"`
	OutputItemID   int64           `gorm:"column:output_item_id;not null;index:idx_operations_triple"`
	InputQuantity  decimal.Decimal `gorm:"column:input_quantity;type:decimal(20,4);not null"`
	OutputQuantity decimal.Decimal `gorm:"column:output_quantity;type:decimal(20,4);not null"`
	ScrapQuantity  decimal.Decimal `gorm:"column:scrap_quantity;type:decimal(20,4);not null"`
	UseBOM         bool            `gorm:"column:use_bom;not null"`
	Status         string          `gorm:"column:status;size:20;not null;index"`
	Efficiency     decimal.Decimal `gorm:"column:efficiency;type:decimal(7,2);not null"`
	LotNumber      string          `gorm:"column:lot_number;size:30;uniqueIndex"`
	OperatorID     string          `gorm:"column:operator_id;size:50"`
	Notes          string          `gorm:"column:notes;type:text"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime:false"`
	StartedAt      *time.Time      `gorm:"column:started_at"`
	CompletedAt    *time.Time      `gorm:"column:completed_at"`
	CancelledAt    *time.Time      `gorm:"column:cancelled_at"`
}

func (OperationModel) TableName() string { return "process_operations" }

func newOperationModel(op *entities.OperationRecord) *OperationModel {
	return &OperationModel{
		OperationID:    op.OperationID,
		OperationType:  string(op.OperationType),
		InputItemID:    int64(op.InputItemID),
		OutputItemID:   int64(op.OutputItemID),
		InputQuantity:  op.InputQuantity,
		OutputQuantity: op.OutputQuantity,
		ScrapQuantity:  op.ScrapQuantity,
		UseBOM:         op.UseBOM,
		Status:         string(op.Status),
		Efficiency:     op.Efficiency,
		LotNumber:      op.LotNumber,
		OperatorID:     op.OperatorID,
		Notes:          op.Notes,
		CreatedAt:      op.CreatedAt,
		StartedAt:      op.StartedAt,
		CompletedAt:    op.CompletedAt,
		CancelledAt:    op.CancelledAt,
	}
}

func (m *OperationModel) toEntity() *entities.OperationRecord {
	return &entities.OperationRecord{
		OperationID:    m.OperationID,
		OperationType:  entities.OperationType(m.OperationType),
		InputItemID:    entities.ItemID(m.InputItemID),
		OutputItemID:   entities.ItemID(m.OutputItemID),
		InputQuantity:  m.InputQuantity,
		OutputQuantity: m.OutputQuantity,
		ScrapQuantity:  m.ScrapQuantity,
		UseBOM:         m.UseBOM,
		Status:         entities.OperationStatus(m.Status),
		Efficiency:     m.Efficiency,
		LotNumber:      m.LotNumber,
		OperatorID:     m.OperatorID,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
		CancelledAt:    m.CancelledAt,
	}
}

// DeductionModel is the operation_deductions table row
type DeductionModel struct {
	ID               uint            `gorm:"column:id;primaryKey"`
	OperationID      string          `gorm:"column:operation_id;size:36;not null;index"`
	ItemID           int64           `gorm:"column:item_id;not null;index"`
	ItemCode         string          `gorm:"column:item_code;size:50"`
	DeductedQuantity decimal.Decimal `gorm:"column:deducted_quantity;type:decimal(20,4);not null"`
	StockBefore      decimal.Decimal `gorm:"column:stock_before;type:decimal(20,4);not null"`
	StockAfter       decimal.Decimal `gorm:"column:stock_after;type:decimal(20,4);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime:false"`
}

func (DeductionModel) TableName() string { return "operation_deductions" }

func (m *DeductionModel) toEntity() *entities.DeductionRecord {
	return &entities.DeductionRecord{
		OperationID:      m.OperationID,
		ItemID:           entities.ItemID(m.ItemID),
		ItemCode:         m.ItemCode,
		DeductedQuantity: m.DeductedQuantity,
		StockBefore:      m.StockBefore,
		StockAfter:       m.StockAfter,
		CreatedAt:        m.CreatedAt,
	}
}

// Models lists every table owned by the production core, in migration order
func Models() []any {
	return []any{
		&ItemModel{},
		&BOMModel{},
		&CoilSpecModel{},
		&OperationModel{},
		&DeductionModel{},
	}
}
