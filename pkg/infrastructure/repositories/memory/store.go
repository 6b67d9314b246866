package memory

import (
	"sync"

	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
)

// Store is an in-memory backing for every repository of the production core.
// Ledger transactions are serialized; reads outside a transaction see committed state only.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	items      map[entities.ItemID]*entities.Item
	edges      []*entities.BOMEdge
	byParent   map[entities.ItemID][]int
	byChild    map[entities.ItemID][]int
	nextBOMID  int64
	revision   int64
	coilSpecs  map[entities.ItemID][]*entities.CoilSpec
	operations map[string]*entities.OperationRecord
	opOrder    []string
	deductions map[string][]*entities.DeductionRecord
}

// NewStore creates an empty store sized for the expected item count
func NewStore(expectedItems int) *Store {
	return &Store{
		items:      make(map[entities.ItemID]*entities.Item, expectedItems),
		edges:      make([]*entities.BOMEdge, 0, expectedItems),
		byParent:   make(map[entities.ItemID][]int, expectedItems),
		byChild:    make(map[entities.ItemID][]int, expectedItems),
		coilSpecs:  make(map[entities.ItemID][]*entities.CoilSpec),
		operations: make(map[string]*entities.OperationRecord),
		deductions: make(map[string][]*entities.DeductionRecord),
	}
}

// Verify interface compliance
var (
	_ repositories.ItemRepository      = (*Store)(nil)
	_ repositories.BOMRepository       = (*Store)(nil)
	_ repositories.CoilSpecRepository  = (*Store)(nil)
	_ repositories.OperationRepository = (*Store)(nil)
	_ repositories.StockLedger         = (*Store)(nil)
)
