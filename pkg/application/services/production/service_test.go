package production

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/application/dto"
	"github.com/taechang/production-core/pkg/application/services/bom"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
	"github.com/taechang/production-core/pkg/infrastructure/events"
	"github.com/taechang/production-core/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/taechang/production-core/pkg/infrastructure/testing"
)

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newService(store *memory.Store, eventStore events.EventStore) *Service {
	svc := NewService(store, store, bom.NewResolver(store, store, nil), eventStore, nil)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func stockOf(t *testing.T, store *memory.Store, id entities.ItemID) decimal.Decimal {
	t.Helper()
	item, err := store.GetItem(context.Background(), id)
	if err != nil {
		t.Fatalf("get item %d: %v", id, err)
	}
	return item.CurrentStock
}

func assertStock(t *testing.T, store *memory.Store, id entities.ItemID, want string) {
	t.Helper()
	if got := stockOf(t, store, id); !got.Equal(testhelpers.Dec(want)) {
		t.Errorf("item %d: expected stock %s, got %s", id, want, got)
	}
}

func TestExecuteProduction_SimpleProduction(t *testing.T) {
	store := testhelpers.BuildSimpleProduction("50")
	svc := newService(store, nil)

	result, err := svc.ExecuteProduction(context.Background(), dto.ProductionRequest{
		ProductItemID: testhelpers.ProductA,
		Quantity:      testhelpers.Dec("20"),
		UseBOM:        true,
		OperatorID:    "kim",
	})
	if err != nil {
		t.Fatalf("ExecuteProduction failed: %v", err)
	}

	assertStock(t, store, testhelpers.MaterialB, "10")
	assertStock(t, store, testhelpers.ProductA, "20")

	if !result.ProductStock.Equal(testhelpers.Dec("20")) {
		t.Errorf("Expected product stock 20, got %s", result.ProductStock)
	}
	if len(result.AutoDeductions) != 1 {
		t.Fatalf("Expected 1 deduction, got %d", len(result.AutoDeductions))
	}
	d := result.AutoDeductions[0]
	if d.ItemID != testhelpers.MaterialB || !d.DeductedQuantity.Equal(testhelpers.Dec("40")) ||
		!d.StockBefore.Equal(testhelpers.Dec("50")) || !d.StockAfter.Equal(testhelpers.Dec("10")) {
		t.Errorf("unexpected deduction: %+v", d)
	}
	if d.OperationID != result.Operation.OperationID {
		t.Errorf("deduction not linked to operation: %s vs %s", d.OperationID, result.Operation.OperationID)
	}

	op := result.Operation
	if op.Status != entities.StatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", op.Status)
	}
	if op.InputItemID != 0 || !op.UseBOM {
		t.Errorf("Expected BOM production without input item, got input %d use_bom %v", op.InputItemID, op.UseBOM)
	}
	if !op.Efficiency.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected efficiency 100, got %s", op.Efficiency)
	}
	if !strings.HasPrefix(op.LotNumber, "PRD-20261016-") {
		t.Errorf("unexpected lot number %s", op.LotNumber)
	}

	stored, err := svc.GetOperation(context.Background(), op.OperationID)
	if err != nil {
		t.Fatalf("GetOperation failed: %v", err)
	}
	if stored.Status != entities.StatusCompleted {
		t.Errorf("Expected stored status COMPLETED, got %s", stored.Status)
	}
	deductions, _ := svc.GetDeductions(context.Background(), op.OperationID)
	if len(deductions) != 1 {
		t.Errorf("Expected 1 stored deduction, got %d", len(deductions))
	}
}

func TestExecuteProduction_InsufficientStockAborts(t *testing.T) {
	store := testhelpers.BuildSimpleProduction("30")
	eventStore := events.NewInMemoryEventStore(nil)
	svc := newService(store, eventStore)

	_, err := svc.ExecuteProduction(context.Background(), dto.ProductionRequest{
		ProductItemID: testhelpers.ProductA,
		Quantity:      testhelpers.Dec("20"),
		UseBOM:        true,
	})

	var insufficient *entities.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if len(insufficient.Shortages) != 1 {
		t.Fatalf("Expected 1 shortage, got %d", len(insufficient.Shortages))
	}
	s := insufficient.Shortages[0]
	if !s.Required.Equal(testhelpers.Dec("40")) || !s.Available.Equal(testhelpers.Dec("30")) || !s.Short.Equal(testhelpers.Dec("10")) {
		t.Errorf("unexpected shortage: %+v", s)
	}

	assertStock(t, store, testhelpers.MaterialB, "30")
	assertStock(t, store, testhelpers.ProductA, "0")

	ops, _ := svc.ListOperations(context.Background(), repositories.OperationQuery{})
	if len(ops) != 0 {
		t.Errorf("Expected no operation record after rollback, got %d", len(ops))
	}
	rejected, _ := eventStore.ReadEvents(events.ItemStream(testhelpers.ProductA), 1)
	if len(rejected) != 1 || rejected[0].Type() != events.ProductionRejectedEvent {
		t.Errorf("Expected one production.rejected event, got %+v", rejected)
	}
}

func TestExecuteProduction_NoPartialDeduction(t *testing.T) {
	const product, x, y entities.ItemID = 1, 2, 3
	store := memory.NewStore(3)
	if err := store.LoadItems([]*entities.Item{
		testhelpers.NewItem(product, "P", "0", "0"),
		testhelpers.NewItem(x, "X", "100", "0"),
		testhelpers.NewItem(y, "Y", "10", "0"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.LoadBOMEdges([]*entities.BOMEdge{
		testhelpers.NewEdge(product, x, "2"),
		testhelpers.NewEdge(product, y, "3"),
	}); err != nil {
		t.Fatal(err)
	}

	before := stockOf(t, store, x)
	_, err := newService(store, nil).ExecuteProduction(context.Background(), dto.ProductionRequest{
		ProductItemID: product,
		Quantity:      testhelpers.Dec("10"),
		UseBOM:        true,
	})
	var insufficient *entities.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if len(insufficient.Shortages) != 1 || insufficient.Shortages[0].ItemID != y {
		t.Errorf("Expected only Y short, got %+v", insufficient.Shortages)
	}
	if after := stockOf(t, store, x); !after.Equal(before) {
		t.Errorf("X stock changed from %s to %s", before, after)
	}
	assertStock(t, store, y, "10")
}

func TestExecuteProduction_DeductsEveryExplodedItem(t *testing.T) {
	store := testhelpers.BuildDiamond()

	result, err := newService(store, nil).ExecuteProduction(context.Background(), dto.ProductionRequest{
		ProductItemID: testhelpers.DiamondRoot,
		Quantity:      testhelpers.Dec("10"),
		UseBOM:        true,
	})
	if err != nil {
		t.Fatalf("ExecuteProduction failed: %v", err)
	}
	if len(result.AutoDeductions) != 4 {
		t.Errorf("Expected 4 deductions, got %d", len(result.AutoDeductions))
	}
	assertStock(t, store, testhelpers.DiamondSub1, "80")
	assertStock(t, store, testhelpers.DiamondSub2, "70")
	assertStock(t, store, testhelpers.DiamondLeaf, "920")
	assertStock(t, store, testhelpers.DiamondBolt, "920")
	assertStock(t, store, testhelpers.DiamondRoot, "10")
}

func TestExecuteProduction_Variants(t *testing.T) {
	tests := []struct {
		name        string
		req         dto.ProductionRequest
		wantErr     bool
		productWant string
		bWant       string
		efficiency  string
	}{
		{
			name:        "scrap reduces net output",
			req:         dto.ProductionRequest{Quantity: testhelpers.Dec("20"), ScrapQuantity: testhelpers.Dec("2"), UseBOM: true},
			productWant: "18",
			bWant:       "10",
			efficiency:  "90",
		},
		{
			name:        "without BOM only adds product",
			req:         dto.ProductionRequest{Quantity: testhelpers.Dec("5")},
			productWant: "5",
			bWant:       "50",
			efficiency:  "100",
		},
		{
			name:        "scrap equal to quantity",
			req:         dto.ProductionRequest{Quantity: testhelpers.Dec("5"), ScrapQuantity: testhelpers.Dec("5"), UseBOM: true},
			wantErr:     true,
			productWant: "0",
			bWant:       "50",
		},
		{
			name:        "zero quantity",
			req:         dto.ProductionRequest{Quantity: decimal.Zero, UseBOM: true},
			wantErr:     true,
			productWant: "0",
			bWant:       "50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testhelpers.BuildSimpleProduction("50")
			req := tt.req
			req.ProductItemID = testhelpers.ProductA

			result, err := newService(store, nil).ExecuteProduction(context.Background(), req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExecuteProduction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var qtyErr *entities.InvalidQuantityError
				if !errors.As(err, &qtyErr) {
					t.Errorf("Expected InvalidQuantityError, got %v", err)
				}
			} else if !result.Operation.Efficiency.Equal(testhelpers.Dec(tt.efficiency)) {
				t.Errorf("Expected efficiency %s, got %s", tt.efficiency, result.Operation.Efficiency)
			}
			assertStock(t, store, testhelpers.ProductA, tt.productWant)
			assertStock(t, store, testhelpers.MaterialB, tt.bWant)
		})
	}
}

func TestExecuteProduction_ConcurrentRunsNeverOverDeduct(t *testing.T) {
	store := testhelpers.BuildSimpleProduction("50")
	svc := newService(store, nil)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ExecuteProduction(context.Background(), dto.ProductionRequest{
				ProductItemID: testhelpers.ProductA,
				Quantity:      testhelpers.Dec("5"),
				UseBOM:        true,
			})
			mu.Lock()
			defer mu.Unlock()
			var insufficient *entities.InsufficientStockError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &insufficient):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 || rejected != 5 {
		t.Errorf("Expected 5 successes and 5 rejections, got %d and %d", succeeded, rejected)
	}
	assertStock(t, store, testhelpers.MaterialB, "0")
	assertStock(t, store, testhelpers.ProductA, "25")
}

func TestQuickOperation(t *testing.T) {
	store := testhelpers.BuildCoil()
	eventStore := events.NewInMemoryEventStore(nil)
	svc := newService(store, eventStore)

	result, err := svc.QuickOperation(context.Background(), dto.QuickOperationRequest{
		OperationType:  entities.OperationBlanking,
		InputItemID:    testhelpers.CoilC,
		OutputItemID:   testhelpers.BlankD,
		InputQuantity:  testhelpers.Dec("100"),
		OutputQuantity: testhelpers.Dec("95"),
		OperatorID:     "park",
	})
	if err != nil {
		t.Fatalf("QuickOperation failed: %v", err)
	}

	if !regexp.MustCompile(`^BLK-20261016-[0-9A-F]{6}$`).MatchString(result.LotNumber) {
		t.Errorf("unexpected lot number %s", result.LotNumber)
	}
	if !result.Efficiency.Equal(testhelpers.Dec("95")) {
		t.Errorf("Expected efficiency 95, got %s", result.Efficiency)
	}
	if !result.CurrentStocks.Input.CurrentStock.Equal(testhelpers.Dec("20")) {
		t.Errorf("Expected input stock 20, got %s", result.CurrentStocks.Input.CurrentStock)
	}
	if !result.CurrentStocks.Output.CurrentStock.Equal(testhelpers.Dec("95")) {
		t.Errorf("Expected output stock 95, got %s", result.CurrentStocks.Output.CurrentStock)
	}
	assertStock(t, store, testhelpers.CoilC, "20")
	assertStock(t, store, testhelpers.BlankD, "95")

	deductions, _ := svc.GetDeductions(context.Background(), result.Operation.OperationID)
	if len(deductions) != 1 || deductions[0].ItemID != testhelpers.CoilC {
		t.Errorf("Expected one deduction for the coil, got %+v", deductions)
	}

	eventStore.Wait()
	stream, _ := eventStore.ReadEvents(events.OperationStream(result.Operation.OperationID), 1)
	if len(stream) != 1 || stream[0].Type() != events.OperationCompletedEvent {
		t.Errorf("Expected operation.completed event, got %+v", stream)
	}
}

func TestQuickOperation_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  dto.QuickOperationRequest
		want func(error) bool
	}{
		{
			name: "insufficient input",
			req: dto.QuickOperationRequest{OperationType: entities.OperationBlanking, InputItemID: testhelpers.CoilC,
				OutputItemID: testhelpers.BlankD, InputQuantity: testhelpers.Dec("200"), OutputQuantity: testhelpers.Dec("1")},
			want: func(err error) bool {
				var target *entities.InsufficientStockError
				return errors.As(err, &target)
			},
		},
		{
			name: "unknown output",
			req: dto.QuickOperationRequest{OperationType: entities.OperationPress, InputItemID: testhelpers.CoilC,
				OutputItemID: 999, InputQuantity: testhelpers.Dec("1"), OutputQuantity: testhelpers.Dec("1")},
			want: func(err error) bool {
				var target *entities.ItemNotFoundError
				return errors.As(err, &target)
			},
		},
		{
			name: "same input and output",
			req: dto.QuickOperationRequest{OperationType: entities.OperationPress, InputItemID: testhelpers.CoilC,
				OutputItemID: testhelpers.CoilC, InputQuantity: testhelpers.Dec("1"), OutputQuantity: testhelpers.Dec("1")},
			want: func(err error) bool { return err != nil },
		},
		{
			name: "unknown operation type",
			req: dto.QuickOperationRequest{OperationType: "WELDING", InputItemID: testhelpers.CoilC,
				OutputItemID: testhelpers.BlankD, InputQuantity: testhelpers.Dec("1"), OutputQuantity: testhelpers.Dec("1")},
			want: func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testhelpers.BuildCoil()
			_, err := newService(store, nil).QuickOperation(context.Background(), tt.req)
			if !tt.want(err) {
				t.Errorf("unexpected error: %v", err)
			}
			assertStock(t, store, testhelpers.CoilC, "120")
			assertStock(t, store, testhelpers.BlankD, "0")
		})
	}
}

func TestStagedOperation_Lifecycle(t *testing.T) {
	store := testhelpers.BuildCoil()
	svc := newService(store, nil)
	ctx := context.Background()

	op, err := svc.CreateOperation(ctx, dto.CreateOperationRequest{
		OperationType:  entities.OperationBlanking,
		InputItemID:    testhelpers.CoilC,
		OutputItemID:   testhelpers.BlankD,
		InputQuantity:  testhelpers.Dec("60"),
		OutputQuantity: testhelpers.Dec("12"),
	})
	if err != nil {
		t.Fatalf("CreateOperation failed: %v", err)
	}
	if op.Status != entities.StatusPending {
		t.Fatalf("Expected PENDING, got %s", op.Status)
	}
	assertStock(t, store, testhelpers.CoilC, "120")

	var transitionErr *entities.InvalidTransitionError
	if _, err := svc.CompleteOperation(ctx, op.OperationID); !errors.As(err, &transitionErr) {
		t.Fatalf("Expected completing a PENDING operation to fail, got %v", err)
	}

	started, err := svc.StartOperation(ctx, op.OperationID)
	if err != nil {
		t.Fatalf("StartOperation failed: %v", err)
	}
	if started.Status != entities.StatusInProgress {
		t.Fatalf("Expected IN_PROGRESS, got %s", started.Status)
	}
	assertStock(t, store, testhelpers.CoilC, "120")

	completed, err := svc.CompleteOperation(ctx, op.OperationID)
	if err != nil {
		t.Fatalf("CompleteOperation failed: %v", err)
	}
	if completed.Operation.Status != entities.StatusCompleted || !completed.Operation.Efficiency.Equal(testhelpers.Dec("20")) {
		t.Errorf("unexpected completed operation: %+v", completed.Operation)
	}
	assertStock(t, store, testhelpers.CoilC, "60")
	assertStock(t, store, testhelpers.BlankD, "12")

	if _, err := svc.CompleteOperation(ctx, op.OperationID); !errors.As(err, &transitionErr) {
		t.Errorf("Expected second completion to fail, got %v", err)
	}
	if _, err := svc.CancelOperation(ctx, op.OperationID); !errors.As(err, &transitionErr) {
		t.Errorf("Expected cancelling a COMPLETED operation to fail, got %v", err)
	}
	assertStock(t, store, testhelpers.CoilC, "60")
}

func TestStagedOperation_CancelNeverMovesStock(t *testing.T) {
	store := testhelpers.BuildSimpleProduction("50")
	svc := newService(store, nil)
	ctx := context.Background()

	op, err := svc.CreateOperation(ctx, dto.CreateOperationRequest{
		OperationType:  entities.OperationProduction,
		OutputItemID:   testhelpers.ProductA,
		InputQuantity:  testhelpers.Dec("10"),
		OutputQuantity: testhelpers.Dec("10"),
		UseBOM:         true,
	})
	if err != nil {
		t.Fatalf("CreateOperation failed: %v", err)
	}
	if _, err := svc.StartOperation(ctx, op.OperationID); err != nil {
		t.Fatalf("StartOperation failed: %v", err)
	}
	cancelled, err := svc.CancelOperation(ctx, op.OperationID)
	if err != nil {
		t.Fatalf("CancelOperation failed: %v", err)
	}
	if cancelled.Status != entities.StatusCancelled || cancelled.CancelledAt == nil {
		t.Errorf("Expected CANCELLED with timestamp, got %+v", cancelled)
	}

	var transitionErr *entities.InvalidTransitionError
	if _, err := svc.StartOperation(ctx, op.OperationID); !errors.As(err, &transitionErr) {
		t.Errorf("Expected start after cancel to fail, got %v", err)
	}
	if _, err := svc.CompleteOperation(ctx, op.OperationID); !errors.As(err, &transitionErr) {
		t.Errorf("Expected complete after cancel to fail, got %v", err)
	}
	assertStock(t, store, testhelpers.MaterialB, "50")
	assertStock(t, store, testhelpers.ProductA, "0")
}

func TestStagedOperation_CompleteRechecksStock(t *testing.T) {
	store := testhelpers.BuildSimpleProduction("50")
	svc := newService(store, nil)
	ctx := context.Background()

	op, err := svc.CreateOperation(ctx, dto.CreateOperationRequest{
		OperationType:  entities.OperationProduction,
		OutputItemID:   testhelpers.ProductA,
		InputQuantity:  testhelpers.Dec("20"),
		OutputQuantity: testhelpers.Dec("20"),
		UseBOM:         true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.StartOperation(ctx, op.OperationID); err != nil {
		t.Fatal(err)
	}

	// Another run consumes B between start and completion.
	if _, err := svc.ExecuteProduction(ctx, dto.ProductionRequest{
		ProductItemID: testhelpers.ProductA, Quantity: testhelpers.Dec("10"), UseBOM: true,
	}); err != nil {
		t.Fatal(err)
	}

	var insufficient *entities.InsufficientStockError
	if _, err := svc.CompleteOperation(ctx, op.OperationID); !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	stored, _ := svc.GetOperation(ctx, op.OperationID)
	if stored.Status != entities.StatusInProgress {
		t.Errorf("Expected operation to stay IN_PROGRESS, got %s", stored.Status)
	}
	assertStock(t, store, testhelpers.MaterialB, "30")
}

func TestCreateOperation_Scrap(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.CreateOperationRequest
		wantErr bool
	}{
		{
			name: "BOM run with output plus scrap above input",
			req: dto.CreateOperationRequest{
				OperationType: entities.OperationProduction, OutputItemID: testhelpers.ProductA,
				InputQuantity: testhelpers.Dec("10"), OutputQuantity: testhelpers.Dec("10"), ScrapQuantity: testhelpers.Dec("2"),
				UseBOM: true,
			},
			wantErr: true,
		},
		{
			name: "same-unit process run with output plus scrap above input",
			req: dto.CreateOperationRequest{
				OperationType: entities.OperationPress, InputItemID: testhelpers.MaterialB, OutputItemID: testhelpers.ProductA,
				InputQuantity: testhelpers.Dec("10"), OutputQuantity: testhelpers.Dec("10"), ScrapQuantity: testhelpers.Dec("2"),
			},
			wantErr: true,
		},
		{
			name: "same-unit process run that adds up",
			req: dto.CreateOperationRequest{
				OperationType: entities.OperationPress, InputItemID: testhelpers.MaterialB, OutputItemID: testhelpers.ProductA,
				InputQuantity: testhelpers.Dec("10"), OutputQuantity: testhelpers.Dec("8"), ScrapQuantity: testhelpers.Dec("2"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(testhelpers.BuildSimpleProduction("50"), nil)
			_, err := svc.CreateOperation(context.Background(), tt.req)
			var invalid *entities.InvalidQuantityError
			if tt.wantErr && !errors.As(err, &invalid) {
				t.Errorf("Expected InvalidQuantityError, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected operation to be created, got %v", err)
			}
		})
	}
}

func TestCompleteOperation_ScrapIsNotSubtractedTwice(t *testing.T) {
	store := testhelpers.BuildSimpleProduction("50")
	svc := newService(store, nil)
	ctx := context.Background()

	op, err := svc.CreateOperation(ctx, dto.CreateOperationRequest{
		OperationType:  entities.OperationPress,
		InputItemID:    testhelpers.MaterialB,
		OutputItemID:   testhelpers.ProductA,
		InputQuantity:  testhelpers.Dec("10"),
		OutputQuantity: testhelpers.Dec("8"),
		ScrapQuantity:  testhelpers.Dec("2"),
	})
	if err != nil {
		t.Fatalf("CreateOperation failed: %v", err)
	}
	if _, err := svc.StartOperation(ctx, op.OperationID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CompleteOperation(ctx, op.OperationID); err != nil {
		t.Fatalf("CompleteOperation failed: %v", err)
	}
	assertStock(t, store, testhelpers.MaterialB, "40")
	assertStock(t, store, testhelpers.ProductA, "8")
}

func TestCreateOperation_ScrapAcrossUnits(t *testing.T) {
	svc := newService(testhelpers.BuildCoil(), nil)

	// 60 kg of coil into 12 blanks: kilograms and pieces are not compared.
	_, err := svc.CreateOperation(context.Background(), dto.CreateOperationRequest{
		OperationType:  entities.OperationBlanking,
		InputItemID:    testhelpers.CoilC,
		OutputItemID:   testhelpers.BlankD,
		InputQuantity:  testhelpers.Dec("60"),
		OutputQuantity: testhelpers.Dec("12"),
		ScrapQuantity:  testhelpers.Dec("60"),
	})
	if err != nil {
		t.Errorf("Expected operation to be created, got %v", err)
	}
}

func TestOperationNotFound(t *testing.T) {
	svc := newService(testhelpers.BuildCoil(), nil)

	if _, err := svc.StartOperation(context.Background(), "missing"); !errors.Is(err, entities.ErrOperationNotFound) {
		t.Errorf("Expected ErrOperationNotFound, got %v", err)
	}
	if _, err := svc.CompleteOperation(context.Background(), "missing"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestNewLotNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^(BLK|PRS|ASM|PRD)-20261016-[0-9A-F]{6}$`)
	for _, opType := range []entities.OperationType{
		entities.OperationBlanking, entities.OperationPress, entities.OperationAssembly, entities.OperationProduction,
	} {
		lot := NewLotNumber(opType, fixedNow)
		if !pattern.MatchString(lot) || !strings.HasPrefix(lot, opType.LotPrefix()) {
			t.Errorf("%s: unexpected lot number %s", opType, lot)
		}
	}
}
