package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/infrastructure/config"
	"github.com/taechang/production-core/pkg/interfaces/cli/output"
	testhelpers "github.com/taechang/production-core/pkg/infrastructure/testing"
)

var scenario = map[string]string{
	"items.csv": `item_id,item_code,item_name,unit,current_stock,price,material_type,coating_status,is_active
1,A-PRODUCT,브라켓,EA,0,1000,,,
2,B-MATERIAL,강판,EA,50,150,SHEET,,
30,C-COIL,코일,KG,120,1200,COIL,,
31,D-BLANK,블랭크,EA,0,300,SHEET,,
`,
	"bom.csv": `parent_item_id,child_item_id,quantity_required,level_no,labor_cost,machine_time,setup_time,notes
1,2,2,1,,,,
`,
	"coil_specs.csv": `item_id,weight_per_piece,thickness,width,length,material_grade
30,5,1.2,1219,,SPCC
`,
	"operations.csv": `operation_id,operation_type,input_item_id,output_item_id,input_quantity,output_quantity,status,lot_number,created_at
hist-1,BLANKING,30,31,100,80,COMPLETED,BLK-20260101-0A0A0A,2026-01-01
`,
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	for name, content := range scenario {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := &config.Config{BOM: config.BOMConfig{MaxDepth: 50}}
	app, err := NewApp(context.Background(), cfg, nil, dir)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func run(t *testing.T, app *App, format string, args ...string) (string, error) {
	t.Helper()
	var out, stderr bytes.Buffer
	printer, err := output.NewPrinter(&out, format)
	if err != nil {
		t.Fatal(err)
	}
	err = NewRunner(app, printer, &stderr).Run(context.Background(), args)
	return out.String(), err
}

func TestRun_Explode(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, output.FormatText, "explode", "-item", "1", "-qty", "20")
	if err != nil {
		t.Fatalf("explode failed: %v", err)
	}
	if !strings.Contains(out, "B-MATERIAL") || !strings.Contains(out, "40") {
		t.Errorf("unexpected explode output:\n%s", out)
	}

	out, err = run(t, app, output.FormatJSON, "explode", "-item", "1", "-qty", "20")
	if err != nil {
		t.Fatalf("explode json failed: %v", err)
	}
	var decoded struct {
		Lines []struct {
			ItemID   int64  `json:"item_id"`
			Quantity string `json:"quantity_required_total"`
		} `json:"lines"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(decoded.Lines) != 1 || decoded.Lines[0].ItemID != 2 || decoded.Lines[0].Quantity != "40" {
		t.Errorf("unexpected JSON lines: %+v", decoded.Lines)
	}
}

func TestRun_CheckAndProduce(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, output.FormatText, "check", "-item", "1", "-qty", "30")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "CANNOT PRODUCE") {
		t.Errorf("Expected CANNOT PRODUCE, got:\n%s", out)
	}

	out, err = run(t, app, output.FormatText, "produce", "-item", "1", "-qty", "30")
	var insufficient *entities.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if !strings.Contains(out, "Insufficient stock") {
		t.Errorf("Expected shortage table, got:\n%s", out)
	}

	out, err = run(t, app, output.FormatText, "produce", "-item", "1", "-qty", "20", "-operator", "kim")
	if err != nil {
		t.Fatalf("produce failed: %v", err)
	}
	if !strings.Contains(out, "Product stock: 20") || !strings.Contains(out, "PRD-") {
		t.Errorf("unexpected produce output:\n%s", out)
	}

	item, err := app.store.GetItem(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !item.CurrentStock.Equal(testhelpers.Dec("10")) {
		t.Errorf("Expected B stock 10, got %s", item.CurrentStock)
	}
}

func TestRun_QuickAndHistory(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, output.FormatText, "efficiency", "-type", "BLANKING", "-input", "30", "-output", "31", "-in", "50")
	if err != nil {
		t.Fatalf("efficiency failed: %v", err)
	}
	if !strings.Contains(out, "80.00%") || !strings.Contains(out, "Suggested output:   40") {
		t.Errorf("unexpected efficiency output:\n%s", out)
	}

	out, err = run(t, app, output.FormatText, "coil", "-item", "30")
	if err != nil {
		t.Fatalf("coil failed: %v", err)
	}
	if !strings.Contains(out, "yields 24 piece(s)") {
		t.Errorf("unexpected coil output:\n%s", out)
	}

	out, err = run(t, app, output.FormatText, "quick", "-type", "BLANKING", "-input", "30", "-output", "31", "-in", "20", "-out", "18")
	if err != nil {
		t.Fatalf("quick failed: %v", err)
	}
	if !strings.Contains(out, "BLK-") || !strings.Contains(out, "Efficiency: 90.00%") {
		t.Errorf("unexpected quick output:\n%s", out)
	}

	out, err = run(t, app, output.FormatText, "operations", "-type", "BLANKING")
	if err != nil {
		t.Fatalf("operations failed: %v", err)
	}
	if !strings.Contains(out, "hist-1") {
		t.Errorf("Expected history in operations list:\n%s", out)
	}
}

func TestRun_BOMMaintenance(t *testing.T) {
	app := newTestApp(t)

	_, err := run(t, app, output.FormatText, "add-edge", "-parent", "2", "-child", "1", "-qty", "1")
	var circular *entities.CircularBOMError
	if !errors.As(err, &circular) {
		t.Fatalf("Expected CircularBOMError, got %v", err)
	}

	out, err := run(t, app, output.FormatText, "where-used", "-item", "2")
	if err != nil {
		t.Fatalf("where-used failed: %v", err)
	}
	if !strings.Contains(out, "A-PRODUCT") {
		t.Errorf("unexpected where-used output:\n%s", out)
	}

	out, err = run(t, app, output.FormatText, "audit")
	if err != nil || !strings.Contains(out, "BOM is valid") {
		t.Errorf("unexpected audit result: %v\n%s", err, out)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"plan"}},
		{"missing item", []string{"explode"}},
		{"migrate without database", []string{"migrate"}},
		{"import without directory", []string{"import"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, app, output.FormatText, tt.args...); !errors.Is(err, ErrUsage) {
				t.Errorf("Expected ErrUsage, got %v", err)
			}
		})
	}
}

func TestRun_ImportRefreshesExplosions(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, output.FormatText, "check", "-item", "1", "-qty", "10")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if strings.Contains(out, "CANNOT PRODUCE") {
		t.Fatalf("Expected the product to be buildable before import, got:\n%s", out)
	}

	// A second batch adds a blank to product 1 that has no stock.
	dir := t.TempDir()
	batch := map[string]string{
		"items.csv": `item_id,item_code,item_name,unit,current_stock,price,material_type,coating_status,is_active
31,D-BLANK,블랭크,EA,0,300,SHEET,,
`,
		"bom.csv": `parent_item_id,child_item_id,quantity_required,level_no,labor_cost,machine_time,setup_time,notes
1,31,1,1,,,,
`,
	}
	for name, content := range batch {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	out, err = run(t, app, output.FormatText, "import", "-dir", dir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "imported 1 items, 1 BOM edges") {
		t.Errorf("unexpected import output:\n%s", out)
	}

	out, err = run(t, app, output.FormatText, "check", "-item", "1", "-qty", "10")
	if err != nil {
		t.Fatalf("check after import failed: %v", err)
	}
	if !strings.Contains(out, "CANNOT PRODUCE") || !strings.Contains(out, "D-BLANK") {
		t.Errorf("Expected the imported blank to block production, got:\n%s", out)
	}
}
