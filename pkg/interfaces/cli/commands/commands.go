package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/application/dto"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
	"github.com/taechang/production-core/pkg/infrastructure/repositories/csv"
	"github.com/taechang/production-core/pkg/infrastructure/repositories/postgres"
	"github.com/taechang/production-core/pkg/interfaces/cli/output"
	"go.uber.org/zap"
)

// ErrUsage is returned for a missing or unknown command
var ErrUsage = errors.New("usage error")

const usage = `bomctl - BOM and production core for the 태창금속 ERP

USAGE:
    bomctl [global options] <command> [command options]

GLOBAL OPTIONS:
    -data <dir>       Scenario directory with items.csv and bom.csv (optional
                      coil_specs.csv, operations.csv). Changes are not saved.
                      Omit to use the configured PostgreSQL database.
    -config <dir>     Extra directory to search for config.yaml
    -env <file>       .env file to load (default: .env)
    -format <fmt>     Output format: text, json (default: text)

COMMANDS:
    explode      -item <id> [-qty <n>]             Flattened component requirements
    where-used   -item <id> [-all]                 Parents (or all ancestors) of an item
    structure    -item <id>                        Direct parents and components
    rollup       -item <id> [-qty <n>]             Material, labor and time totals
    check        -item <id> [-qty <n>]             Can the product be built from stock
    produce      -item <id> -qty <n> [-scrap <n>] [-no-bom] [-operator <id>] [-notes <s>]
    quick        -type <T> -input <id> -output <id> -in <n> -out <n> [-operator <id>]
    create-op    -type <T> -input <id> -output <id> -in <n> -out <n> [-scrap <n>] [-bom]
    start-op     -id <operation id>
    complete-op  -id <operation id>
    cancel-op    -id <operation id>
    operations   [-type <T>] [-status <S>] [-input <id>] [-output <id>]
    efficiency   -type <T> -input <id> -output <id> [-in <n>]
    coil         -item <id> [-weight <kg>]
    add-edge     -parent <id> -child <id> -qty <n> [-level <n>]
    remove-edge  -id <bom id>
    audit                                          Check the BOM for cycles and duplicates
    migrate                                        Create or update tables (PostgreSQL)
    import       -dir <dir>                        Load CSV files into the current store

Operation types: BLANKING, PRESS, ASSEMBLY, PRODUCTION
`

// PrintUsage writes the command overview
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}

// Runner executes one bomctl command against an App
type Runner struct {
	app    *App
	out    *output.Printer
	stderr io.Writer
}

// NewRunner creates a runner printing results through out and flag errors to stderr
func NewRunner(app *App, out *output.Printer, stderr io.Writer) *Runner {
	return &Runner{app: app, out: out, stderr: stderr}
}

// Run dispatches args[0] to its command
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	handlers := map[string]func(context.Context, []string) error{
		"explode":     r.explode,
		"where-used":  r.whereUsed,
		"structure":   r.structure,
		"rollup":      r.rollup,
		"check":       r.check,
		"produce":     r.produce,
		"quick":       r.quick,
		"create-op":   r.createOperation,
		"start-op":    r.startOperation,
		"complete-op": r.completeOperation,
		"cancel-op":   r.cancelOperation,
		"operations":  r.operations,
		"efficiency":  r.efficiency,
		"coil":        r.coil,
		"add-edge":    r.addEdge,
		"remove-edge": r.removeEdge,
		"audit":       r.audit,
		"migrate":     r.migrate,
		"import":      r.importDir,
	}
	handler, ok := handlers[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	r.app.Logger.Debug("running command", zap.String("command", args[0]), zap.Strings("args", args[1:]))
	return handler(ctx, args[1:])
}

// decimalFlag parses a flag value with shopspring/decimal
type decimalFlag struct {
	value *decimal.Decimal
}

func (f decimalFlag) String() string {
	if f.value == nil {
		return ""
	}
	return f.value.String()
}

func (f decimalFlag) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f.value = d
	return nil
}

func (r *Runner) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	return fs
}

func decimalVar(fs *flag.FlagSet, name string, value decimal.Decimal, help string) *decimal.Decimal {
	d := value
	fs.Var(decimalFlag{value: &d}, name, help)
	return &d
}

func itemVar(fs *flag.FlagSet, name, help string) *int64 {
	return fs.Int64(name, 0, help)
}

func requireItem(name string, id int64) (entities.ItemID, error) {
	if id <= 0 {
		return 0, fmt.Errorf("%w: -%s is required", ErrUsage, name)
	}
	return entities.ItemID(id), nil
}

func (r *Runner) explode(ctx context.Context, args []string) error {
	fs := r.flags("explode")
	item := itemVar(fs, "item", "Root item id")
	qty := decimalVar(fs, "qty", decimal.NewFromInt(1), "Quantity of the root item")
	if err := fs.Parse(args); err != nil {
		return err
	}
	root, err := requireItem("item", *item)
	if err != nil {
		return err
	}

	lines, err := r.app.Resolver.Explode(ctx, root, *qty)
	if err != nil {
		return err
	}
	return r.out.Explosion(root, *qty, lines)
}

func (r *Runner) whereUsed(ctx context.Context, args []string) error {
	fs := r.flags("where-used")
	item := itemVar(fs, "item", "Component item id")
	all := fs.Bool("all", false, "List every transitive ancestor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireItem("item", *item)
	if err != nil {
		return err
	}

	if *all {
		ancestors, err := r.app.Resolver.WhereUsedTransitive(ctx, id)
		if err != nil {
			return err
		}
		return r.out.Ancestors(id, ancestors)
	}
	entries, err := r.app.Resolver.WhereUsed(ctx, id)
	if err != nil {
		return err
	}
	return r.out.WhereUsed(id, entries)
}

func (r *Runner) structure(ctx context.Context, args []string) error {
	fs := r.flags("structure")
	item := itemVar(fs, "item", "Item id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireItem("item", *item)
	if err != nil {
		return err
	}

	s, err := r.app.Resolver.Structure(ctx, id)
	if err != nil {
		return err
	}
	return r.out.Structure(s)
}

func (r *Runner) rollup(ctx context.Context, args []string) error {
	fs := r.flags("rollup")
	item := itemVar(fs, "item", "Root item id")
	qty := decimalVar(fs, "qty", decimal.NewFromInt(1), "Quantity of the root item")
	if err := fs.Parse(args); err != nil {
		return err
	}
	root, err := requireItem("item", *item)
	if err != nil {
		return err
	}

	rollup, err := r.app.Resolver.Rollup(ctx, root, *qty)
	if err != nil {
		return err
	}
	return r.out.Rollup(rollup)
}

func (r *Runner) check(ctx context.Context, args []string) error {
	fs := r.flags("check")
	item := itemVar(fs, "item", "Product item id")
	qty := decimalVar(fs, "qty", decimal.NewFromInt(1), "Desired quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	product, err := requireItem("item", *item)
	if err != nil {
		return err
	}

	report, err := r.app.Checker.CheckBOM(ctx, product, *qty)
	if err != nil {
		return err
	}
	return r.out.Availability(report)
}

func (r *Runner) produce(ctx context.Context, args []string) error {
	fs := r.flags("produce")
	item := itemVar(fs, "item", "Product item id")
	qty := decimalVar(fs, "qty", decimal.Zero, "Quantity to produce")
	scrap := decimalVar(fs, "scrap", decimal.Zero, "Scrapped units")
	noBOM := fs.Bool("no-bom", false, "Only add product stock, consume nothing")
	operator := fs.String("operator", "", "Operator id")
	notes := fs.String("notes", "", "Free-text notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	product, err := requireItem("item", *item)
	if err != nil {
		return err
	}

	result, err := r.app.Production.ExecuteProduction(ctx, dto.ProductionRequest{
		ProductItemID: product,
		Quantity:      *qty,
		UseBOM:        !*noBOM,
		ScrapQuantity: *scrap,
		OperatorID:    *operator,
		Notes:         *notes,
	})
	if err != nil {
		return r.reportShortage(err)
	}
	return r.out.Production(result)
}

// reportShortage prints the shortage table for an InsufficientStockError and returns err unchanged
func (r *Runner) reportShortage(err error) error {
	var insufficient *entities.InsufficientStockError
	if errors.As(err, &insufficient) {
		if printErr := r.out.Shortages(insufficient); printErr != nil {
			return printErr
		}
	}
	return err
}

type operationFlags struct {
	opType   *string
	input    *int64
	output   *int64
	in       *decimal.Decimal
	out      *decimal.Decimal
	operator *string
	notes    *string
}

func bindOperationFlags(fs *flag.FlagSet) operationFlags {
	return operationFlags{
		opType:   fs.String("type", "", "Operation type"),
		input:    itemVar(fs, "input", "Input item id"),
		output:   itemVar(fs, "output", "Output item id"),
		in:       decimalVar(fs, "in", decimal.Zero, "Input quantity"),
		out:      decimalVar(fs, "out", decimal.Zero, "Output quantity"),
		operator: fs.String("operator", "", "Operator id"),
		notes:    fs.String("notes", "", "Free-text notes"),
	}
}

func (r *Runner) quick(ctx context.Context, args []string) error {
	fs := r.flags("quick")
	f := bindOperationFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := r.app.Production.QuickOperation(ctx, dto.QuickOperationRequest{
		OperationType:  entities.OperationType(*f.opType),
		InputItemID:    entities.ItemID(*f.input),
		OutputItemID:   entities.ItemID(*f.output),
		InputQuantity:  *f.in,
		OutputQuantity: *f.out,
		OperatorID:     *f.operator,
		Notes:          *f.notes,
	})
	if err != nil {
		return r.reportShortage(err)
	}
	return r.out.QuickOperation(result)
}

func (r *Runner) createOperation(ctx context.Context, args []string) error {
	fs := r.flags("create-op")
	f := bindOperationFlags(fs)
	scrap := decimalVar(fs, "scrap", decimal.Zero, "Scrapped units")
	useBOM := fs.Bool("bom", false, "Consume the exploded BOM of the output item")
	if err := fs.Parse(args); err != nil {
		return err
	}

	op, err := r.app.Production.CreateOperation(ctx, dto.CreateOperationRequest{
		OperationType:  entities.OperationType(*f.opType),
		InputItemID:    entities.ItemID(*f.input),
		OutputItemID:   entities.ItemID(*f.output),
		InputQuantity:  *f.in,
		OutputQuantity: *f.out,
		ScrapQuantity:  *scrap,
		UseBOM:         *useBOM,
		OperatorID:     *f.operator,
		Notes:          *f.notes,
	})
	if err != nil {
		return err
	}
	return r.out.Operation(op)
}

func (r *Runner) operationID(name string, args []string) (string, error) {
	fs := r.flags(name)
	id := fs.String("id", "", "Operation id")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *id == "" {
		return "", fmt.Errorf("%w: -id is required", ErrUsage)
	}
	return *id, nil
}

func (r *Runner) startOperation(ctx context.Context, args []string) error {
	id, err := r.operationID("start-op", args)
	if err != nil {
		return err
	}
	op, err := r.app.Production.StartOperation(ctx, id)
	if err != nil {
		return err
	}
	return r.out.Operation(op)
}

func (r *Runner) completeOperation(ctx context.Context, args []string) error {
	id, err := r.operationID("complete-op", args)
	if err != nil {
		return err
	}
	result, err := r.app.Production.CompleteOperation(ctx, id)
	if err != nil {
		return r.reportShortage(err)
	}
	return r.out.Completion(result)
}

func (r *Runner) cancelOperation(ctx context.Context, args []string) error {
	id, err := r.operationID("cancel-op", args)
	if err != nil {
		return err
	}
	op, err := r.app.Production.CancelOperation(ctx, id)
	if err != nil {
		return err
	}
	return r.out.Operation(op)
}

func (r *Runner) operations(ctx context.Context, args []string) error {
	fs := r.flags("operations")
	opType := fs.String("type", "", "Filter by operation type")
	status := fs.String("status", "", "Filter by status")
	input := itemVar(fs, "input", "Filter by input item id")
	out := itemVar(fs, "output", "Filter by output item id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ops, err := r.app.Production.ListOperations(ctx, repositories.OperationQuery{
		InputItemID:   entities.ItemID(*input),
		OutputItemID:  entities.ItemID(*out),
		OperationType: entities.OperationType(*opType),
		Status:        entities.OperationStatus(*status),
	})
	if err != nil {
		return err
	}
	return r.out.Operations(ops)
}

func (r *Runner) efficiency(ctx context.Context, args []string) error {
	fs := r.flags("efficiency")
	opType := fs.String("type", "", "Operation type")
	input := itemVar(fs, "input", "Input item id")
	out := itemVar(fs, "output", "Output item id")
	in := decimalVar(fs, "in", decimal.Zero, "Planned input quantity for a suggestion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	parsed, err := entities.ParseOperationType(*opType)
	if err != nil {
		return err
	}

	avg, err := r.app.Estimator.AverageEfficiency(ctx, entities.ItemID(*input), entities.ItemID(*out), parsed)
	if err != nil {
		return err
	}
	var suggested *decimal.Decimal
	if in.IsPositive() {
		suggested, err = r.app.Estimator.SuggestOutputQuantity(ctx, entities.ItemID(*input), entities.ItemID(*out), parsed, *in)
		if err != nil {
			return err
		}
	}
	return r.out.Efficiency(avg, suggested)
}

func (r *Runner) coil(ctx context.Context, args []string) error {
	fs := r.flags("coil")
	item := itemVar(fs, "item", "Coil item id")
	weight := decimalVar(fs, "weight", decimal.Zero, "Coil weight in kg (default: current stock)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireItem("item", *item)
	if err != nil {
		return err
	}

	var pieces *int64
	if weight.IsPositive() {
		pieces, err = r.app.Coils.SuggestedInputQuantity(ctx, id, *weight)
	} else {
		pieces, err = r.app.Coils.SuggestForOperation(ctx, entities.OperationBlanking, id)
	}
	if err != nil {
		return err
	}
	return r.out.CoilSuggestion(id, pieces)
}

func (r *Runner) addEdge(ctx context.Context, args []string) error {
	fs := r.flags("add-edge")
	parent := itemVar(fs, "parent", "Parent item id")
	child := itemVar(fs, "child", "Child item id")
	qty := decimalVar(fs, "qty", decimal.Zero, "Child quantity per parent unit")
	level := fs.Int("level", 1, "Level number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	parentID, err := requireItem("parent", *parent)
	if err != nil {
		return err
	}
	childID, err := requireItem("child", *child)
	if err != nil {
		return err
	}

	edge, err := entities.NewBOMEdge(parentID, childID, *qty, *level)
	if err != nil {
		return err
	}
	if err := r.app.Manager.AddEdge(ctx, edge); err != nil {
		return err
	}
	return r.out.Message("added BOM edge %d: %d -> %d x %s", edge.BOMID, parentID, childID, edge.QuantityRequired)
}

func (r *Runner) removeEdge(ctx context.Context, args []string) error {
	fs := r.flags("remove-edge")
	id := fs.Int64("id", 0, "BOM edge id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("%w: -id is required", ErrUsage)
	}

	if err := r.app.Manager.DeactivateEdge(ctx, *id); err != nil {
		return err
	}
	return r.out.Message("deactivated BOM edge %d", *id)
}

func (r *Runner) audit(ctx context.Context, args []string) error {
	if err := r.flags("audit").Parse(args); err != nil {
		return err
	}
	result, err := r.app.Manager.Audit(ctx)
	if err != nil {
		return err
	}
	return r.out.Audit(result)
}

func (r *Runner) requireDatabase(command string) error {
	if r.app.db == nil {
		return fmt.Errorf("%w: %s needs PostgreSQL, run it without -data", ErrUsage, command)
	}
	return nil
}

func (r *Runner) migrate(ctx context.Context, args []string) error {
	if err := r.flags("migrate").Parse(args); err != nil {
		return err
	}
	if err := r.requireDatabase("migrate"); err != nil {
		return err
	}
	if err := postgres.Migrate(r.app.db.WithContext(ctx)); err != nil {
		return err
	}
	return r.out.Message("migrated %d tables", len(postgres.Models()))
}

func (r *Runner) importDir(ctx context.Context, args []string) error {
	fs := r.flags("import")
	dir := fs.String("dir", "", "Directory with items.csv and bom.csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return fmt.Errorf("%w: -dir is required", ErrUsage)
	}

	summary, err := csv.NewLoader().LoadDirectory(ctx, *dir, r.app.store)
	if err != nil {
		return err
	}
	r.app.Manager.Invalidate(ctx)
	return r.out.Message("imported %d items, %d BOM edges, %d coil specs, %d operations",
		summary.Items, summary.Edges, summary.CoilSpecs, summary.Operations)
}
