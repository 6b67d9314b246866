package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/taechang/production-core/pkg/infrastructure/config"
	"github.com/taechang/production-core/pkg/infrastructure/logging"
	"github.com/taechang/production-core/pkg/interfaces/cli/commands"
	"github.com/taechang/production-core/pkg/interfaces/cli/output"
)

func main() {
	// Command line flags
	var (
		dataDir   = flag.String("data", "", "Scenario directory with CSV files (omit to use PostgreSQL)")
		configDir = flag.String("config", "", "Extra directory to search for config.yaml")
		envFile   = flag.String("env", ".env", "Path to .env file")
		format    = flag.String("format", "text", "Output format: text, json")
		help      = flag.Bool("help", false, "Show help message")
	)
	flag.Usage = func() { commands.PrintUsage(os.Stderr) }
	flag.Parse()

	if *help || flag.NArg() == 0 {
		commands.PrintUsage(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *envFile, *configDir, *dataDir, *format, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, commands.ErrUsage) {
			fmt.Fprintln(os.Stderr)
			commands.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, envFile, configDir, dataDir, format string, args []string) error {
	printer, err := output.NewPrinter(os.Stdout, format)
	if err != nil {
		return err
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	app, err := commands.NewApp(ctx, cfg, logger, dataDir)
	if err != nil {
		return err
	}
	defer app.Close()

	return commands.NewRunner(app, printer, os.Stderr).Run(ctx, args)
}
