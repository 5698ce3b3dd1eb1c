package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/bindptr/ref"
	"github.com/wippyai/bindptr/reftrack"
	"github.com/wippyai/bindptr/selftest"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	cfg := opts.config

	interactive := opts.interactive && term.IsTerminal(int(os.Stdout.Fd()))

	// The TUI owns the terminal, so logs go to a file next to the report.
	var logPaths []string
	if interactive {
		if err := mkdir(cfg.Data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		logPaths = []string{filepath.Join(cfg.Data, "refharness.log")}
	}
	log, err := newLogger(cfg.Verbose, logPaths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	installLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var report *selftest.Report
	if interactive {
		report, err = runInteractive(ctx, log, cfg)
	} else {
		report, err = run(ctx, log, cfg, nil)
		if report != nil {
			printSummary(report)
		}
	}

	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	case !report.OK():
		return 1
	}
	return 0
}

func newLogger(verbose bool, paths ...string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc = zap.NewDevelopmentConfig()
	}
	if len(paths) > 0 {
		zc.OutputPaths = paths
		zc.ErrorOutputPaths = paths
	}
	return zc.Build(zap.Fields(zap.String("component", "refharness")))
}

func installLogger(log *zap.Logger) {
	ref.SetLogger(log.Named("ref"))
	reftrack.SetLogger(log.Named("reftrack"))
	selftest.SetLogger(log.Named("selftest"))
}

func printSummary(report *selftest.Report) {
	for _, f := range report.Failures() {
		if report.Rounds > 1 {
			fmt.Printf("FAIL %s (round %d): %v\n", f.Name, f.Round, f.Err)
		} else {
			fmt.Printf("FAIL %s: %v\n", f.Name, f.Err)
		}
	}
	fmt.Printf("\n%d passed, %d failed, %d skipped in %s\n",
		report.Passed(), report.Failed(), report.Skipped(), report.Duration.Round(time.Millisecond))
}
