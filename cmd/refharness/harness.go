package main

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/bindptr/errors"
	"github.com/wippyai/bindptr/selftest"
)

// run prepares the data directory, runs the checks and publishes the
// report. progress may be nil.
func run(ctx context.Context, log *zap.Logger, cfg *Config, progress func(selftest.Result)) (*selftest.Report, error) {
	if err := mkdir(cfg.Data); err != nil {
		return nil, err
	}
	if cfg.Assets != "" {
		if _, err := copyAssets(log, cfg.Assets, cfg.Data); err != nil {
			return nil, err
		}
	}

	prefix := cfg.Data + string(filepath.Separator)
	selftest.SetPathPrefix(prefix)
	selftest.SetResourcePath(prefix)

	log.Info("starting unit tests", zap.String("prefix", prefix))

	var (
		report *selftest.Report
		runErr error
	)
	if len(cfg.Run) == 0 && progress == nil {
		report, runErr = selftest.RunAll(ctx, cfg.Threads, cfg.Repeat)
	} else {
		report, runErr = selftest.Default.Run(ctx, selftest.Options{
			Progress: progress,
			Filter:   cfg.Run,
			Threads:  cfg.Threads,
			Repeat:   cfg.Repeat,
		})
	}
	if report == nil {
		return nil, runErr
	}

	log.Info("done running unit tests",
		zap.Int("passed", report.Passed()),
		zap.Int("failed", report.Failed()),
		zap.Int("skipped", report.Skipped()))

	return report, multierr.Append(runErr, publish(log, cfg, report))
}

// publish writes the report under the path prefix and copies it to the
// output directory when one is configured.
func publish(log *zap.Logger, cfg *Config, report *selftest.Report) error {
	source := selftest.TestPath(cfg.Report)
	if err := report.WriteFile(source); err != nil {
		return err
	}
	if cfg.Out == "" {
		log.Info("report written", zap.String("path", source))
		return nil
	}

	dest := filepath.Join(cfg.Out, cfg.Report)
	log.Info("copying the test results", zap.String("from", source), zap.String("to", dest))
	if err := mkdir(cfg.Out); err != nil {
		return err
	}
	if err := copyFile(source, dest); err != nil {
		return err
	}
	log.Info("report written", zap.String("path", dest))
	return nil
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.PhaseHarness, errors.KindIO, err, "create "+dir)
	}
	return nil
}
