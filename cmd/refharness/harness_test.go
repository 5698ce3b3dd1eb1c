package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/wippyai/bindptr/selftest"
)

func TestRun_PublishesReport(t *testing.T) {
	assets := t.TempDir()
	if err := os.WriteFile(filepath.Join(assets, "fixture.bin"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		Assets:  assets,
		Data:    filepath.Join(t.TempDir(), "data"),
		Out:     filepath.Join(t.TempDir(), "out"),
		Report:  selftest.DefaultReportName,
		Threads: 2,
	}

	report, err := run(context.Background(), zap.NewNop(), cfg, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.OK() {
		t.Fatalf("failures: %v", report.Failures())
	}
	// Fixtures and data are both present, so nothing is skipped.
	if report.Skipped() != 0 {
		t.Fatalf("skipped = %d", report.Skipped())
	}

	for _, dir := range []string{cfg.Data, cfg.Out} {
		data, err := os.ReadFile(filepath.Join(dir, cfg.Report))
		if err != nil {
			t.Fatalf("report in %s: %v", dir, err)
		}
		if !strings.Contains(string(data), `name="copies-destroy-once"`) {
			t.Fatalf("report in %s lacks check results", dir)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Data, "fixture.bin")); err != nil {
		t.Fatalf("asset not copied: %v", err)
	}
}

func TestRun_FilterAndProgress(t *testing.T) {
	cfg := &Config{
		Data:   t.TempDir(),
		Report: "filtered.xml",
		Run:    []string{"empty-handle", "swap-is-count-neutral"},
		Repeat: 2,
	}

	var mu sync.Mutex
	var names []string
	report, err := run(context.Background(), zap.NewNop(), cfg, func(r selftest.Result) {
		mu.Lock()
		names = append(names, r.Name)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Results) != 4 || len(names) != 4 {
		t.Fatalf("results = %d, progress = %d", len(report.Results), len(names))
	}
	if _, err := os.Stat(filepath.Join(cfg.Data, "filtered.xml")); err != nil {
		t.Fatalf("report not written: %v", err)
	}
}

func TestRun_UnknownCheck(t *testing.T) {
	cfg := &Config{Data: t.TempDir(), Report: "r.xml", Run: []string{"no-such-check"}}
	if _, err := run(context.Background(), zap.NewNop(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown check")
	}
}

func TestExecute_ExitCodes(t *testing.T) {
	none := filepath.Join(t.TempDir(), "none.yaml")

	if code := execute([]string{"-config", none, "-data", t.TempDir(), "-run", "empty-handle"}); code != 0 {
		t.Fatalf("passing run exit = %d", code)
	}
	if code := execute([]string{"-config", none, "-threads", "-1"}); code != 2 {
		t.Fatalf("bad flags exit = %d", code)
	}
	if code := execute([]string{"-config", none, "-data", t.TempDir(), "-run", "missing"}); code != 1 {
		t.Fatalf("unknown check exit = %d", code)
	}
}
