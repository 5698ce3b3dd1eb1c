package selftest

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/wippyai/bindptr/errors"
)

func TestRun_OrderAndRounds(t *testing.T) {
	s := NewSuite("order")
	for _, n := range []string{"first", "second", "third"} {
		s.MustRegister(n, func(*Context) error { return nil })
	}

	report, err := s.Run(context.Background(), Options{Threads: 3, Repeat: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []struct {
		name  string
		round int
	}{
		{"first", 0}, {"second", 0}, {"third", 0},
		{"first", 1}, {"second", 1}, {"third", 1},
	}
	if len(report.Results) != len(want) {
		t.Fatalf("results = %d, want %d", len(report.Results), len(want))
	}
	for i, w := range want {
		r := report.Results[i]
		if r.Name != w.name || r.Round != w.round {
			t.Errorf("result %d = %s#%d, want %s#%d", i, r.Name, r.Round, w.name, w.round)
		}
	}
	if report.Rounds != 2 || !report.OK() || report.Passed() != 6 {
		t.Fatalf("rounds=%d ok=%v passed=%d", report.Rounds, report.OK(), report.Passed())
	}
}

func TestRun_FailureSkipAndPanic(t *testing.T) {
	s := NewSuite("mixed")
	s.MustRegister("ok", func(*Context) error { return nil })
	s.MustRegister("fails", func(ctx *Context) error { return errors.CheckFailed(ctx.Name, "boom") })
	s.MustRegister("skips", func(*Context) error { return Skip("not here") })
	s.MustRegister("panics", func(*Context) error { panic("bad") })

	report, err := s.Run(context.Background(), Options{Threads: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Passed() != 1 || report.Failed() != 2 || report.Skipped() != 1 {
		t.Fatalf("passed=%d failed=%d skipped=%d", report.Passed(), report.Failed(), report.Skipped())
	}
	if report.OK() {
		t.Fatal("report with failures should not be OK")
	}

	panicked := report.Results[3]
	if panicked.Name != "panics" {
		t.Fatalf("result 3 = %s", panicked.Name)
	}
	if !stderrors.Is(panicked.Err, &errors.Error{Phase: errors.PhaseSelfTest, Kind: errors.KindCheckFailed}) {
		t.Fatalf("panic result = %v", panicked.Err)
	}
	if !stderrors.Is(report.Results[2].Err, ErrSkip) {
		t.Fatalf("skip result = %v", report.Results[2].Err)
	}
}

func TestRun_Progress(t *testing.T) {
	s := NewSuite("progress")
	s.MustRegister("a", func(*Context) error { return nil })
	s.MustRegister("b", func(*Context) error { return nil })

	var mu sync.Mutex
	seen := map[string]int{}
	_, err := s.Run(context.Background(), Options{
		Threads: 2,
		Repeat:  3,
		Progress: func(r Result) {
			mu.Lock()
			seen[r.Name]++
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seen["a"] != 3 || seen["b"] != 3 {
		t.Fatalf("progress = %v", seen)
	}
}

func TestRun_ContextPassedToChecks(t *testing.T) {
	s := NewSuite("ctx")
	type key struct{}
	var got any
	s.MustRegister("reads", func(ctx *Context) error {
		got = ctx.Value(key{})
		if ctx.Name != "reads" || ctx.Round != 0 {
			t.Errorf("Context = %s#%d", ctx.Name, ctx.Round)
		}
		return nil
	})

	ctx := context.WithValue(context.Background(), key{}, "v")
	if _, err := s.Run(ctx, Options{Threads: 1}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "v" {
		t.Fatalf("value = %v", got)
	}
}

func TestRun_Cancelled(t *testing.T) {
	s := NewSuite("cancel")
	s.MustRegister("a", func(*Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.Run(ctx, Options{Threads: 1, Repeat: 1000})
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if report == nil || len(report.Results) >= 1000 {
		t.Fatal("cancelled run should return a partial report")
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	s := NewSuite("invalid")
	if _, err := s.Run(context.Background(), Options{Threads: -1}); err == nil {
		t.Fatal("negative threads should be rejected")
	}
	if _, err := s.Run(context.Background(), Options{Filter: []string{"missing"}}); err == nil {
		t.Fatal("unknown filter should be rejected")
	}
}
