package selftest

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/wippyai/bindptr/errors"
)

func TestSuite_Register(t *testing.T) {
	s := NewSuite("test")
	if err := s.Register("a", func(*Context) error { return nil }); err != nil {
		t.Fatalf("Register: %v", err)
	}

	err := s.Register("a", func(*Context) error { return nil })
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseSelfTest, Kind: errors.KindInvalidInput}) {
		t.Fatalf("duplicate Register = %v", err)
	}
	if err := s.Register("", func(*Context) error { return nil }); err == nil {
		t.Fatal("empty name should be rejected")
	}
	if err := s.Register("b", nil); err == nil {
		t.Fatal("nil func should be rejected")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestSuite_Select(t *testing.T) {
	s := NewSuite("test")
	for _, n := range []string{"a", "b", "c"} {
		s.MustRegister(n, func(*Context) error { return nil })
	}

	got, err := s.Select([]string{"c", "a"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Fatalf("Select = %v, want [a c] in registration order", got)
	}

	all, _ := s.Select(nil)
	if len(all) != 3 {
		t.Fatalf("Select(nil) = %d checks", len(all))
	}

	_, err = s.Select([]string{"zzz"})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseSelfTest, Kind: errors.KindNotFound}) {
		t.Fatalf("Select unknown = %v", err)
	}
}

func TestDefault_BuiltinsPass(t *testing.T) {
	SetPathPrefix(t.TempDir() + "/")
	SetResourcePath("")
	defer SetPathPrefix("")

	report, err := RunAll(context.Background(), 4, 3)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	for _, f := range report.Failures() {
		t.Errorf("%s round %d: %v", f.Name, f.Round, f.Err)
	}
	if len(report.Results) != 3*Default.Len() {
		t.Fatalf("results = %d, want %d", len(report.Results), 3*Default.Len())
	}
	// Only the resource check lacks its fixture directory.
	if report.Skipped() != 3 {
		t.Fatalf("skipped = %d, want 3", report.Skipped())
	}
}

func TestDefault_SkipsWithoutPaths(t *testing.T) {
	SetPathPrefix("")
	SetResourcePath("")

	report, err := Default.Run(context.Background(), Options{
		Filter: []string{"fixture-path-writable", "resource-files-readable"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Skipped() != 2 || report.Failed() != 0 {
		t.Fatalf("skipped=%d failed=%d", report.Skipped(), report.Failed())
	}
}
