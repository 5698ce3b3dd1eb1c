package selftest

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/wippyai/bindptr/errors"
)

// Func is a single property check. It returns nil on success, an error
// built with Skip when it cannot run in this environment, or any other
// error on failure.
type Func func(ctx *Context) error

// Check is a registered, named property check.
type Check struct {
	Run  Func
	Name string
}

// ErrSkip matches errors returned by Skip.
var ErrSkip = &errors.Error{Phase: errors.PhaseSelfTest, Kind: errors.KindSkipped}

// Skip returns an error that marks the running check as skipped.
func Skip(reason string, args ...any) error {
	return errors.New(errors.PhaseSelfTest, errors.KindSkipped).Detail(reason, args...).Build()
}

func isSkip(err error) bool {
	return stderrors.Is(err, ErrSkip)
}

// Suite is an ordered set of checks.
type Suite struct {
	index  map[string]int
	name   string
	checks []Check
	mu     sync.RWMutex
}

// NewSuite creates an empty suite.
func NewSuite(name string) *Suite {
	return &Suite{
		name:  name,
		index: make(map[string]int),
	}
}

// Default holds the built-in checks.
var Default = NewSuite("bindptr")

// Name returns the suite name used in reports.
func (s *Suite) Name() string {
	return s.name
}

// Register adds a check. Names must be unique within the suite.
func (s *Suite) Register(name string, fn Func) error {
	if name == "" || fn == nil {
		return errors.InvalidInput(errors.PhaseSelfTest, "check needs a name and a function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.index[name]; dup {
		return errors.InvalidInput(errors.PhaseSelfTest, "check %q registered twice", name)
	}
	s.index[name] = len(s.checks)
	s.checks = append(s.checks, Check{Name: name, Run: fn})
	return nil
}

// MustRegister is Register that panics on error.
func (s *Suite) MustRegister(name string, fn Func) {
	if err := s.Register(name, fn); err != nil {
		panic(err)
	}
}

// Checks returns the registered checks in registration order.
func (s *Suite) Checks() []Check {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Check, len(s.checks))
	copy(out, s.checks)
	return out
}

// Len returns the number of registered checks.
func (s *Suite) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.checks)
}

// Select returns the named checks in registration order. An empty names
// list selects every check.
func (s *Suite) Select(names []string) ([]Check, error) {
	if len(names) == 0 {
		return s.Checks(), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[int]bool, len(names))
	for _, n := range names {
		i, ok := s.index[n]
		if !ok {
			return nil, errors.NotFound(errors.PhaseSelfTest, "check", n)
		}
		want[i] = true
	}

	out := make([]Check, 0, len(want))
	for i, c := range s.checks {
		if want[i] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (c Check) String() string {
	return fmt.Sprintf("check(%s)", c.Name)
}
