package reftrack

import (
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/wippyai/bindptr/errors"
	"github.com/wippyai/bindptr/ref"
)

// Probe is an instrumented, goroutine-safe target. It counts hook calls
// and destroy invocations so tests can assert on them.
type Probe struct {
	Counted
	OnDestroy func()
	Name      string
	binds     atomic.Uint64
	unbinds   atomic.Uint64
	destroys  atomic.Uint64
}

// NewProbe returns an unbound probe.
func NewProbe(name string) *Probe {
	return &Probe{Name: name}
}

// BindPtr counts the call and increments the count.
func (p *Probe) BindPtr(a ref.Access) {
	p.binds.Inc()
	p.Counted.BindPtr(a)
}

// UnbindPtr counts the call and decrements the count.
func (p *Probe) UnbindPtr(a ref.Access) bool {
	p.unbinds.Inc()
	return p.Counted.UnbindPtr(a)
}

// Destroy records the destruction. A second call is logged and reported by
// Verify.
func (p *Probe) Destroy() {
	if n := p.destroys.Inc(); n > 1 {
		Logger().Error("probe destroyed more than once",
			zap.String("probe", p.Name),
			zap.Uint64("times", n))
	}
	if p.OnDestroy != nil {
		p.OnDestroy()
	}
}

// Binds returns the number of BindPtr calls.
func (p *Probe) Binds() uint64 { return p.binds.Load() }

// Unbinds returns the number of UnbindPtr calls.
func (p *Probe) Unbinds() uint64 { return p.unbinds.Load() }

// Destroys returns the number of Destroy calls.
func (p *Probe) Destroys() uint64 { return p.destroys.Load() }

// Calls returns the total number of hook calls.
func (p *Probe) Calls() uint64 { return p.binds.Load() + p.unbinds.Load() }

// Destroyed reports whether Destroy has run.
func (p *Probe) Destroyed() bool { return p.destroys.Load() > 0 }

// Verify checks the probe's history for ownership violations.
func (p *Probe) Verify() error {
	return verify(p, p.Binds(), p.Unbinds(), p.Destroys())
}

// LocalProbe is the single-goroutine counterpart of Probe, built on
// ref.RefCount.
type LocalProbe struct {
	ref.RefCount
	OnDestroy func()
	Name      string
	binds     uint64
	unbinds   uint64
	destroys  uint64
}

// NewLocalProbe returns an unbound local probe.
func NewLocalProbe(name string) *LocalProbe {
	return &LocalProbe{Name: name}
}

// BindPtr counts the call and increments the count.
func (p *LocalProbe) BindPtr(a ref.Access) {
	p.binds++
	p.RefCount.BindPtr(a)
}

// UnbindPtr counts the call and decrements the count.
func (p *LocalProbe) UnbindPtr(a ref.Access) bool {
	p.unbinds++
	return p.RefCount.UnbindPtr(a)
}

// Destroy records the destruction.
func (p *LocalProbe) Destroy() {
	p.destroys++
	if p.OnDestroy != nil {
		p.OnDestroy()
	}
}

func (p *LocalProbe) Binds() uint64    { return p.binds }
func (p *LocalProbe) Unbinds() uint64  { return p.unbinds }
func (p *LocalProbe) Destroys() uint64 { return p.destroys }
func (p *LocalProbe) Calls() uint64    { return p.binds + p.unbinds }
func (p *LocalProbe) Destroyed() bool  { return p.destroys > 0 }

// Verify checks the probe's history for ownership violations.
func (p *LocalProbe) Verify() error {
	return verify(p, p.binds, p.unbinds, p.destroys)
}

func verify(target any, binds, unbinds, destroys uint64) error {
	typ := fmt.Sprintf("%T", target)
	addr := ref.Identity(target).Uintptr()

	switch {
	case destroys > 1:
		return errors.DoubleDestroy(typ, addr, destroys)
	case destroys == 1 && binds != unbinds:
		return errors.New(errors.PhaseDestroy, errors.KindUnderflow).
			Target(typ).
			Addr(addr).
			Count(binds - unbinds).
			Detail("destroyed with %d binds and %d unbinds", binds, unbinds).
			Build()
	case destroys == 0 && binds > 0 && binds == unbinds:
		return errors.New(errors.PhaseDestroy, errors.KindNotFound).
			Target(typ).
			Addr(addr).
			Detail("last reference released but destroy never ran").
			Build()
	}
	return nil
}
