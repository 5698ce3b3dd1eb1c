package ref

import (
	"fmt"
	"math"

	"github.com/wippyai/bindptr/errors"
)

// RefCount is an embeddable Binder backed by a plain counter.
//
// It must only be used by one goroutine at a time. Sharing a RefCount
// target across goroutines without external locking is a data race.
//
// Once the count has dropped to zero the target is spent: binding it again
// panics with errors.KindDoubleDestroy instead of reviving it.
type RefCount struct {
	n        uint64
	released bool
}

// BindPtr increments the count.
func (c *RefCount) BindPtr(a Access) {
	checkAccess(a, errors.PhaseBind, c)
	switch {
	case c.released:
		panic(rebind(c))
	case c.n == math.MaxUint64:
		panic(errors.Overflow(errors.PhaseBind, fmt.Sprintf("%T", c), Identity(c).Uintptr()))
	}
	c.n++
}

// UnbindPtr decrements the count and reports whether it reached zero.
// The count is left untouched when it panics.
func (c *RefCount) UnbindPtr(a Access) bool {
	checkAccess(a, errors.PhaseUnbind, c)
	if c.n == 0 {
		panic(errors.Underflow(errors.PhaseUnbind, fmt.Sprintf("%T", c), Identity(c).Uintptr()))
	}
	c.n--
	if c.n == 0 {
		c.released = true
		return true
	}
	return false
}

// UseCount returns the number of handles currently bound.
func (c *RefCount) UseCount() uint64 {
	return c.n
}

// rebind reports a bind on a target whose last reference is already gone.
func rebind(target any) *errors.Error {
	return errors.New(errors.PhaseBind, errors.KindDoubleDestroy).
		Target(fmt.Sprintf("%T", target)).
		Addr(Identity(target).Uintptr()).
		Detail("bind after the last reference was released").
		Build()
}
