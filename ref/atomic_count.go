package ref

import (
	"fmt"
	"math"

	"go.uber.org/atomic"

	"github.com/wippyai/bindptr/errors"
)

// spent marks an AtomicRefCount whose count has dropped to zero.
const spent = math.MaxUint64

// AtomicRefCount is an embeddable Binder backed by an atomic counter.
// Handles to the same target may be bound and released from any number of
// goroutines. Exactly one release observes the transition to zero, and the
// target cannot be bound again after it.
type AtomicRefCount struct {
	n atomic.Uint64
}

// BindPtr increments the count.
func (c *AtomicRefCount) BindPtr(a Access) {
	checkAccess(a, errors.PhaseBind, c)
	for {
		n := c.n.Load()
		switch n {
		case spent:
			panic(rebind(c))
		case spent - 1:
			panic(errors.Overflow(errors.PhaseBind, fmt.Sprintf("%T", c), Identity(c).Uintptr()))
		}
		if c.n.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// UnbindPtr decrements the count and reports whether it reached zero.
// The count is left untouched when it panics.
func (c *AtomicRefCount) UnbindPtr(a Access) bool {
	checkAccess(a, errors.PhaseUnbind, c)
	for {
		n := c.n.Load()
		if n == 0 || n == spent {
			panic(errors.Underflow(errors.PhaseUnbind, fmt.Sprintf("%T", c), Identity(c).Uintptr()))
		}
		next := n - 1
		if next == 0 {
			next = spent
		}
		if c.n.CompareAndSwap(n, next) {
			return next == spent
		}
	}
}

// UseCount returns the number of handles currently bound. The value is a
// snapshot and may be stale by the time it is read.
func (c *AtomicRefCount) UseCount() uint64 {
	if n := c.n.Load(); n != spent {
		return n
	}
	return 0
}
