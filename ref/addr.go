package ref

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"

	"github.com/wippyai/bindptr/errors"
)

// Addr is the identity of a target: the address held by its dynamic value.
// The zero Addr is the identity of an empty handle or a nil target.
type Addr uintptr

// AddrOf returns the identity of a raw target.
func AddrOf[T Target](r T) Addr {
	var zero T
	if r == zero {
		return 0
	}
	return Identity(r)
}

// Identity returns the identity of any pointer-shaped value. It panics if v
// holds a value with no address of its own.
func Identity(v any) Addr {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice:
		return Addr(rv.Pointer())
	}
	panic(errors.NoIdentity(fmt.Sprintf("%T", v)))
}

// IsNil reports whether a is the empty identity.
func (a Addr) IsNil() bool { return a == 0 }

// Uintptr returns a as an integer.
func (a Addr) Uintptr() uintptr { return uintptr(a) }

// Compare returns -1, 0 or +1 as a is less than, equal to or greater than b.
func (a Addr) Compare(b Addr) int { return cmp.Compare(a, b) }

// Eq reports whether a and b are the same identity.
func (a Addr) Eq(b Addr) bool { return a == b }

// Ne reports whether a and b are different identities.
func (a Addr) Ne(b Addr) bool { return a != b }

// Lt reports whether a orders before b.
func (a Addr) Lt(b Addr) bool { return a < b }

// Gt reports whether a orders after b.
func (a Addr) Gt(b Addr) bool { return a > b }

// Le reports whether a orders before or equal to b.
func (a Addr) Le(b Addr) bool { return a <= b }

// Ge reports whether a orders after or equal to b.
func (a Addr) Ge(b Addr) bool { return a >= b }

// String formats a for diagnostics. It is not meant to be parsed.
func (a Addr) String() string {
	if a == 0 {
		return "<nil>"
	}
	return "0x" + strconv.FormatUint(uint64(a), 16)
}

// Handle forms across target types. A and B may differ as long as both
// satisfy Target; the result is the comparison of their identities.

// Equal reports whether a and b hold the same target.
func Equal[A, B Target](a *Ptr[A], b *Ptr[B]) bool { return a.Addr().Eq(b.Addr()) }

// NotEqual reports whether a and b hold different targets.
func NotEqual[A, B Target](a *Ptr[A], b *Ptr[B]) bool { return a.Addr().Ne(b.Addr()) }

// Less orders handles by target identity.
func Less[A, B Target](a *Ptr[A], b *Ptr[B]) bool { return a.Addr().Lt(b.Addr()) }

// Greater orders handles by target identity.
func Greater[A, B Target](a *Ptr[A], b *Ptr[B]) bool { return a.Addr().Gt(b.Addr()) }

// LessEqual orders handles by target identity.
func LessEqual[A, B Target](a *Ptr[A], b *Ptr[B]) bool { return a.Addr().Le(b.Addr()) }

// GreaterEqual orders handles by target identity.
func GreaterEqual[A, B Target](a *Ptr[A], b *Ptr[B]) bool { return a.Addr().Ge(b.Addr()) }

// Compare is the three-way form of the handle comparisons.
func Compare[A, B Target](a *Ptr[A], b *Ptr[B]) int { return a.Addr().Compare(b.Addr()) }

// CompareRaw compares a raw target against a handle. It is the mirror of
// Ptr.Compare: CompareRaw(r, p) == -p.Compare(r) whenever r has type T.
func CompareRaw[R, T Target](r R, p *Ptr[T]) int { return AddrOf(r).Compare(p.Addr()) }
