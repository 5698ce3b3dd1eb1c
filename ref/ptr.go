package ref

import (
	"fmt"

	"go.uber.org/zap"
)

// noCopy lets go vet's copylocks check flag a Ptr copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Ptr is an owning handle to a target. The zero value is an empty handle.
//
// A Ptr must not be copied by value; use Clone or CopyFrom to share the
// target and Move or MoveFrom to hand it over. Release it when done.
type Ptr[T Target] struct {
	_      noCopy
	target T
}

// Empty returns a handle that holds nothing.
func Empty[T Target]() *Ptr[T] {
	return &Ptr[T]{}
}

// New returns a handle bound to r. A nil r yields an empty handle.
func New[T Target](r T) *Ptr[T] {
	p := &Ptr[T]{}
	p.bind(r)
	return p
}

// Convert returns a new handle to the target of src, viewed as T. The
// conversion as is an ordinary Go conversion written by the caller, for
// example func(c *Circle) Shape { return c }; it must return the same
// object. The target gains one owner.
func Convert[T, U Target](src *Ptr[U], as func(U) T) *Ptr[T] {
	if !src.Valid() {
		return Empty[T]()
	}
	return New(as(src.target))
}

// MoveConvert moves the target of src into a new handle viewed as T. src
// is left empty and the count is not touched.
func MoveConvert[T, U Target](src *Ptr[U], as func(U) T) *Ptr[T] {
	if !src.Valid() {
		return Empty[T]()
	}
	u := src.release()
	return &Ptr[T]{target: as(u)}
}

// ConvertInto makes dst share the target of src, viewed as T, and releases
// whatever dst held. It is CopyFrom across related target types:
//
//	var shape ref.Ptr[Shape]
//	ref.ConvertInto(&shape, circle, func(c *Circle) Shape { return c })
func ConvertInto[T, U Target](dst *Ptr[T], src *Ptr[U], as func(U) T) {
	tmp := Convert(src, as)
	tmp.Swap(dst)
	tmp.Release()
}

// MoveConvertInto moves the target of src into dst, viewed as T, and
// releases whatever dst held. src is left empty.
func MoveConvertInto[T, U Target](dst *Ptr[T], src *Ptr[U], as func(U) T) {
	tmp := MoveConvert(src, as)
	tmp.Swap(dst)
	tmp.Release()
}

// Get returns the held target, or the zero T when the handle is empty.
// Using the result of Get on an empty handle is a caller bug.
func (p *Ptr[T]) Get() T {
	if p == nil {
		var zero T
		return zero
	}
	return p.target
}

// Valid reports whether the handle holds a target.
func (p *Ptr[T]) Valid() bool {
	var zero T
	return p != nil && p.target != zero
}

// Clone returns a second handle to the same target.
func (p *Ptr[T]) Clone() *Ptr[T] {
	return New(p.Get())
}

// CopyFrom makes p share the target of src, releasing whatever p held.
// Copying a handle onto itself is a no-op.
func (p *Ptr[T]) CopyFrom(src *Ptr[T]) {
	tmp := New(src.Get())
	tmp.Swap(p)
	tmp.Release()
}

// Move hands the reference over to a new handle and empties p.
func (p *Ptr[T]) Move() *Ptr[T] {
	if p == nil {
		return Empty[T]()
	}
	return &Ptr[T]{target: p.release()}
}

// MoveFrom takes over the reference held by src, releasing whatever p held.
// src is left empty.
func (p *Ptr[T]) MoveFrom(src *Ptr[T]) {
	if p == src {
		return
	}
	tmp := src.Move()
	tmp.Swap(p)
	tmp.Release()
}

// Release drops the reference, if any, and leaves the handle empty. If it
// was the last reference the target's Destroy hook runs before Release
// returns. Release is safe on a nil or empty handle.
func (p *Ptr[T]) Release() {
	if p == nil {
		return
	}
	p.unbind()
}

// Reset is Release under the name used alongside ResetTo.
func (p *Ptr[T]) Reset() {
	p.Release()
}

// ResetTo releases the current target and binds r.
func (p *Ptr[T]) ResetTo(r T) {
	tmp := New(r)
	tmp.Swap(p)
	tmp.Release()
}

// Swap exchanges the targets of p and q. Counts are untouched.
func (p *Ptr[T]) Swap(q *Ptr[T]) {
	p.target, q.target = q.target, p.target
}

// Addr returns the identity of the held target.
func (p *Ptr[T]) Addr() Addr {
	if !p.Valid() {
		return 0
	}
	return Identity(p.target)
}

// Is reports whether p holds r.
func (p *Ptr[T]) Is(r T) bool {
	return p.Addr().Eq(AddrOf(r))
}

// Compare orders p against a raw target by identity.
func (p *Ptr[T]) Compare(r T) int {
	return p.Addr().Compare(AddrOf(r))
}

// String formats the identity of the held target.
func (p *Ptr[T]) String() string {
	return p.Addr().String()
}

func (p *Ptr[T]) bind(r T) {
	var zero T
	if r != zero {
		bindOnce(r)
	}
	p.target = r
}

func bindOnce[T Target](t T) {
	a := grant()
	defer a.revoke()
	t.BindPtr(a)
}

func unbindOnce[T Target](t T) bool {
	a := grant()
	defer a.revoke()
	return t.UnbindPtr(a)
}

func (p *Ptr[T]) release() T {
	var zero T
	t := p.target
	p.target = zero
	return t
}

func (p *Ptr[T]) unbind() {
	var zero T
	t := p.release()
	if t == zero {
		return
	}
	if unbindOnce(t) {
		destroy(t)
	}
}

func destroy[T Target](t T) {
	if ce := Logger().Check(zap.DebugLevel, "destroying target"); ce != nil {
		ce.Write(
			zap.Stringer("addr", Identity(t)),
			zap.String("type", fmt.Sprintf("%T", t)),
		)
	}
	if d, ok := any(t).(Destroyer); ok {
		d.Destroy()
	}
}
