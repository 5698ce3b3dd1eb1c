// Package bindptr provides intrusive reference counting for Go.
//
// The reference count lives inside the target object. A handle binds to a
// target through two hooks the target defines, and destroys it when the
// last handle lets go. There is no separate control block and no weak
// reference.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	bindptr/
//	├── ref/             Ptr handle, Binder contract, RefCount and AtomicRefCount bases
//	├── reftrack/        Table of live counted targets, lifecycle observers, probes
//	├── selftest/        Registry of runtime property checks with a JUnit report
//	├── errors/          Structured error types for contract violations
//	└── cmd/refharness/  Command that runs the checks on a data directory
//
// # Quick Start
//
// Embed a counted base and hand the object to a handle:
//
//	type Texture struct {
//	    ref.AtomicRefCount
//	    id uint32
//	}
//
//	func (t *Texture) Destroy() { gl.DeleteTexture(t.id) }
//
//	p := ref.New(&Texture{id: 7})
//	defer p.Release()
//
//	q := p.Clone() // count 2
//	q.Release()    // count 1, Destroy runs when p is released
//
// # Ownership
//
// Every non-empty Ptr accounts for exactly one unit of its target's count.
// Clone and CopyFrom add a unit, Release and Reset remove one, Move and
// Swap transfer units without touching the count. A Ptr must be released
// before it is dropped, usually with defer.
//
// # Thread Safety
//
// AtomicRefCount targets may be shared by handles on any goroutine.
// RefCount targets must stay on one goroutine or be externally
// synchronized. A single Ptr is never safe for concurrent use.
//
// # Comparisons
//
// Handles compare by the identity of their target. ref.Addr carries that
// identity; every comparison form in ref is defined through it, so handle
// and raw comparisons always agree.
package bindptr
