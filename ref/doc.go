// Package ref provides an intrusive reference-counted handle.
//
// A Ptr binds itself to a target through two hooks the target defines,
// BindPtr and UnbindPtr. The count lives inside the target, usually by
// embedding one of the counted bases:
//
//	RefCount        plain counter, single goroutine object graphs
//	AtomicRefCount  atomic counter, targets shared across goroutines
//
// # Ownership
//
// A handle owns at most one reference. Copies are explicit:
//
//	type Entry struct {
//	    ref.AtomicRefCount
//	    key string
//	}
//
//	func (e *Entry) Destroy() { /* last owner gone */ }
//
//	p := ref.New(&Entry{key: "a"}) // count 1
//	defer p.Release()
//
//	q := p.Clone() // count 2
//	q.Release()    // count 1
//
// Move transfers the reference without touching the count:
//
//	r := p.Move() // p is empty, r owns the reference
//
// When UnbindPtr reports that the count reached zero, the releasing handle
// calls Destroy on the target if it implements Destroyer. Destroy runs
// exactly once per target.
//
// # Access
//
// BindPtr and UnbindPtr take an Access token that only this package can
// mint. A handle issues a fresh token for each hook call and revokes it
// when the call returns. The counted bases reject forged and expired
// tokens, so a hook cannot keep its token and move some other target's
// count later. Custom Binder implementations forward the token to an
// embedded base or check Access.Valid themselves.
//
// A target whose count has dropped to zero is spent. Binding it again
// panics with errors.KindDoubleDestroy.
//
// # Identity
//
// Handles compare by the identity of the held target, never by content.
// Addr is that identity; every comparison form (handle against handle,
// handle against raw target, raw target against handle) is defined
// through it.
//
// # Concurrency
//
// Only the count of an AtomicRefCount target is goroutine-safe. A single
// Ptr must not be mutated from several goroutines, and a RefCount target
// must not be reachable from more than one goroutine without external
// locking.
package ref
