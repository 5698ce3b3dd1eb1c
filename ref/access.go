package ref

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/wippyai/bindptr/errors"
)

// Binder is the capability a target exposes to be held by a Ptr.
type Binder interface {
	// BindPtr registers one more owning handle.
	BindPtr(Access)

	// UnbindPtr drops one owning handle and reports whether it was the last.
	UnbindPtr(Access) bool
}

// Target constrains the type parameter of Ptr. Pointer types and
// interface types that embed Binder both qualify.
type Target interface {
	comparable
	Binder
}

// Destroyer is optionally implemented by targets that need cleanup once the
// last handle is released.
type Destroyer interface {
	Destroy()
}

// Access is the token passed to Binder hooks. A handle mints a fresh token
// for every hook call and revokes it when the call returns, so a token kept
// past the call is worthless. The zero value is invalid.
type Access struct {
	key *accessKey
}

type accessKey struct {
	live atomic.Bool
}

func grant() Access {
	k := &accessKey{}
	k.live.Store(true)
	return Access{key: k}
}

func (a Access) revoke() {
	a.key.live.Store(false)
}

// Valid reports whether the token belongs to a hook call that is still in
// progress.
func (a Access) Valid() bool {
	return a.key != nil && a.key.live.Load()
}

func checkAccess(a Access, phase errors.Phase, target any) {
	if !a.Valid() {
		panic(errors.InvalidAccess(phase, fmt.Sprintf("%T", target)))
	}
}
