package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBind     Phase = "bind"     // acquiring a reference
	PhaseUnbind   Phase = "unbind"   // releasing a reference
	PhaseDestroy  Phase = "destroy"  // running a target's destroy hook
	PhaseAccess   Phase = "access"   // reading a handle or its identity
	PhaseTrack    Phase = "track"    // live-object bookkeeping
	PhaseSelfTest Phase = "selftest" // property checks
	PhaseHarness  Phase = "harness"  // fixture and report handling
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindUnderflow     Kind = "underflow"
	KindOverflow      Kind = "overflow"
	KindInvalidAccess Kind = "invalid_access"
	KindNoIdentity    Kind = "no_identity"
	KindDoubleDestroy Kind = "double_destroy"
	KindLeak          Kind = "leak"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindCheckFailed   Kind = "check_failed"
	KindSkipped       Kind = "skipped"
	KindIO            Kind = "io"
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Target string
	Detail string
	Addr   uintptr
	Count  uint64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Target != "" || e.Addr != 0 {
		b.WriteString(" on ")
		if e.Target != "" {
			b.WriteString(e.Target)
		}
		if e.Addr != 0 {
			if e.Target != "" {
				b.WriteByte(' ')
			}
			b.WriteString("0x")
			b.WriteString(strconv.FormatUint(uint64(e.Addr), 16))
		}
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Target sets the Go type name of the offending target
func (b *Builder) Target(t string) *Builder {
	b.err.Target = t
	return b
}

// Addr sets the identity of the offending target
func (b *Builder) Addr(addr uintptr) *Builder {
	b.err.Addr = addr
	return b
}

// Count sets the observed reference count
func (b *Builder) Count(n uint64) *Builder {
	b.err.Count = n
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Underflow creates an error for a count released more often than acquired
func Underflow(phase Phase, target string, addr uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnderflow,
		Target: target,
		Addr:   addr,
		Detail: "reference count released below zero",
	}
}

// Overflow creates an error for a count that wrapped past its maximum
func Overflow(phase Phase, target string, addr uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Target: target,
		Addr:   addr,
		Detail: "reference count overflow",
	}
}

// InvalidAccess creates an error for a count hook invoked without a valid access token
func InvalidAccess(phase Phase, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidAccess,
		Target: target,
		Detail: "count hooks may only be driven by a handle",
	}
}

// NoIdentity creates an error for a target whose dynamic value has no address
func NoIdentity(target string) *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindNoIdentity,
		Target: target,
		Detail: "target is not pointer-shaped",
	}
}

// DoubleDestroy creates an error for a target whose destroy hook ran more than once
func DoubleDestroy(target string, addr uintptr, times uint64) *Error {
	return &Error{
		Phase:  PhaseDestroy,
		Kind:   KindDoubleDestroy,
		Target: target,
		Addr:   addr,
		Count:  times,
		Detail: fmt.Sprintf("destroyed %d times", times),
	}
}

// Leak creates an error for a target still referenced when it should be gone
func Leak(target string, addr uintptr, count uint64) *Error {
	return &Error{
		Phase:  PhaseTrack,
		Kind:   KindLeak,
		Target: target,
		Addr:   addr,
		Count:  count,
		Detail: fmt.Sprintf("%d reference(s) outstanding", count),
	}
}

// NotFound creates an error for a missing named entity
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// CheckFailed creates an error for a failed property check
func CheckFailed(name string, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseSelfTest,
		Kind:   KindCheckFailed,
		Target: name,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
