// Package errors provides structured error types for the bindptr module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending target's type and identity, the observed
// reference count, and a cause chain.
//
// The ownership core never returns errors. Contract violations that are cheap to
// detect (a count driven below zero, a forged access token) panic with an *Error
// so that a recovered value can be classified with the standard errors.Is:
//
//	defer func() {
//		if r := recover(); r != nil {
//			if err, ok := r.(error); ok && stderrors.Is(err, &errors.Error{Phase: errors.PhaseUnbind, Kind: errors.KindUnderflow}) {
//				// count underflow
//			}
//		}
//	}()
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTrack, errors.KindLeak).
//		Target("*cache.Entry").
//		Addr(0xc000012345).
//		Count(2).
//		Detail("still referenced at close").
//		Build()
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
