// Package reftrack keeps a registry of live reference-counted targets.
//
// It is meant for tests, leak checks and diagnostics. Targets opt in by
// embedding Counted, a ref.Binder that wraps ref.AtomicRefCount and reports
// every bind and unbind to a Table:
//
//	type Session struct {
//	    reftrack.Counted
//	    id string
//	}
//
//	table := reftrack.NewTable()
//	s := &Session{id: "a"}
//	s.Track(table, s)
//
//	p := ref.New(s)
//	table.Len() // 1
//	p.Release()
//	table.Len() // 0
//
// # Observers
//
// Register observers to follow lifecycle events:
//
//	table.Subscribe(reftrack.ObserverFunc(func(e reftrack.Event) {
//	    if e.Type == reftrack.EventReleased {
//	        log.Printf("%s released", e.Addr)
//	    }
//	}))
//
// # Leak checks
//
// Check returns one error per target that is still referenced, combined
// with multierr. Close does the same and stops accepting new targets.
//
// # Probes
//
// Probe and LocalProbe are instrumented targets that count hook calls and
// destroy invocations. They back the property checks in package selftest.
package reftrack
