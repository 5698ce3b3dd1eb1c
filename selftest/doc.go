// Package selftest runs the ownership property checks at runtime.
//
// It is the entry point a test harness calls after preparing its fixture
// directories:
//
//	selftest.SetPathPrefix(dataDir + "/")
//	selftest.SetResourcePath(dataDir + "/")
//
//	report, err := selftest.RunAll(ctx, 0, 0)
//	if err != nil {
//	    return err
//	}
//	report.WriteFile(selftest.ReportPath())
//
// The built-in checks exercise package ref through the instrumented probes
// of package reftrack: exactly-once destruction under any release order
// and under concurrent release, count-neutral move and swap, reset
// semantics, identity comparisons, and enforcement of the access token.
//
// Additional checks can be registered on Default or on a separate Suite.
package selftest
