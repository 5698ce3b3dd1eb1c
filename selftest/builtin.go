package selftest

import (
	stderrors "errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/wippyai/bindptr/errors"
	"github.com/wippyai/bindptr/ref"
	"github.com/wippyai/bindptr/reftrack"
)

func init() {
	Default.MustRegister("single-handle-destroys-once", checkSingleHandle)
	Default.MustRegister("copies-destroy-once", checkCopies)
	Default.MustRegister("copy-outlives-original", checkCopyOutlives)
	Default.MustRegister("move-is-count-neutral", checkMove)
	Default.MustRegister("reset-equals-release", checkReset)
	Default.MustRegister("reset-to-rebinds", checkResetTo)
	Default.MustRegister("swap-is-count-neutral", checkSwap)
	Default.MustRegister("identity-comparisons", checkIdentity)
	Default.MustRegister("empty-handle", checkEmpty)
	Default.MustRegister("convert-shares-ownership", checkConvert)
	Default.MustRegister("atomic-two-goroutines", checkTwoGoroutines)
	Default.MustRegister("atomic-concurrent-drain", checkConcurrentDrain)
	Default.MustRegister("tracked-table-clean", checkTrackedTable)
	Default.MustRegister("access-token-enforced", checkAccessToken)
	Default.MustRegister("stale-token-rejected", checkStaleToken)
	Default.MustRegister("spent-target-not-rebound", checkSpentTarget)
	Default.MustRegister("fixture-path-writable", checkPathWritable)
	Default.MustRegister("resource-files-readable", checkResources)
}

// probe is what the checks need from reftrack.Probe and reftrack.LocalProbe.
type probe interface {
	ref.Binder
	Calls() uint64
	Destroys() uint64
	Verify() error
}

func probes(ctx *Context) []probe {
	return []probe{
		reftrack.NewProbe(ctx.Name),
		reftrack.NewLocalProbe(ctx.Name),
	}
}

func fail(ctx *Context, format string, args ...any) error {
	return errors.CheckFailed(ctx.Name, format, args...)
}

func checkSingleHandle(ctx *Context) error {
	for _, x := range probes(ctx) {
		p := ref.New(x)
		p.Release()
		if x.Destroys() != 1 {
			return fail(ctx, "%T destroyed %d times", x, x.Destroys())
		}
		if err := x.Verify(); err != nil {
			return err
		}
	}
	return nil
}

func checkCopies(ctx *Context) error {
	const owners = 8
	for _, x := range probes(ctx) {
		handles := []*ref.Ptr[probe]{ref.New(x)}
		for len(handles) < owners {
			handles = append(handles, handles[0].Clone())
		}
		for i, idx := range rand.Perm(owners) {
			if x.Destroys() != 0 {
				return fail(ctx, "%T destroyed after %d of %d releases", x, i, owners)
			}
			handles[idx].Release()
		}
		if x.Destroys() != 1 {
			return fail(ctx, "%T destroyed %d times", x, x.Destroys())
		}
		if err := x.Verify(); err != nil {
			return err
		}
	}
	return nil
}

func checkCopyOutlives(ctx *Context) error {
	for _, x := range probes(ctx) {
		p := ref.New(x)
		q := p.Clone()
		p.Release()
		if !q.Valid() || !q.Is(x) {
			return fail(ctx, "copy lost its target after original released")
		}
		if x.Destroys() != 0 {
			return fail(ctx, "%T destroyed while a copy was alive", x)
		}
		q.Release()
		if x.Destroys() != 1 {
			return fail(ctx, "%T destroyed %d times", x, x.Destroys())
		}
	}
	return nil
}

func checkMove(ctx *Context) error {
	for _, x := range probes(ctx) {
		p := ref.New(x)
		before := x.Calls()

		q := p.Move()
		var r ref.Ptr[probe]
		r.MoveFrom(q)

		if x.Calls() != before {
			return fail(ctx, "move made %d hook calls", x.Calls()-before)
		}
		if p.Valid() || q.Valid() {
			return fail(ctx, "move source not emptied")
		}
		if !r.Is(x) {
			return fail(ctx, "move destination holds %v, want %v", r.Addr(), ref.AddrOf[probe](x))
		}
		r.Release()
		if err := x.Verify(); err != nil {
			return err
		}
	}
	return nil
}

func checkReset(ctx *Context) error {
	viaReset := reftrack.NewProbe(ctx.Name)
	viaRelease := reftrack.NewProbe(ctx.Name)

	p := ref.New(viaReset)
	q := ref.New(viaRelease)
	p.Reset()
	q.Release()

	if p.Valid() || p.Get() != nil {
		return fail(ctx, "Reset left the handle bound")
	}
	if viaReset.Calls() != viaRelease.Calls() || viaReset.Destroys() != viaRelease.Destroys() {
		return fail(ctx, "Reset made %d calls and %d destroys, release made %d and %d",
			viaReset.Calls(), viaReset.Destroys(), viaRelease.Calls(), viaRelease.Destroys())
	}
	return nil
}

func checkResetTo(ctx *Context) error {
	a := reftrack.NewProbe(ctx.Name + "/a")
	b := reftrack.NewProbe(ctx.Name + "/b")

	p := ref.New(a)
	p.ResetTo(b)
	if a.Destroys() != 1 || !p.Is(b) || b.UseCount() != 1 {
		return fail(ctx, "ResetTo: old destroyed %d times, new count %d", a.Destroys(), b.UseCount())
	}
	p.ResetTo(b)
	if b.UseCount() != 1 || b.Destroyed() {
		return fail(ctx, "ResetTo same target changed count to %d", b.UseCount())
	}
	p.Release()
	return b.Verify()
}

func checkSwap(ctx *Context) error {
	a := reftrack.NewProbe(ctx.Name + "/a")
	b := reftrack.NewProbe(ctx.Name + "/b")
	p := ref.New(a)
	q := ref.New(b)
	before := a.Calls() + b.Calls()

	p.Swap(q)

	if !p.Is(b) || !q.Is(a) {
		return fail(ctx, "Swap did not exchange targets")
	}
	if after := a.Calls() + b.Calls(); after != before {
		return fail(ctx, "Swap made %d hook calls", after-before)
	}
	p.Release()
	q.Release()
	if a.Destroys() != 1 || b.Destroys() != 1 {
		return fail(ctx, "destroys after swap: %d, %d", a.Destroys(), b.Destroys())
	}
	return nil
}

func checkIdentity(ctx *Context) error {
	a := reftrack.NewProbe(ctx.Name + "/a")
	b := reftrack.NewProbe(ctx.Name + "/b")
	pa := ref.New(a)
	pb := ref.New(b)
	pa2 := pa.Clone()
	defer pa.Release()
	defer pb.Release()
	defer pa2.Release()

	type pair struct {
		x, y *ref.Ptr[*reftrack.Probe]
	}
	for _, c := range []pair{{pa, pb}, {pb, pa}, {pa, pa2}} {
		ax, ay := c.x.Addr(), c.y.Addr()
		want := ax.Compare(ay)
		if ref.Compare(c.x, c.y) != want {
			return fail(ctx, "Compare disagrees with identity")
		}
		if ref.Equal(c.x, c.y) != (want == 0) || ref.NotEqual(c.x, c.y) != (want != 0) {
			return fail(ctx, "Equal/NotEqual inconsistent")
		}
		if ref.Less(c.x, c.y) != (want < 0) || ref.GreaterEqual(c.x, c.y) != (want >= 0) {
			return fail(ctx, "Less/GreaterEqual inconsistent")
		}
		if ref.Greater(c.x, c.y) != (want > 0) || ref.LessEqual(c.x, c.y) != (want <= 0) {
			return fail(ctx, "Greater/LessEqual inconsistent")
		}

		raw := c.y.Get()
		if c.x.Is(raw) != (c.x.Get() == raw) {
			return fail(ctx, "Is disagrees with raw equality")
		}
		if ref.CompareRaw(raw, c.x) != -c.x.Compare(raw) {
			return fail(ctx, "raw-first comparison is not the mirror of the member form")
		}
	}
	return nil
}

func checkEmpty(ctx *Context) error {
	x := reftrack.NewProbe(ctx.Name)
	var p ref.Ptr[*reftrack.Probe]
	if p.Valid() {
		return fail(ctx, "zero handle reports valid")
	}
	if p.Get() != nil || !p.Addr().IsNil() {
		return fail(ctx, "zero handle holds %v", p.Addr())
	}
	p.Release()
	p.Swap(ref.Empty[*reftrack.Probe]())
	if p.Is(x) || x.Calls() != 0 {
		return fail(ctx, "empty handle touched an unrelated target")
	}
	return nil
}

// destroyable is a polymorphic view of a probe.
type destroyable interface {
	ref.Binder
	Destroyed() bool
}

func checkConvert(ctx *Context) error {
	x := reftrack.NewProbe(ctx.Name)
	p := ref.New(x)
	v := ref.Convert(p, func(x *reftrack.Probe) destroyable { return x })

	if x.UseCount() != 2 {
		return fail(ctx, "converted handle count %d, want 2", x.UseCount())
	}
	if !ref.Equal(p, v) {
		return fail(ctx, "converted handle has a different identity")
	}
	p.Release()
	if v.Get().Destroyed() {
		return fail(ctx, "destroyed while converted handle alive")
	}
	m := ref.MoveConvert(v, func(d destroyable) ref.Binder { return d })
	v.Release()
	if x.Destroyed() {
		return fail(ctx, "released moved-from handle destroyed target")
	}
	m.Release()
	return x.Verify()
}

func checkTwoGoroutines(ctx *Context) error {
	x := reftrack.NewProbe(ctx.Name)

	var bound, first sync.WaitGroup
	bound.Add(2)
	first.Add(1)
	aliveAfterFirst := make(chan bool, 1)
	done := make(chan struct{})

	go func() {
		p := ref.New(x)
		bound.Done()
		bound.Wait()
		p.Reset()
		aliveAfterFirst <- !x.Destroyed()
		first.Done()
	}()
	go func() {
		defer close(done)
		p := ref.New(x)
		bound.Done()
		bound.Wait()
		first.Wait()
		p.Reset()
	}()
	<-done

	if !<-aliveAfterFirst {
		return fail(ctx, "target destroyed while the second goroutine owned it")
	}
	if x.Destroys() != 1 {
		return fail(ctx, "destroyed %d times", x.Destroys())
	}
	return x.Verify()
}

func checkConcurrentDrain(ctx *Context) error {
	owners := 4 * runtime.GOMAXPROCS(0)
	x := reftrack.NewProbe(ctx.Name)
	root := ref.New(x)
	handles := make([]*ref.Ptr[*reftrack.Probe], owners)
	for i := range handles {
		handles[i] = root.Clone()
	}
	root.Release()

	start := make(chan struct{})
	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h *ref.Ptr[*reftrack.Probe]) {
			defer wg.Done()
			<-start
			h.Release()
		}(h)
	}
	close(start)
	wg.Wait()

	if x.Destroys() != 1 {
		return fail(ctx, "%d concurrent releases destroyed %d times", owners, x.Destroys())
	}
	return x.Verify()
}

func checkTrackedTable(ctx *Context) error {
	table := reftrack.NewTable()
	var handles []*ref.Ptr[*reftrack.Probe]
	for i := 0; i < 4; i++ {
		x := reftrack.NewProbe(fmt.Sprintf("%s/%d", ctx.Name, i))
		x.Track(table, x)
		p := ref.New(x)
		handles = append(handles, p, p.Clone())
	}

	if err := table.Check(); err == nil {
		return fail(ctx, "live references not reported")
	}
	for _, h := range handles {
		h.Release()
	}
	if table.Len() != 0 {
		return fail(ctx, "%d targets still tracked", table.Len())
	}
	return table.Close()
}

// panics runs fn and checks that it panics with an error of the given
// phase and kind.
func panics(ctx *Context, phase errors.Phase, kind errors.Kind, fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			err = fail(ctx, "expected %s/%s panic, got none", phase, kind)
			return
		}
		perr, ok := r.(error)
		if !ok || !stderrors.Is(perr, &errors.Error{Phase: phase, Kind: kind}) {
			err = fail(ctx, "unexpected panic %v", r)
		}
	}()
	fn()
	return nil
}

func checkAccessToken(ctx *Context) error {
	x := reftrack.NewProbe(ctx.Name)
	if err := panics(ctx, errors.PhaseBind, errors.KindInvalidAccess, func() {
		x.BindPtr(ref.Access{})
	}); err != nil {
		return err
	}
	if x.UseCount() != 0 {
		return fail(ctx, "forged token moved the count to %d", x.UseCount())
	}
	return nil
}

// tokenKeeper keeps the token of its last bind past the hook call.
type tokenKeeper struct {
	ref.RefCount
	kept ref.Access
}

func (k *tokenKeeper) BindPtr(a ref.Access) {
	k.kept = a
	k.RefCount.BindPtr(a)
}

func checkStaleToken(ctx *Context) error {
	k := &tokenKeeper{}
	pk := ref.New(k)
	defer pk.Release()

	x := reftrack.NewProbe(ctx.Name)
	px := ref.New(x)
	defer px.Release()

	if err := panics(ctx, errors.PhaseUnbind, errors.KindInvalidAccess, func() {
		x.UnbindPtr(k.kept)
	}); err != nil {
		return err
	}
	if x.UseCount() != 1 || x.Destroyed() {
		return fail(ctx, "kept token moved the count to %d", x.UseCount())
	}
	return nil
}

func checkSpentTarget(ctx *Context) error {
	for _, x := range probes(ctx) {
		ref.New(x).Release()
		if err := panics(ctx, errors.PhaseBind, errors.KindDoubleDestroy, func() {
			ref.New(x)
		}); err != nil {
			return err
		}
		if x.Destroys() != 1 {
			return fail(ctx, "%T destroyed %d times", x, x.Destroys())
		}
	}
	return nil
}

func checkPathWritable(ctx *Context) error {
	if PathPrefix() == "" {
		return Skip("no path prefix set")
	}
	dir := filepath.Dir(TestPath("probe"))
	f, err := os.CreateTemp(dir, "selftest-*.tmp")
	if err != nil {
		return errors.Wrap(errors.PhaseSelfTest, errors.KindIO, err, "create fixture file")
	}
	name := f.Name()
	defer os.Remove(name)

	payload := []byte(ctx.Name)
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return errors.Wrap(errors.PhaseSelfTest, errors.KindIO, err, "write fixture file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.PhaseSelfTest, errors.KindIO, err, "close fixture file")
	}
	got, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(errors.PhaseSelfTest, errors.KindIO, err, "read fixture file")
	}
	if string(got) != ctx.Name {
		return fail(ctx, "fixture file round trip returned %q", got)
	}
	return nil
}

func checkResources(ctx *Context) error {
	if ResourcePath() == "" {
		return Skip("no resource path set")
	}
	dir := filepath.Dir(ResourceFile("probe"))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(errors.PhaseSelfTest, errors.KindIO, err, "list resources")
	}

	read := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, err := os.ReadFile(filepath.Join(dir, e.Name())); err != nil {
			// Scratch files of concurrent checks come and go.
			if stderrors.Is(err, os.ErrNotExist) {
				continue
			}
			return errors.Wrap(errors.PhaseSelfTest, errors.KindIO, err, "read resource "+e.Name())
		}
		read++
	}
	if read == 0 {
		return Skip("no resource files in %s", dir)
	}
	return nil
}
