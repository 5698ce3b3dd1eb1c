package reftrack

import (
	stderrors "errors"
	"sync"
	"testing"

	"go.uber.org/multierr"

	"github.com/wippyai/bindptr/errors"
	"github.com/wippyai/bindptr/ref"
)

type testObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *testObserver) OnRefEvent(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *testObserver) types() []EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]EventType, len(o.events))
	for i, e := range o.events {
		out[i] = e.Type
	}
	return out
}

type session struct {
	Counted
	id string
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()
	s := &session{id: "a"}
	s.Track(table, s)

	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}

	p := ref.New(s)
	q := p.Clone()

	e, ok := table.Get(ref.AddrOf(s))
	if !ok {
		t.Fatal("Get failed")
	}
	if e.Count != 2 || e.Binds != 2 || e.Unbinds != 0 {
		t.Fatalf("entry = %+v", e)
	}
	if e.Type != "*reftrack.session" {
		t.Fatalf("Type = %q", e.Type)
	}
	if e.Target != any(s) {
		t.Fatal("wrong target in entry")
	}

	q.Release()
	e, _ = table.Get(ref.AddrOf(s))
	if e.Count != 1 || e.Unbinds != 1 {
		t.Fatalf("entry after release = %+v", e)
	}

	p.Release()
	if table.Len() != 0 {
		t.Fatalf("Len() = %d after last release, want 0", table.Len())
	}
	if _, ok := table.Get(ref.AddrOf(s)); ok {
		t.Fatal("released target still present")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	s := &session{}
	s.Track(table, s)
	p := ref.New(s)
	p.Release()

	want := []EventType{EventTracked, EventBound, EventUnbound, EventReleased}
	got := obs.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, got[i], want[i])
		}
	}

	table.Unsubscribe(obs)
	s2 := &session{}
	s2.Track(table, s2)
	if len(obs.types()) != len(want) {
		t.Fatal("unsubscribed observer still notified")
	}
}

func TestTable_ObserverFunc(t *testing.T) {
	table := NewTable()
	var released []ref.Addr
	table.Subscribe(ObserverFunc(func(e Event) {
		if e.Type == EventReleased {
			released = append(released, e.Addr)
		}
	}))
	table.Unsubscribe(ObserverFunc(func(Event) {}))

	s := &session{}
	s.Track(table, s)
	ref.New(s).Release()

	if len(released) != 1 || released[0] != ref.AddrOf(s) {
		t.Fatalf("released = %v", released)
	}
}

func TestTable_CheckReportsLeaks(t *testing.T) {
	table := NewTable()
	a, b := &session{id: "a"}, &session{id: "b"}
	a.Track(table, a)
	b.Track(table, b)

	pa := ref.New(a)
	pb := ref.New(b)
	pb2 := pb.Clone()

	err := table.Check()
	leaks := multierr.Errors(err)
	if len(leaks) != 2 {
		t.Fatalf("leaks = %v, want 2", leaks)
	}
	for _, leak := range leaks {
		if !stderrors.Is(leak, &errors.Error{Phase: errors.PhaseTrack, Kind: errors.KindLeak}) {
			t.Fatalf("unexpected error %v", leak)
		}
	}

	pa.Release()
	pb.Release()
	pb2.Release()

	if err := table.Check(); err != nil {
		t.Fatalf("Check after release = %v", err)
	}
}

func TestTable_TrackedButUnbound(t *testing.T) {
	table := NewTable()
	s := &session{}
	s.Track(table, s)

	// A tracked target that was never bound is live but not leaking.
	if table.Len() != 1 {
		t.Fatalf("Len() = %d", table.Len())
	}
	if err := table.Check(); err != nil {
		t.Fatalf("Check = %v", err)
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	s := &session{}
	s.Track(table, s)
	p := ref.New(s)

	if err := table.Close(); err == nil {
		t.Fatal("Close should report the outstanding reference")
	}
	if table.Len() != 0 {
		t.Fatal("Close should forget entries")
	}

	// Handles keep working after the table is closed.
	q := p.Clone()
	q.Release()
	p.Release()
	if s.UseCount() != 0 {
		t.Fatalf("UseCount = %d", s.UseCount())
	}

	s2 := &session{}
	s2.Track(table, s2)
	if table.Len() != 0 {
		t.Fatal("closed table accepted a new target")
	}
}

func TestTable_Live(t *testing.T) {
	table := NewTable()
	var handles []*ref.Ptr[*session]
	for i := 0; i < 5; i++ {
		s := &session{}
		s.Track(table, s)
		handles = append(handles, ref.New(s))
	}

	live := table.Live()
	if len(live) != 5 {
		t.Fatalf("Live() = %d entries", len(live))
	}
	for i := 1; i < len(live); i++ {
		if !live[i-1].Addr.Lt(live[i].Addr) {
			t.Fatal("Live() not ordered by identity")
		}
	}

	n := 0
	table.Each(func(Entry) bool {
		n++
		return n < 3
	})
	if n != 3 {
		t.Fatalf("Each visited %d, want 3", n)
	}

	for _, h := range handles {
		h.Release()
	}
}

func TestTable_Concurrent(t *testing.T) {
	table := NewTable()
	s := &session{}
	s.Track(table, s)
	root := ref.New(s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				q := root.Clone()
				q.Release()
			}
		}()
	}
	wg.Wait()

	e, ok := table.Get(ref.AddrOf(s))
	if !ok {
		t.Fatal("target should still be live")
	}
	if e.Count != 1 || e.Binds != 1601 || e.Unbinds != 1600 {
		t.Fatalf("entry = %+v", e)
	}

	root.Release()
	if table.Len() != 0 {
		t.Fatal("target should be gone")
	}
}

func TestCounted_Untracked(t *testing.T) {
	c := &Counted{}
	p := ref.New(c)
	if c.UseCount() != 1 || c.Table() != nil {
		t.Fatal("untracked Counted should count like AtomicRefCount")
	}
	p.Release()
	if c.UseCount() != 0 {
		t.Fatal("count should drop to zero")
	}
}

func TestCounted_OwnerDefaultsToSelf(t *testing.T) {
	table := NewTable()
	c := &Counted{}
	c.Track(table, nil)

	if _, ok := table.Get(ref.AddrOf(c)); !ok {
		t.Fatal("Counted should be tracked under its own identity")
	}
}
