package reftrack

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/bindptr/errors"
	"github.com/wippyai/bindptr/ref"
)

// Table records live tracked targets keyed by identity.
//
// Bind and unbind of tracked targets are serialized through the table, so
// the counts it reports are consistent with each other. Observers are
// notified after the table lock is dropped.
type Table struct {
	entries   map[ref.Addr]*entry
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	target  any
	typ     string
	count   uint64
	binds   uint64
	unbinds uint64
}

func (e *entry) export(addr ref.Addr) Entry {
	return Entry{
		Target:  e.target,
		Type:    e.typ,
		Addr:    addr,
		Count:   e.count,
		Binds:   e.binds,
		Unbinds: e.unbinds,
	}
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[ref.Addr]*entry, 64),
	}
}

// track registers target with its current use count.
func (t *Table) track(target any, count uint64) {
	addr := ref.Identity(target)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.entries[addr] = &entry{
		target: target,
		typ:    fmt.Sprintf("%T", target),
		count:  count,
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventTracked, Addr: addr, Target: target, Count: count})
}

// bind runs op, which must increment the target's count and return it.
func (t *Table) bind(target any, op func() uint64) {
	addr := ref.Identity(target)
	count := t.applyBind(addr, target, op)
	t.notify(Event{Type: EventBound, Addr: addr, Target: target, Count: count})
}

// unbind runs op, which must decrement the target's count and report the
// zero transition. count reads the count back under the table lock.
func (t *Table) unbind(target any, op func() bool, count func() uint64) bool {
	addr := ref.Identity(target)
	last, n := t.applyUnbind(addr, op, count)
	t.notify(Event{Type: EventUnbound, Addr: addr, Target: target, Count: n})
	if last {
		t.notify(Event{Type: EventReleased, Addr: addr, Target: target})
	}
	return last
}

func (t *Table) applyBind(addr ref.Addr, target any, op func() uint64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := op()
	if t.closed {
		return n
	}
	e, ok := t.entries[addr]
	if !ok {
		e = &entry{target: target, typ: fmt.Sprintf("%T", target)}
		t.entries[addr] = e
	}
	e.binds++
	e.count = n
	return n
}

func (t *Table) applyUnbind(addr ref.Addr, op func() bool, count func() uint64) (bool, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	last := op()
	n := count()
	if t.closed {
		return last, n
	}
	if e, ok := t.entries[addr]; ok {
		e.unbinds++
		e.count = n
		if last {
			delete(t.entries, addr)
		}
	}
	return last, n
}

// Get returns the entry for a live target.
func (t *Table) Get(addr ref.Addr) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[addr]
	if !ok {
		return Entry{}, false
	}
	return e.export(addr), true
}

// Len returns the number of live targets.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Live returns a snapshot of live targets ordered by identity.
func (t *Table) Live() []Entry {
	t.mu.RLock()
	out := make([]Entry, 0, len(t.entries))
	for addr, e := range t.entries {
		out = append(out, e.export(addr))
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Each iterates over a snapshot of live targets until fn returns false.
func (t *Table) Each(fn func(Entry) bool) {
	for _, e := range t.Live() {
		if !fn(e) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer. ObserverFunc values cannot be
// compared and are never removed.
func (t *Table) Unsubscribe(o Observer) {
	if _, ok := o.(ObserverFunc); ok {
		return
	}
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if _, ok := obs.(ObserverFunc); ok {
			continue
		}
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Check returns a leak error for every target that is still referenced.
func (t *Table) Check() error {
	var err error
	for _, e := range t.Live() {
		if e.Count == 0 {
			continue
		}
		err = multierr.Append(err, errors.Leak(e.Type, e.Addr.Uintptr(), e.Count))
	}
	return err
}

// Close reports leaks like Check, forgets every entry and stops tracking.
func (t *Table) Close() error {
	err := t.Check()
	for _, leak := range multierr.Errors(err) {
		Logger().Warn("target still referenced at close", zap.Error(leak))
	}

	t.mu.Lock()
	t.closed = true
	t.entries = make(map[ref.Addr]*entry)
	t.mu.Unlock()

	return err
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnRefEvent(e)
	}
}
