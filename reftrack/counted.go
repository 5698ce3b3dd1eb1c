package reftrack

import "github.com/wippyai/bindptr/ref"

// Counted is a ref.Binder that wraps ref.AtomicRefCount and reports to a
// Table once Track has been called. Untracked, it behaves exactly like
// ref.AtomicRefCount.
type Counted struct {
	ref.AtomicRefCount
	table *Table
	owner any
}

// Track registers the target with table. owner is the outer object that
// embeds c and is used as the target's identity; nil means c itself.
// Track must be called before the target is shared with other goroutines.
func (c *Counted) Track(table *Table, owner any) {
	if owner == nil {
		owner = c
	}
	c.table = table
	c.owner = owner
	table.track(owner, c.UseCount())
}

// Table returns the table c reports to, or nil.
func (c *Counted) Table() *Table {
	return c.table
}

// BindPtr increments the count.
func (c *Counted) BindPtr(a ref.Access) {
	if c.table == nil {
		c.AtomicRefCount.BindPtr(a)
		return
	}
	c.table.bind(c.owner, func() uint64 {
		c.AtomicRefCount.BindPtr(a)
		return c.UseCount()
	})
}

// UnbindPtr decrements the count and reports whether it reached zero.
func (c *Counted) UnbindPtr(a ref.Access) bool {
	if c.table == nil {
		return c.AtomicRefCount.UnbindPtr(a)
	}
	return c.table.unbind(c.owner, func() bool {
		return c.AtomicRefCount.UnbindPtr(a)
	}, c.UseCount)
}
