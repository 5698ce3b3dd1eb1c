package reftrack

import "github.com/wippyai/bindptr/ref"

// EventType identifies a lifecycle event.
type EventType uint8

const (
	EventTracked EventType = iota
	EventBound
	EventUnbound
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventTracked:
		return "tracked"
	case EventBound:
		return "bound"
	case EventUnbound:
		return "unbound"
	case EventReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event represents a target lifecycle event.
type Event struct {
	Target any
	Type   EventType
	Addr   ref.Addr
	// Count is the use count observed right after the operation.
	Count uint64
}

// Observer receives notifications about lifecycle events.
type Observer interface {
	OnRefEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnRefEvent calls f(e).
func (f ObserverFunc) OnRefEvent(e Event) { f(e) }

// Entry describes a live target.
type Entry struct {
	Target  any
	Type    string
	Addr    ref.Addr
	Count   uint64
	Binds   uint64
	Unbinds uint64
}
