// ABOUTME: Lifecycle event types emitted by the registry on state changes
// ABOUTME: Consumed by the admin notification hub for topic-gated fan-out

package registry

// Topic names admin connections can subscribe to.
const (
	TopicAddDoc = "adddoc"
	TopicRmDoc  = "rmdoc"
)

// EventKind discriminates registry lifecycle events.
type EventKind int

const (
	// EventAddDoc is emitted once for every view-open, including views
	// joining an already-live document session.
	EventAddDoc EventKind = iota
	// EventRmDoc is emitted once for every view removed, whether by a
	// graceful close or a worker disconnect.
	EventRmDoc
)

// Event describes one registry state change.
type Event struct {
	Kind EventKind
	// PID of the worker process hosting the document.
	PID int
	// DocName is the base filename of the document, no directory component.
	DocName string
	// ViewID is the per-session monotonically assigned view number.
	ViewID int
	// MemKB is the resident memory of the hosting worker at emission time,
	// zero when unknown.
	MemKB int64
}

// Topic returns the subscription topic this event belongs to.
func (e Event) Topic() string {
	if e.Kind == EventRmDoc {
		return TopicRmDoc
	}
	return TopicAddDoc
}

// Publisher receives registry events. Implementations must not block and must
// not call back into the registry.
type Publisher interface {
	Publish(ev Event)
}
