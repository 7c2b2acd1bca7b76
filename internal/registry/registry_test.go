// ABOUTME: Unit tests for session registry counts, lifecycle and event emission
// ABOUTME: Covers per-view events, worker disconnect and defensive no-ops

package registry

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher records events in emission order.
type capturePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturePublisher) Publish(ev Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *capturePublisher) all() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func newTestRegistry() (*Registry, *capturePublisher) {
	pub := &capturePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(pub, nil, logger), pub
}

func TestRegistry_FirstViewCreatesSession(t *testing.T) {
	reg, pub := newTestRegistry()

	reg.ViewOpened(100, "/docs/hello.odt")

	assert.Equal(t, 1, reg.ActiveDocsCount())
	assert.Equal(t, 1, reg.ActiveUsersCount())

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, EventAddDoc, events[0].Kind)
	assert.Equal(t, 100, events[0].PID)
	assert.Equal(t, "hello.odt", events[0].DocName, "docname must be the base filename")
	assert.Equal(t, 1, events[0].ViewID)
}

func TestRegistry_SecondViewSameDoc(t *testing.T) {
	reg, pub := newTestRegistry()

	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewOpened(100, "/docs/hello.odt")

	assert.Equal(t, 1, reg.ActiveDocsCount(), "same (pid, path) must not create a second session")
	assert.Equal(t, 2, reg.ActiveUsersCount())

	events := pub.all()
	require.Len(t, events, 2, "every view-open emits an adddoc event")
	assert.Equal(t, 1, events[0].ViewID)
	assert.Equal(t, 2, events[1].ViewID)
}

func TestRegistry_DistinctDocsDistinctSessions(t *testing.T) {
	reg, _ := newTestRegistry()

	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewOpened(200, "/docs/insert-delete.odp")

	assert.Equal(t, 2, reg.ActiveDocsCount())
	assert.Equal(t, 3, reg.ActiveUsersCount())
}

func TestRegistry_SamePathDifferentPID(t *testing.T) {
	reg, _ := newTestRegistry()

	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewOpened(200, "/docs/hello.odt")

	assert.Equal(t, 2, reg.ActiveDocsCount(), "session identity is (pid, path)")
	assert.Equal(t, 2, reg.ActiveUsersCount())
}

func TestRegistry_CloseOnlyViewRemovesSession(t *testing.T) {
	reg, pub := newTestRegistry()

	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewClosed(100, "/docs/hello.odt")

	assert.Equal(t, 0, reg.ActiveDocsCount())
	assert.Equal(t, 0, reg.ActiveUsersCount())

	events := pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, EventRmDoc, events[1].Kind)
	assert.Equal(t, 100, events[1].PID)
	assert.Equal(t, "hello.odt", events[1].DocName)
	assert.Equal(t, 1, events[1].ViewID)
}

func TestRegistry_CloseOneOfTwoViewsKeepsSession(t *testing.T) {
	reg, _ := newTestRegistry()

	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewClosed(100, "/docs/hello.odt")

	assert.Equal(t, 1, reg.ActiveDocsCount(), "document still has one other view")
	assert.Equal(t, 1, reg.ActiveUsersCount())
}

func TestRegistry_CloseUnknownViewIsNoOp(t *testing.T) {
	reg, pub := newTestRegistry()

	reg.ViewClosed(999, "/docs/ghost.odt")

	assert.Equal(t, 0, reg.ActiveDocsCount())
	assert.Equal(t, 0, reg.ActiveUsersCount())
	assert.Empty(t, pub.all(), "no rmdoc for a view that was never opened")

	// A real session must not be affected by a stray close either.
	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewClosed(100, "/docs/other.odt")
	assert.Equal(t, 1, reg.ActiveUsersCount())
}

func TestRegistry_WorkerDisconnectClosesAllViews(t *testing.T) {
	reg, pub := newTestRegistry()

	reg.ViewOpened(100, "/docs/a.odt")
	reg.ViewOpened(100, "/docs/a.odt")
	reg.ViewOpened(100, "/docs/b.ods")
	reg.ViewOpened(200, "/docs/c.odp")

	reg.WorkerDisconnected(100)

	assert.Equal(t, 1, reg.ActiveDocsCount(), "other worker's session survives")
	assert.Equal(t, 1, reg.ActiveUsersCount())

	var rmdocs []Event
	for _, ev := range pub.all() {
		if ev.Kind == EventRmDoc {
			rmdocs = append(rmdocs, ev)
		}
	}
	require.Len(t, rmdocs, 3, "one rmdoc per removed view")
	for _, ev := range rmdocs {
		assert.Equal(t, 100, ev.PID)
	}
}

func TestRegistry_DisconnectUnknownWorkerIsNoOp(t *testing.T) {
	reg, pub := newTestRegistry()

	reg.WorkerDisconnected(12345)

	assert.Equal(t, 0, reg.ActiveDocsCount())
	assert.Empty(t, pub.all())
}

func TestRegistry_Documents(t *testing.T) {
	reg, _ := newTestRegistry()

	reg.ViewOpened(200, "/docs/insert-delete.odp")
	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewOpened(100, "/docs/hello.odt")

	docs := reg.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, DocumentInfo{PID: 100, DocName: "hello.odt", Views: 2}, docs[0])
	assert.Equal(t, DocumentInfo{PID: 200, DocName: "insert-delete.odp", Views: 1}, docs[1])
}

func TestRegistry_ViewIDsNotReusedWithinSession(t *testing.T) {
	reg, pub := newTestRegistry()

	reg.ViewOpened(100, "/docs/hello.odt")
	reg.ViewClosed(100, "/docs/hello.odt")
	reg.ViewOpened(100, "/docs/hello.odt")

	// The session was removed in between, so numbering restarts with the new
	// session; within one session IDs only grow.
	reg.ViewOpened(100, "/docs/hello.odt")

	events := pub.all()
	var adds []Event
	for _, ev := range events {
		if ev.Kind == EventAddDoc {
			adds = append(adds, ev)
		}
	}
	require.Len(t, adds, 3)
	assert.Less(t, adds[1].ViewID, adds[2].ViewID)
}

func TestRegistry_CountInvariantsUnderConcurrency(t *testing.T) {
	reg, _ := newTestRegistry()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				reg.ViewOpened(pid, "/docs/shared.odt")
				docs, users := reg.ActiveDocsCount(), reg.ActiveUsersCount()
				if docs < 0 || users < 0 || docs > users {
					t.Errorf("invariant violated: docs=%d users=%d", docs, users)
				}
				reg.ViewClosed(pid, "/docs/shared.odt")
			}
		}(100 + w)
	}
	wg.Wait()

	assert.Equal(t, 0, reg.ActiveDocsCount())
	assert.Equal(t, 0, reg.ActiveUsersCount())
}

func TestEvent_Topic(t *testing.T) {
	assert.Equal(t, TopicAddDoc, Event{Kind: EventAddDoc}.Topic())
	assert.Equal(t, TopicRmDoc, Event{Kind: EventRmDoc}.Topic())
}
