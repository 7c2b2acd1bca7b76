// ABOUTME: Concurrent registry of live document sessions and their views
// ABOUTME: Serializes worker lifecycle events and keeps aggregate counts consistent

package registry

import (
	"log/slog"
	"path"
	"sort"
	"sync"
)

// MemSampler reports the resident memory of a worker process in KB.
// Used to annotate adddoc events; a nil sampler or an error yields zero.
type MemSampler func(pid int) (int64, error)

type sessionKey struct {
	pid  int
	path string
}

// session is one live document instance hosted by a worker process.
type session struct {
	pid     int
	docPath string
	// views holds the IDs of currently connected views, oldest first.
	views []int
	// nextViewID is never reused within a session.
	nextViewID int
}

// DocumentInfo is a point-in-time description of one live session.
type DocumentInfo struct {
	PID     int
	DocName string
	Views   int
}

// Registry tracks all live document sessions. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[sessionKey]*session

	activeDocs  int
	activeUsers int

	pub     Publisher
	sampler MemSampler
	logger  *slog.Logger
}

// New creates an empty registry. pub receives one event per state change and
// may be nil. sampler may be nil.
func New(pub Publisher, sampler MemSampler, logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[sessionKey]*session),
		pub:      pub,
		sampler:  sampler,
		logger:   logger,
	}
}

// ViewOpened records one user view opening the given document on the given
// worker. The first view of a (pid, path) pair creates the session. Every
// call emits exactly one adddoc event.
func (r *Registry) ViewOpened(pid int, docPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey{pid: pid, path: docPath}
	s, ok := r.sessions[key]
	if !ok {
		s = &session{pid: pid, docPath: docPath, nextViewID: 1}
		r.sessions[key] = s
		r.activeDocs++
	}

	viewID := s.nextViewID
	s.nextViewID++
	s.views = append(s.views, viewID)
	r.activeUsers++

	r.logger.Debug("view opened",
		"pid", pid,
		"doc", docPath,
		"view", viewID,
		"active_docs", r.activeDocs,
		"active_users", r.activeUsers,
	)

	r.emit(Event{
		Kind:    EventAddDoc,
		PID:     pid,
		DocName: path.Base(docPath),
		ViewID:  viewID,
		MemKB:   r.sampleMem(pid),
	})
}

// ViewClosed records one user view leaving the given document. Removing the
// last view removes the session. Closing a view that was never opened is
// tolerated as a no-op with a warning, since event ordering across process
// boundaries is not perfectly reliable.
func (r *Registry) ViewClosed(pid int, docPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey{pid: pid, path: docPath}
	s, ok := r.sessions[key]
	if !ok || len(s.views) == 0 {
		r.logger.Warn("close for unknown view", "pid", pid, "doc", docPath)
		return
	}

	r.removeOldestViewLocked(key, s)
}

// WorkerDisconnected treats an unexpected worker exit as an implicit close of
// every view of every session hosted by that pid, emitting one rmdoc per view.
func (r *Registry) WorkerDisconnected(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []sessionKey
	for key := range r.sessions {
		if key.pid == pid {
			keys = append(keys, key)
		}
	}
	// Deterministic removal order across sessions of the same worker.
	sort.Slice(keys, func(i, j int) bool { return keys[i].path < keys[j].path })

	if len(keys) > 0 {
		r.logger.Info("worker disconnected, closing its views", "pid", pid, "sessions", len(keys))
	}

	for _, key := range keys {
		s := r.sessions[key]
		for len(s.views) > 0 {
			r.removeOldestViewLocked(key, s)
		}
	}
}

// removeOldestViewLocked removes the longest-lived view of s, updating counts
// and emitting the rmdoc event. Caller holds r.mu.
func (r *Registry) removeOldestViewLocked(key sessionKey, s *session) {
	viewID := s.views[0]
	s.views = s.views[1:]
	r.activeUsers--

	if len(s.views) == 0 {
		delete(r.sessions, key)
		r.activeDocs--
	}

	r.logger.Debug("view closed",
		"pid", s.pid,
		"doc", s.docPath,
		"view", viewID,
		"active_docs", r.activeDocs,
		"active_users", r.activeUsers,
	)

	r.emit(Event{
		Kind:    EventRmDoc,
		PID:     s.pid,
		DocName: path.Base(s.docPath),
		ViewID:  viewID,
	})
}

// ActiveDocsCount returns the number of live document sessions.
func (r *Registry) ActiveDocsCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeDocs
}

// ActiveUsersCount returns the total number of connected views.
func (r *Registry) ActiveUsersCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeUsers
}

// Documents returns a snapshot of all live sessions, ordered by pid then name.
func (r *Registry) Documents() []DocumentInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := make([]DocumentInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		docs = append(docs, DocumentInfo{
			PID:     s.pid,
			DocName: path.Base(s.docPath),
			Views:   len(s.views),
		})
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].PID != docs[j].PID {
			return docs[i].PID < docs[j].PID
		}
		return docs[i].DocName < docs[j].DocName
	})
	return docs
}

// emit hands an event to the publisher. Called with r.mu held so subscribers
// observe events in mutation order; the publisher must not block.
func (r *Registry) emit(ev Event) {
	if r.pub != nil {
		r.pub.Publish(ev)
	}
}

func (r *Registry) sampleMem(pid int) int64 {
	if r.sampler == nil {
		return 0
	}
	kb, err := r.sampler(pid)
	if err != nil {
		return 0
	}
	return kb
}
