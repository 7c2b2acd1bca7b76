// Package registry maintains the authoritative view of active documents and
// users across all worker processes.
//
// A DocumentSession exists for every (worker pid, document path) pair with at
// least one open view; a view is one user's connection to that document. The
// registry owns session/view lifecycle exclusively: it is driven by worker
// lifecycle events (view opened, view closed, worker disconnected) and is the
// single source of truth for the active document and active user counts the
// admin console reports.
//
// All mutations are serialized by one mutex, and change events are handed to
// the Publisher while that mutex is held. Publishing is a non-blocking,
// in-memory hand-off, so the lock is never held across network I/O, and the
// order in which subscribers observe events is exactly the order in which
// mutations were applied.
package registry
