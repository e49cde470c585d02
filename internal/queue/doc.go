// Package queue owns the authoritative in-memory collection of edit
// requests and the invariants the rest of darkroom depends on: at most
// one record per requester, a fixed admission capacity, insertion order,
// and one-way status transitions.
//
// Every mutating operation holds the engine's write lock across both the
// in-memory update and the snapshot save, so concurrent callers (the
// Telegram update loop, dashboard handlers, the nightly reset) serialize
// rather than interleave. A failed save never rolls back the in-memory
// mutation; callers receive a *SaveError and decide how loudly to warn.
//
// Treat this package as the single source of truth for queue semantics;
// surfaces hold an *Engine and never touch records directly.
package queue
