// Package ttable implements the engine's transposition table: a
// many-reader/one-writer map from game position to stats.Stats.
//
// There is no library in this codebase's dependency graph that implements
// an evmap-equivalent split for Go, so this package is the deliverable
// itself rather than a wrapper around one. The design: the writer holds a
// private pending-delta map and an atomically-swapped pointer to the
// published (read-only) map. Refresh merges pending deltas into a freshly
// allocated copy of the published map and swaps the pointer; readers only
// ever atomic-load the pointer and index the map they find there, so a
// reader is wait-free against the writer and never observes a map being
// mutated out from under it (Go map access from a concurrent writer would
// otherwise be a data race, not just a "torn read" — copy-on-write is what
// makes the lock-free read path safe at all, not merely fast).
package ttable

import (
	"sync/atomic"

	"github.com/signalnine/mcts/stats"
)

// Delta is one pending stats update for position G, as produced by a
// playout's backpropagation pass.
type Delta[G comparable] struct {
	Pos   G
	Delta stats.Stats
}

type snapshot[G comparable] struct {
	m map[G]stats.Stats
}

// Writer is the single logical writer of a transposition table. It must
// not be used concurrently from more than one goroutine — the merger owns
// it exclusively, per spec.
type Writer[G comparable] struct {
	pending map[G]stats.Stats
	current atomic.Pointer[snapshot[G]]
}

// NewWriter returns an empty table with no published entries.
func NewWriter[G comparable]() *Writer[G] {
	w := &Writer[G]{pending: make(map[G]stats.Stats)}
	w.current.Store(&snapshot[G]{m: make(map[G]stats.Stats)})
	return w
}

// Update folds delta into the writer's pending working set for g,
// additive on any existing entry (pending or already published).
// Multiple pending increments for the same key are coalesced here, before
// Refresh ever publishes them.
func (w *Writer[G]) Update(g G, delta stats.Stats) {
	w.pending[g] = w.pending[g].Add(delta)
}

// ApplyBatch folds a worker's flushed delta batch into the pending set.
func (w *Writer[G]) ApplyBatch(batch []Delta[G]) {
	for _, d := range batch {
		w.Update(d.Pos, d.Delta)
	}
}

// PendingLen reports the number of distinct keys with unpublished
// updates.
func (w *Writer[G]) PendingLen() int {
	return len(w.pending)
}

// Refresh publishes all pending updates: it allocates a new map seeded
// from the currently published one, sums in every pending delta, and
// atomically swaps the published pointer. After Refresh, new Get calls
// observe the merged state; calls already in flight continue to observe
// whichever snapshot they loaded. Refresh with no pending updates is a
// no-op on the observable snapshot (it still swaps in an equal copy).
func (w *Writer[G]) Refresh() {
	prev := w.current.Load()
	next := make(map[G]stats.Stats, len(prev.m)+len(w.pending))
	for k, v := range prev.m {
		next[k] = v
	}
	for k, delta := range w.pending {
		next[k] = next[k].Add(delta)
	}
	w.current.Store(&snapshot[G]{m: next})
	w.pending = make(map[G]stats.Stats, len(w.pending))
}

// Reader returns a new read handle against this writer. Read handles are
// cheap (a single pointer) and safe to share across any number of
// goroutines.
func (w *Writer[G]) Reader() *Reader[G] {
	return &Reader[G]{src: w}
}

// Snapshot returns a point-in-time, read-only view of the table's most
// recently published contents, for callers (the MCTS façade, treeviz,
// ttsnap) that need to enumerate entries rather than look one up.
func (w *Writer[G]) Snapshot() map[G]stats.Stats {
	return w.current.Load().m
}

// Reader is a read handle into a Writer's published table. Get never
// blocks on, or contends with, the writer.
type Reader[G comparable] struct {
	src *Writer[G]
}

// Get resolves g against the most recently published snapshot. It
// reports false if g has never been visited.
func (r *Reader[G]) Get(g G) (stats.Stats, bool) {
	snap := r.src.current.Load()
	s, ok := snap.m[g]
	return s, ok
}
