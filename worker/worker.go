// Package worker implements the per-worker simulation loop of the engine:
// read the published root, run a batch of playouts, flush accumulated
// deltas to the merger no more often than a minimum interval, and adopt
// whatever refreshed read snapshot the merger has broadcast since.
package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/signalnine/mcts/game"
	"github.com/signalnine/mcts/playout"
	"github.com/signalnine/mcts/ttable"
)

// RootSource is how a worker learns the current search root. mcts.Strategy
// implements this over its mutex-guarded root pointer; workers never see
// the mutex directly.
type RootSource[G any] interface {
	CurrentRoot() (G, bool)
}

// Config holds the per-worker tuning knobs from spec.md §6.4.
type Config struct {
	BatchSize        int
	MinFlushInterval time.Duration
	ExplorationC     float64
}

// Worker owns one simulation loop: its own RNG (thread-local, never
// shared, per spec), a last-flush timestamp, a pending-deltas batch that
// grows by Config.BatchSize playouts between flush checks and is emptied
// only when a flush goes out, and a cached read handle into the table.
type Worker[G comparable, M comparable, A comparable] struct {
	id     int
	rules  game.Game[G, M, A]
	rng    *rand.Rand
	reader *ttable.Reader[G]
	inbox  <-chan *ttable.Reader[G]
	dataCh chan<- []ttable.Delta[G]
	root   RootSource[G]
	cfg    Config

	pending   []ttable.Delta[G]
	lastFlush time.Time
}

// New constructs a worker. seed should come from a source of system
// randomness distinct per worker — never a shared RNG — matching
// mcts_parallel.rs's per-worker rand::random seeding.
func New[G comparable, M comparable, A comparable](
	id int,
	rules game.Game[G, M, A],
	reader *ttable.Reader[G],
	inbox <-chan *ttable.Reader[G],
	dataCh chan<- []ttable.Delta[G],
	root RootSource[G],
	cfg Config,
	seed int64,
) *Worker[G, M, A] {
	return &Worker[G, M, A]{
		id:     id,
		rules:  rules,
		rng:    rand.New(rand.NewSource(seed)),
		reader: reader,
		inbox:  inbox,
		dataCh: dataCh,
		root:   root,
		cfg:    cfg,
	}
}

// parkInterval bounds how long a worker sleeps between checks for a root
// when none has been published yet. The original source spins in a tight
// loop for the same condition (mcts_parallel.rs's start_worker); sleeping
// briefly keeps the same "no suspension primitives beyond blocking" shape
// without burning a core on an unset root.
const parkInterval = time.Millisecond

// Run drives the worker loop until ctx is cancelled, at which point any
// pending deltas are flushed (blocking, ignoring further cancellation) so
// no in-flight statistics are lost on shutdown.
func (w *Worker[G, M, A]) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drainOnShutdown()
			return
		default:
		}

		g, ok := w.root.CurrentRoot()
		if !ok {
			select {
			case <-ctx.Done():
				w.drainOnShutdown()
				return
			case <-time.After(parkInterval):
			}
			continue
		}

		for i := 0; i < w.cfg.BatchSize; i++ {
			path, outcome := playout.Run(w.rules, w.reader, w.rng, w.cfg.ExplorationC, g)
			w.pending = append(w.pending, playout.Backpropagate(w.rules, path, outcome)...)
		}

		if time.Since(w.lastFlush) >= w.cfg.MinFlushInterval {
			w.flush(ctx)
		}

		w.adoptLatestSnapshot()
	}
}

// flush hands the pending batch to the merger over the bounded data
// channel, blocking under backpressure if the merger is behind, per
// spec.md §4.3's rationale for the bound.
func (w *Worker[G, M, A]) flush(ctx context.Context) {
	if len(w.pending) == 0 {
		w.lastFlush = time.Now()
		return
	}
	select {
	case w.dataCh <- w.pending:
	case <-ctx.Done():
		// Shutdown path drains synchronously instead; don't double-send.
		return
	}
	w.pending = nil
	w.lastFlush = time.Now()
}

// drainOnShutdown flushes any outstanding deltas unconditionally so
// shutdown never loses statistics for completed playouts, per spec.md §7.
func (w *Worker[G, M, A]) drainOnShutdown() {
	if len(w.pending) == 0 {
		return
	}
	w.dataCh <- w.pending
	w.pending = nil
}

// adoptLatestSnapshot performs the worker loop's non-blocking inbox
// check, draining every pending broadcast so the worker always ends up
// on the newest snapshot the merger has published, per spec.md §4.3.
func (w *Worker[G, M, A]) adoptLatestSnapshot() {
	for {
		select {
		case r := <-w.inbox:
			w.reader = r
		default:
			return
		}
	}
}
