// Package mcts implements the parallel Monte Carlo Tree Search strategy
// façade: a root pointer shared with a worker pool, a merger owning the
// transposition table, and a decide() that publishes a root, waits out a
// time budget, and picks the most-visited child.
package mcts

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/signalnine/mcts/game"
	"github.com/signalnine/mcts/merger"
	"github.com/signalnine/mcts/stats"
	"github.com/signalnine/mcts/ttable"
	"github.com/signalnine/mcts/worker"
)

// Params holds the tunables of spec.md §6.4.
type Params struct {
	Timeout           time.Duration
	C                 float64
	Workers           int
	WorkerBatchSize   int
	MinFlushInterval  time.Duration
	MergerBatchSize   int
	MergerQueueBound  int

	// Trace, if set, receives one line per candidate child (its move and
	// Stats) before Decide returns, mirroring the progress dump
	// mcts_parallel.rs::decide prints before picking its answer.
	Trace io.Writer
}

func (p Params) validate() error {
	switch {
	case p.Workers < 1:
		return errors.New("mcts: workers must be >= 1")
	case p.Timeout < 0:
		return errors.New("mcts: timeout must be >= 0")
	case p.WorkerBatchSize < 1:
		return errors.New("mcts: worker_batch_size must be >= 1")
	case p.MergerBatchSize < 1:
		return errors.New("mcts: merger_batch_size must be >= 1")
	case p.MergerQueueBound < 1:
		return errors.New("mcts: merger_queue_bound must be >= 1")
	}
	return nil
}

// Strategy is the parallel MCTS façade for game G, move M, agent A.
type Strategy[G comparable, M comparable, A comparable] struct {
	rules  game.Game[G, M, A]
	params Params

	mu      sync.Mutex
	root    G
	hasRoot bool

	writer *ttable.Writer[G]
	mg     *merger.Merger[G]
	mgErr  chan error
	cancel context.CancelFunc
}

// Create validates params and starts the merger and worker pool, per
// spec.md §7's "reject configuration errors at create" policy.
func Create[G comparable, M comparable, A comparable](rules game.Game[G, M, A], params Params) (*Strategy[G, M, A], error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	s := &Strategy[G, M, A]{rules: rules, params: params}
	s.start()
	return s, nil
}

// start (re)builds the table, merger and worker pool from scratch. Called
// once by Create and again by Reset.
func (s *Strategy[G, M, A]) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.writer = ttable.NewWriter[G]()
	dataCh := make(chan []ttable.Delta[G], s.params.MergerQueueBound)
	var workersDone sync.WaitGroup
	s.mg = merger.New[G](s.writer, dataCh, s.params.Workers, merger.Config{BatchSize: s.params.MergerBatchSize}, ctx.Done(), &workersDone)
	s.mgErr = make(chan error, 1)
	go func() { s.mgErr <- s.mg.Run(ctx.Done()) }()

	workerCfg := worker.Config{
		BatchSize:        s.params.WorkerBatchSize,
		MinFlushInterval: s.params.MinFlushInterval,
		ExplorationC:     s.params.C,
	}
	for i := 0; i < s.params.Workers; i++ {
		w := worker.New[G, M, A](i, s.rules, s.writer.Reader(), s.mg.WorkerInbox(i), dataCh, s, workerCfg, workerSeed())
		workersDone.Add(1)
		go func() {
			defer workersDone.Done()
			w.Run(ctx)
		}()
	}
}

// workerSeed draws a per-worker RNG seed from system randomness rather
// than a shared or time-derived source, per mcts_parallel.rs's
// rand::random seeding.
func workerSeed() int64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.BigEndian.Uint64(buf[:]))
}

// shutdown cancels the worker pool and merger and waits for the merger's
// final drain-and-refresh to complete.
func (s *Strategy[G, M, A]) shutdown() error {
	s.cancel()
	return <-s.mgErr
}

// Reset discards all accumulated statistics and restarts the worker pool.
// By default this engine ponders across decide() calls (cached stats for
// recurring positions are a feature, not a leak); Reset is the escape
// hatch for callers who want a clean table before the next decision.
func (s *Strategy[G, M, A]) Reset() error {
	err := s.shutdown()
	s.start()
	return err
}

// Close stops the merger and worker pool permanently.
func (s *Strategy[G, M, A]) Close() error {
	return s.shutdown()
}

// CurrentRoot implements worker.RootSource.
func (s *Strategy[G, M, A]) CurrentRoot() (G, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root, s.hasRoot
}

func (s *Strategy[G, M, A]) publishRoot(g G) {
	s.mu.Lock()
	s.root = g
	s.hasRoot = true
	s.mu.Unlock()
}

// Decide implements spec.md §4.5: publish the root, wait out the time
// budget (or until ctx is cancelled, whichever comes first), snapshot the
// table, and return the move whose child has the most visits. Ties break
// by move order, i.e. the first maximal child in PossibleMoves' order.
// decide must not be called on a terminal state.
func (s *Strategy[G, M, A]) Decide(ctx context.Context, g G) (M, error) {
	var zero M

	moves := s.rules.PossibleMoves(g)
	if len(moves) == 0 {
		return zero, errors.New("mcts: decide called on a terminal state")
	}

	s.publishRoot(g)

	select {
	case <-time.After(s.params.Timeout):
	case <-ctx.Done():
	}

	reply := make(chan map[G]stats.Stats, 1)
	s.mg.RequestSnapshot() <- merger.SnapshotRequest[G]{Reply: reply}
	snap := <-reply

	return pickMostVisited(s.rules, moves, snap, s.params.Trace)
}

// pickMostVisited implements decide() steps 4-6: enumerate children,
// return the move whose child has the most visits (ties broken by
// PossibleMoves' enumeration order), or a uniformly random legal move if
// no child has any table entry at all.
func pickMostVisited[G comparable, M comparable, A comparable](
	rules game.Game[G, M, A],
	moves []game.ValidMove[G, M],
	snap map[G]stats.Stats,
	trace io.Writer,
) (M, error) {
	var (
		best     M
		bestVis  uint64
		haveBest bool
	)
	for _, mv := range moves {
		child := game.Apply(rules, mv)
		st, ok := snap[child]
		if trace != nil {
			fmt.Fprintf(trace, "candidate %v: %+v (known=%t)\n", mv.Move(), st, ok)
		}
		if !ok {
			continue
		}
		if !haveBest || st.Visits > bestVis {
			best, bestVis, haveBest = mv.Move(), st.Visits, true
		}
	}
	if haveBest {
		return best, nil
	}

	// No child has any table entry at all — pathological zero (or
	// vanishingly short) timeout. Degrade to a uniformly random legal
	// move rather than fail, per spec.md §7.
	return moves[rand.Intn(len(moves))].Move(), nil
}
