// Package merger implements the engine's single writer task: it drains
// worker delta batches and strategy snapshot requests, applies batches to
// the transposition table's writer side, periodically refreshes the
// published snapshot, and broadcasts the refresh to every worker's inbox.
package merger

import (
	"sync"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/signalnine/mcts/stats"
	"github.com/signalnine/mcts/ttable"
)

// SnapshotRequest asks the merger for the current table projection; the
// reply is delivered at the next refresh boundary, not inline, keeping
// the merger's per-message critical path simple per spec.md §4.4.
type SnapshotRequest[G comparable] struct {
	Reply chan<- map[G]stats.Stats
}

// Checkpoint is an optional shutdown hook, invoked once with the final
// published snapshot, for callers who want to persist it (see ttsnap).
type Checkpoint[G comparable] func(map[G]stats.Stats) error

// Config mirrors the merger-facing half of spec.md §6.4.
type Config struct {
	BatchSize int // merger_batch_size
}

// Merger owns the writer side of the transposition table exclusively.
type Merger[G comparable] struct {
	writer      *ttable.Writer[G]
	dataCh      <-chan []ttable.Delta[G]
	controlCh   chan SnapshotRequest[G]
	pulseIn     chan *ttable.Reader[G]
	workerOut   []<-chan *ttable.Reader[G]
	cfg         Config
	checkpoint  Checkpoint[G]
	workersDone *sync.WaitGroup
}

// New constructs a merger wired to numWorkers worker inboxes, fanned out
// from a single internal pulse channel via channerics.Broadcast — the
// same one-to-many channel idiom this codebase's UI layer uses to fan a
// single update stream out to multiple view builders.
//
// workersDone, if non-nil, must be incremented once per worker before
// that worker starts and decremented when it returns (after its own
// shutdown flush). Shutdown then waits on it, draining dataCh
// concurrently, before taking its final pass — so a worker that is
// still mid-flush when done fires is never dropped. workersDone may be
// nil for callers (e.g. tests) that drive dataCh directly with no
// worker pool to wait for; shutdown then falls back to a single
// non-blocking drain.
func New[G comparable](
	writer *ttable.Writer[G],
	dataCh <-chan []ttable.Delta[G],
	numWorkers int,
	cfg Config,
	done <-chan struct{},
	workersDone *sync.WaitGroup,
) *Merger[G] {
	pulseIn := make(chan *ttable.Reader[G])
	return &Merger[G]{
		writer:      writer,
		dataCh:      dataCh,
		controlCh:   make(chan SnapshotRequest[G], numWorkers+1),
		pulseIn:     pulseIn,
		workerOut:   channerics.Broadcast(done, pulseIn, numWorkers),
		cfg:         cfg,
		workersDone: workersDone,
	}
}

// WorkerInbox returns the i'th worker's snapshot-broadcast inbox, to be
// passed to worker.New.
func (m *Merger[G]) WorkerInbox(i int) <-chan *ttable.Reader[G] {
	return m.workerOut[i]
}

// RequestSnapshot is how the strategy façade asks for a fresh projection;
// it is safe to call concurrently with Run.
func (m *Merger[G]) RequestSnapshot() chan<- SnapshotRequest[G] {
	return m.controlCh
}

// SetCheckpoint installs a shutdown persistence hook.
func (m *Merger[G]) SetCheckpoint(fn Checkpoint[G]) {
	m.checkpoint = fn
}

// Run drains data and control until done is closed, then performs a
// final drain-and-refresh so no outstanding deltas are lost, per
// spec.md §7's shutdown requirement, before invoking the checkpoint hook
// (if any) and returning.
func (m *Merger[G]) Run(done <-chan struct{}) error {
	var pending []SnapshotRequest[G]

	for {
		select {
		case <-done:
			return m.shutdown(pending)

		case req := <-m.controlCh:
			// Priority discipline: observed during the drain loop, but
			// served only at the refresh boundary that ends this
			// iteration, after any data already waiting is applied.
			pending = append(pending, req)
			select {
			case batch := <-m.dataCh:
				m.drainDataBatch(batch)
			default:
			}

		case batch := <-m.dataCh:
			m.drainDataBatch(batch)
		}

		m.refreshAndServe(pending)
		pending = nil
	}
}

// drainDataBatch applies the first batch already received, then greedily
// applies up to merger_batch_size-1 more without blocking.
func (m *Merger[G]) drainDataBatch(first []ttable.Delta[G]) {
	m.writer.ApplyBatch(first)
	limit := m.cfg.BatchSize
	if limit <= 0 {
		limit = 1
	}
	for n := 1; n < limit; n++ {
		select {
		case batch := <-m.dataCh:
			m.writer.ApplyBatch(batch)
		default:
			return
		}
	}
}

func (m *Merger[G]) refreshAndServe(pending []SnapshotRequest[G]) {
	m.writer.Refresh()
	m.broadcastSnapshot()
	snap := m.writer.Snapshot()
	for _, req := range pending {
		req.Reply <- snap
	}
}

// broadcastSnapshot publishes a fresh read handle to every worker's
// inbox without blocking the merger: each worker lazily resolves Get
// calls against the writer's latest snapshot regardless, so a slow or
// absent consumer here costs freshness, never correctness.
func (m *Merger[G]) broadcastSnapshot() {
	select {
	case m.pulseIn <- m.writer.Reader():
	default:
	}
}

func (m *Merger[G]) shutdown(pending []SnapshotRequest[G]) error {
	var errs *multierror.Error

	if m.workersDone != nil {
		// Keep draining while we wait, so a worker's blocking shutdown
		// flush can never deadlock against a full, unread dataCh.
		// Mirrors simulation/parallel.go's wg.Wait()-then-close(results)
		// coordination, adapted since here the merger (not a downstream
		// reader) is the one that must not return early.
		allFlushed := make(chan struct{})
		go func() {
			m.workersDone.Wait()
			close(allFlushed)
		}()
	drainUntilAllFlushed:
		for {
			select {
			case batch := <-m.dataCh:
				m.writer.ApplyBatch(batch)
			case <-allFlushed:
				break drainUntilAllFlushed
			}
		}
	}

	// Final non-blocking sweep: catches any batch still sitting in
	// dataCh's buffer from the instant before workersDone.Wait()
	// returned (above), or is the only drain pass when workersDone is
	// nil.
drainRemaining:
	for {
		select {
		case batch := <-m.dataCh:
			m.writer.ApplyBatch(batch)
		default:
			break drainRemaining
		}
	}

	m.refreshAndServe(pending)

	if m.checkpoint != nil {
		if err := m.checkpoint(m.writer.Snapshot()); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "merger shutdown checkpoint"))
		}
	}
	return errs.ErrorOrNil()
}
