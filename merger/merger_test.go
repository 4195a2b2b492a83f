package merger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/signalnine/mcts/stats"
	"github.com/signalnine/mcts/ttable"
)

var errBoom = errors.New("boom")

// TestMergerConservation is scenario S3: four workers each emit 1,000 WIN
// deltas for the same position; after draining, the table must show
// visits=4,000, wins=4,000, losses=0.
func TestMergerConservation(t *testing.T) {
	writer := ttable.NewWriter[string]()
	dataCh := make(chan []ttable.Delta[string], 8)
	ctx, cancel := context.WithCancel(context.Background())

	m := New[string](writer, dataCh, 4, Config{BatchSize: 256}, ctx.Done(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx.Done()) }()

	for worker := 0; worker < 4; worker++ {
		go func() {
			batch := make([]ttable.Delta[string], 1000)
			for i := range batch {
				batch[i] = ttable.Delta[string]{Pos: "shared", Delta: stats.Win}
			}
			dataCh <- batch
		}()
	}

	require.Eventually(t, func() bool {
		s, ok := writer.Reader().Get("shared")
		return ok && s.Visits == 4000
	}, 2*time.Second, time.Millisecond, "merger did not converge on the expected visit count")

	s, ok := writer.Reader().Get("shared")
	require.True(t, ok)
	require.Equal(t, stats.Stats{Wins: 4000, Losses: 0, Visits: 4000}, s)

	cancel()
	require.NoError(t, <-errCh)
}

func TestSnapshotRequestServedAtRefreshBoundary(t *testing.T) {
	writer := ttable.NewWriter[int]()
	dataCh := make(chan []ttable.Delta[int], 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := New[int](writer, dataCh, 1, Config{BatchSize: 16}, ctx.Done(), nil)
	go m.Run(ctx.Done())

	dataCh <- []ttable.Delta[int]{{Pos: 1, Delta: stats.Win}}

	reply := make(chan map[int]stats.Stats, 1)
	m.RequestSnapshot() <- SnapshotRequest[int]{Reply: reply}

	select {
	case snap := <-reply:
		require.Equal(t, stats.Win, snap[1])
	case <-time.After(time.Second):
		t.Fatal("snapshot request was never served")
	}
}

func TestShutdownDrainsOutstandingBatches(t *testing.T) {
	writer := ttable.NewWriter[int]()
	dataCh := make(chan []ttable.Delta[int], 4)
	ctx, cancel := context.WithCancel(context.Background())

	m := New[int](writer, dataCh, 1, Config{BatchSize: 16}, ctx.Done(), nil)
	dataCh <- []ttable.Delta[int]{{Pos: 1, Delta: stats.Win}}
	dataCh <- []ttable.Delta[int]{{Pos: 1, Delta: stats.Win}}

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx.Done()) }()

	time.Sleep(10 * time.Millisecond) // let at least one batch land before shutdown
	cancel()
	require.NoError(t, <-errCh)

	s, ok := writer.Reader().Get(1)
	require.True(t, ok)
	require.Equal(t, uint64(2), s.Visits, "shutdown must drain every outstanding batch, not just the one already read")
}

// TestShutdownWaitsForWorkersStillFlushing simulates a worker whose
// blocking shutdown send hasn't happened yet when done fires: shutdown
// must not return (and so must not finalize a snapshot) until that send
// lands and workersDone is satisfied.
func TestShutdownWaitsForWorkersStillFlushing(t *testing.T) {
	writer := ttable.NewWriter[int]()
	dataCh := make(chan []ttable.Delta[int]) // unbuffered: a send blocks until shutdown reads it
	ctx, cancel := context.WithCancel(context.Background())

	var workersDone sync.WaitGroup
	workersDone.Add(1)

	m := New[int](writer, dataCh, 1, Config{BatchSize: 16}, ctx.Done(), &workersDone)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx.Done()) }()

	cancel()
	// Give Run a moment to reach its shutdown path before the worker's
	// late send arrives.
	time.Sleep(10 * time.Millisecond)

	sent := make(chan struct{})
	go func() {
		dataCh <- []ttable.Delta[int]{{Pos: 1, Delta: stats.Win}}
		workersDone.Done()
		close(sent)
	}()

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("shutdown never read the late worker send; it returned before the worker finished flushing")
	}

	require.NoError(t, <-errCh)
	s, ok := writer.Reader().Get(1)
	require.True(t, ok)
	require.Equal(t, uint64(1), s.Visits, "the late-flushed delta must still be reflected in the final snapshot")
}

func TestCheckpointErrorSurfacesOnShutdown(t *testing.T) {
	writer := ttable.NewWriter[int]()
	dataCh := make(chan []ttable.Delta[int], 1)
	ctx, cancel := context.WithCancel(context.Background())

	m := New[int](writer, dataCh, 1, Config{BatchSize: 16}, ctx.Done(), nil)
	m.SetCheckpoint(func(map[int]stats.Stats) error {
		return errBoom
	})

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx.Done()) }()
	cancel()

	err := <-errCh
	require.Error(t, err)
}
