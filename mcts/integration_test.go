package mcts

import (
	"context"
	"testing"
	"time"

	"github.com/signalnine/mcts/games/connectfour"
)

func connectFourParams() Params {
	return Params{
		Timeout:          200 * time.Millisecond,
		C:                1.41421356,
		Workers:          4,
		WorkerBatchSize:  8,
		MinFlushInterval: time.Millisecond,
		MergerBatchSize:  64,
		MergerQueueBound: 32,
	}
}

// TestTrivialWinDetection is scenario S1: a root where R has three in a
// column and column 3 completes four-in-a-row must be chosen.
func TestTrivialWinDetection(t *testing.T) {
	rules := connectfour.Rules{}
	g := rules.New(connectfour.R)
	g = rules.Apply(g, connectfour.Move{Col: 3, Color: connectfour.R})
	g = rules.Apply(g, connectfour.Move{Col: 0, Color: connectfour.B})
	g = rules.Apply(g, connectfour.Move{Col: 3, Color: connectfour.R})
	g = rules.Apply(g, connectfour.Move{Col: 1, Color: connectfour.B})
	g = rules.Apply(g, connectfour.Move{Col: 3, Color: connectfour.R})
	g = rules.Apply(g, connectfour.Move{Col: 6, Color: connectfour.B})
	// R to act, with three discs in column 3; dropping a fourth wins.

	s, err := Create[connectfour.State, connectfour.Move, connectfour.Color](rules, connectFourParams())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer s.Close()

	move, err := s.Decide(context.Background(), g)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if move.Col != 3 {
		t.Errorf("Decide() = %+v, want the winning column 3", move)
	}
}

// TestImmediateBlock is scenario S2: B has three in a row on row 0,
// columns 2-4, and R already holds column 5 there, so R must block at
// column 1. Run several independent decisions and require at least 9 out
// of 10 to block.
func TestImmediateBlock(t *testing.T) {
	rules := connectfour.Rules{}
	base := rules.New(connectfour.R)
	base = rules.Apply(base, connectfour.Move{Col: 0, Color: connectfour.R})
	base = rules.Apply(base, connectfour.Move{Col: 2, Color: connectfour.B})
	base = rules.Apply(base, connectfour.Move{Col: 6, Color: connectfour.R})
	base = rules.Apply(base, connectfour.Move{Col: 3, Color: connectfour.B})
	base = rules.Apply(base, connectfour.Move{Col: 5, Color: connectfour.R})
	base = rules.Apply(base, connectfour.Move{Col: 4, Color: connectfour.B})
	// R to act; B threatens column 1 to complete 1-2-3-4 (column 5 is R's).

	blocks := 0
	const trials = 10
	for i := 0; i < trials; i++ {
		s, err := Create[connectfour.State, connectfour.Move, connectfour.Color](rules, connectFourParams())
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		move, err := s.Decide(context.Background(), base)
		s.Close()
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if move.Col == 1 {
			blocks++
		}
	}
	if blocks < 9 {
		t.Errorf("blocked %d/%d times, want at least 9/%d", blocks, trials, trials)
	}
}
