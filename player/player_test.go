package player

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

type stubDecider struct {
	move int
	err  error
}

func (s stubDecider) Decide(_ context.Context, _ int) (int, error) {
	return s.move, s.err
}

func TestChooseMoveForwardsTheDecidedMove(t *testing.T) {
	p := NewAIPlayer[int, int]("stub", stubDecider{move: 7})
	out := make(chan int, 1)
	p.ChooseMove(context.Background(), 0, out)

	select {
	case m := <-out:
		if m != 7 {
			t.Errorf("ChooseMove sent %d, want 7", m)
		}
	default:
		t.Error("ChooseMove did not send a move")
	}
}

func TestChooseMoveSendsNothingOnDecideError(t *testing.T) {
	p := NewAIPlayer[int, int]("stub", stubDecider{err: errors.New("boom")})
	out := make(chan int, 1)
	p.ChooseMove(context.Background(), 0, out)

	select {
	case m := <-out:
		t.Errorf("ChooseMove sent %d after a decide error, want nothing", m)
	default:
	}
}

func TestDisplayName(t *testing.T) {
	p := NewAIPlayer[int, int]("sparky", stubDecider{})
	if p.DisplayName() != "sparky" {
		t.Errorf("DisplayName() = %q, want %q", p.DisplayName(), "sparky")
	}
}
