// Package player defines the outer-runner-facing contract a move source
// must satisfy, and wraps a Strategy into one.
package player

import (
	"context"
	"log"
)

// Player is the contract an outer runner drives: choose exactly one move
// for the given state and send it on out, then return. Mirrors
// choose_move(game, out) from the original runner's Player trait.
type Player[G any, M comparable] interface {
	ChooseMove(ctx context.Context, g G, out chan<- M)
	DisplayName() string
}

// Decider is the subset of a Strategy a Player needs.
type Decider[G any, M comparable] interface {
	Decide(ctx context.Context, g G) (M, error)
}

// AIPlayer adapts any Decider (mcts.Strategy, negamax.Strategy) into a
// Player.
type AIPlayer[G any, M comparable] struct {
	name     string
	strategy Decider[G, M]
}

// NewAIPlayer wraps strategy as a named Player.
func NewAIPlayer[G any, M comparable](name string, strategy Decider[G, M]) *AIPlayer[G, M] {
	return &AIPlayer[G, M]{name: name, strategy: strategy}
}

func (p *AIPlayer[G, M]) DisplayName() string { return p.name }

// ChooseMove runs the wrapped strategy's decide() and forwards its
// result. A decide failure is logged and nothing is sent; callers
// waiting on out should do so under a context they can cancel.
func (p *AIPlayer[G, M]) ChooseMove(ctx context.Context, g G, out chan<- M) {
	m, err := p.strategy.Decide(ctx, g)
	if err != nil {
		log.Printf("%s: decide failed: %v", p.name, err)
		return
	}
	out <- m
}
