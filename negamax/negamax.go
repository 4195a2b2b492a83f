// Package negamax implements the optional single-threaded companion
// strategy: alpha-beta negamax over the game tree down to max_depth, with
// a Monte Carlo rollout heuristic scoring frontier nodes and a
// single-thread cache keyed by position.
package negamax

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/signalnine/mcts/game"
)

// Params holds the negamax-specific tunables of spec.md §6.4.
type Params struct {
	MaxDepth int
	Trials   int
}

func (p Params) validate() error {
	switch {
	case p.MaxDepth < 0:
		return errors.New("negamax: max_depth must be >= 0")
	case p.Trials < 1:
		return errors.New("negamax: trials must be >= 1")
	}
	return nil
}

// Strategy is the negamax companion strategy for game G, move M, agent A.
// It is single-threaded and stateful (its heuristic cache persists across
// Decide calls); a Strategy must not be shared across goroutines.
type Strategy[G comparable, M comparable, A comparable] struct {
	rules  game.Game[G, M, A]
	params Params
	rng    *rand.Rand
	cache  map[G]int
}

// Create validates params and returns a ready strategy.
func Create[G comparable, M comparable, A comparable](rules game.Game[G, M, A], params Params) (*Strategy[G, M, A], error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Strategy[G, M, A]{
		rules:  rules,
		params: params,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[G]int),
	}, nil
}

// Decide runs negamax from g and returns its chosen move. decide must not
// be called on a terminal state.
func (s *Strategy[G, M, A]) Decide(_ context.Context, g G) (M, error) {
	var zero M
	if len(s.rules.PossibleMoves(g)) == 0 {
		return zero, errors.New("negamax: decide called on a terminal state")
	}
	// The window starts at ±math.MaxInt rather than math.MinInt: negating
	// math.MinInt overflows back to itself, which would hand every child an
	// inverted window and prune after its first move.
	_, move, ok := s.negamax(g, 0, -math.MaxInt, math.MaxInt)
	if !ok {
		return zero, errors.New("negamax: no move available from start position")
	}
	return move, nil
}

// negamax returns the best score reachable from g (from the perspective
// of g's mover) and the move achieving it. ok is false only at a
// terminal/frontier node, which has no move to report.
func (s *Strategy[G, M, A]) negamax(g G, depth, alpha, beta int) (score int, move M, ok bool) {
	moves := s.rules.PossibleMoves(g)
	if depth > s.params.MaxDepth || len(moves) == 0 {
		var zero M
		return s.heuristic(g) * s.rules.PlayerWeight(g, s.rules.ToAct(g)), zero, false
	}

	best := math.MinInt
	var bestMove M
	haveBest := false
	for _, mv := range moves {
		child := game.Apply(s.rules, mv)
		childScore, _, _ := s.negamax(child, depth+1, -beta, -alpha)
		cand := -childScore
		if !haveBest || cand > best {
			best, bestMove, haveBest = cand, mv.Move(), true
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	return best, bestMove, true
}

// heuristic scores g from the reference player's perspective: trials if
// g is already a win for them, 0 if a win for the opponent, otherwise the
// number of random rollouts (out of trials) that end in their favor.
// Results are cached by position since the same frontier node often
// recurs across sibling branches.
func (s *Strategy[G, M, A]) heuristic(g G) int {
	if v, ok := s.cache[g]; ok {
		return v
	}

	var ans int
	if winner, ok := s.rules.Winner(g); ok {
		if winner == s.rules.RefPlayer(g) {
			ans = s.params.Trials
		}
	} else {
		for i := 0; i < s.params.Trials; i++ {
			ans += s.rollout(g)
		}
	}

	s.cache[g] = ans
	return ans
}

// rollout plays g to completion using the game's random-move facility and
// reports 1 if the reference player wins, else 0.
func (s *Strategy[G, M, A]) rollout(g G) int {
	ref := s.rules.RefPlayer(g)
	cur := g
	for {
		_, next, ok := s.rules.RandomMove(cur, s.rng)
		if !ok {
			break
		}
		cur = next
	}
	if w, ok := s.rules.Winner(cur); ok && w == ref {
		return 1
	}
	return 0
}
