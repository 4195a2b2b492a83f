// Package playout implements one MCTS descent: select, expand, simulate
// and backpropagate fused into a single pass from a root to a terminal
// state. It is pure over a read snapshot of the transposition table — it
// never mutates the table itself, only returns the path visited and the
// resulting outcome, so callers (worker) can batch the resulting deltas
// before flushing them to the merger.
package playout

import (
	"math"
	"math/rand"

	"github.com/signalnine/mcts/game"
	"github.com/signalnine/mcts/stats"
	"github.com/signalnine/mcts/ttable"
)

// Outcome is the result of one playout: the winning agent, if any. A
// drawn playout (terminal with no winner) reports HasWinner false.
type Outcome[A comparable] struct {
	Winner    A
	HasWinner bool
}

// Run descends from root to a terminal state, selecting at each
// fully-expanded node by UCT and otherwise picking uniformly at random
// among all children, per spec. It returns every position visited, in
// descent order, for the caller to backpropagate.
func Run[G comparable, M comparable, A comparable](
	rules game.Game[G, M, A],
	reader *ttable.Reader[G],
	rng *rand.Rand,
	explorationC float64,
	root G,
) (path []G, outcome Outcome[A]) {
	g := root
	for {
		path = append(path, g)

		moves := rules.PossibleMoves(g)
		if len(moves) == 0 {
			// A node with zero legal moves is terminal even if the game
			// reports no winner (drawn).
			w, ok := rules.Winner(g)
			return path, Outcome[A]{Winner: w, HasWinner: ok}
		}

		g = selectNext(rules, reader, rng, explorationC, g, moves)
	}
}

// selectNext picks the next position in the descent from g, given its
// legal moves: uniformly at random if at least one child is unexpanded
// (table has no entry for it), otherwise by the UCT key. The
// fully-expanded test and the UCT key are both evaluated against the
// same reader snapshot used for this call; a later refresh may
// reclassify the node, which is expected under root parallelism.
func selectNext[G comparable, M comparable, A comparable](
	rules game.Game[G, M, A],
	reader *ttable.Reader[G],
	rng *rand.Rand,
	explorationC float64,
	g G,
	moves []game.ValidMove[G, M],
) G {
	children := make([]G, len(moves))
	childStats := make([]stats.Stats, len(moves))
	fullyExpanded := true
	for i, m := range moves {
		child := game.Apply(rules, m)
		children[i] = child
		if s, ok := reader.Get(child); ok {
			childStats[i] = s
		} else {
			fullyExpanded = false
		}
	}

	if !fullyExpanded {
		return children[rng.Intn(len(children))]
	}

	acting := rules.ToAct(g)
	parentVisits := float64(1)
	if s, ok := reader.Get(g); ok {
		parentVisits = float64(s.VisitsOrOne())
	}
	lnParent := math.Log(parentVisits)

	best := 0
	bestKey := uctKey(rules, childStats[0], children[0], acting, lnParent, explorationC)
	for i := 1; i < len(children); i++ {
		key := uctKey(rules, childStats[i], children[i], acting, lnParent, explorationC)
		if key > bestKey {
			bestKey = key
			best = i
		}
	}
	return children[best]
}

// uctKey computes w(c, acting)/v(c) + C*sqrt(ln(N_parent)/v(c)), where
// w(c, acting) is the child's wins if the parent's mover is also the
// child's mover, and the child's losses otherwise. This sign flip is
// deliberate: stats are always recorded from the perspective of the side
// about to move at the position they're keyed on, so the parent wants
// child positions where either itself keeps winning (same mover) or the
// opponent keeps losing (mover flips) — confirmed against
// mcts_parallel.rs::key in the original source, not a guess.
func uctKey[G comparable, M comparable, A comparable](
	rules game.Game[G, M, A],
	childStat stats.Stats,
	child G,
	acting A,
	lnParentVisits float64,
	explorationC float64,
) float64 {
	var w float64
	if acting == rules.ToAct(child) {
		w = float64(childStat.Wins)
	} else {
		w = float64(childStat.Losses)
	}
	v := float64(childStat.VisitsOrOne())
	return w/v + explorationC*math.Sqrt(lnParentVisits/v)
}

// Backpropagate turns a playout's path and outcome into one delta per
// visited position, in the table's Delta form, ready to be appended to a
// worker's pending batch.
func Backpropagate[G comparable, M comparable, A comparable](
	rules game.Game[G, M, A],
	path []G,
	outcome Outcome[A],
) []ttable.Delta[G] {
	deltas := make([]ttable.Delta[G], len(path))
	for i, g := range path {
		var d stats.Stats
		switch {
		case !outcome.HasWinner:
			d = stats.Tie
		case outcome.Winner == rules.ToAct(g):
			d = stats.Win
		default:
			d = stats.Loss
		}
		deltas[i] = ttable.Delta[G]{Pos: g, Delta: d}
	}
	return deltas
}
