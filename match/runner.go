// Package match implements the trivial turn-alternating outer loop that
// drives two Players over a Game to completion. It is glue, not part of
// the search engine proper.
package match

import (
	"context"

	"github.com/pkg/errors"

	"github.com/signalnine/mcts/game"
	"github.com/signalnine/mcts/player"
)

// Result reports how a match ended.
type Result[A comparable] struct {
	Winner    A
	HasWinner bool
}

// Run alternates turns between the player whose AgentID is 0 and the one
// whose AgentID is 1, starting from game.New(firstToAct), until the game
// reports a winner or runs out of legal moves (a draw). It returns the
// final position alongside the result.
func Run[G comparable, M comparable, A comparable](
	ctx context.Context,
	rules game.Game[G, M, A],
	p0, p1 player.Player[G, M],
	firstToAct A,
) (G, Result[A], error) {
	g := rules.New(firstToAct)
	players := [2]player.Player[G, M]{p0, p1}
	moveCh := make(chan M, 1)

	for !game.HasWinner(rules, g) && len(rules.PossibleMoves(g)) > 0 {
		idx := rules.AgentID(g, rules.ToAct(g))
		if idx != 0 && idx != 1 {
			return g, Result[A]{}, errors.Errorf("match: agent_id out of range: %d", idx)
		}

		go players[idx].ChooseMove(ctx, g, moveCh)

		select {
		case m := <-moveCh:
			vm, ok := game.NewValidMove(rules, g, m)
			if !ok {
				return g, Result[A]{}, errors.Errorf("match: %s returned an illegal move", players[idx].DisplayName())
			}
			g = game.Apply(rules, vm)
		case <-ctx.Done():
			return g, Result[A]{}, ctx.Err()
		}
	}

	winner, hasWinner := rules.Winner(g)
	return g, Result[A]{Winner: winner, HasWinner: hasWinner}, nil
}
