// Package treeviz renders the portion of a transposition table snapshot
// reachable from a root position as a Graphviz DOT graph, for debugging
// and visualizing search trees.
package treeviz

import (
	"fmt"

	"github.com/awalterschulze/gographviz"

	"github.com/signalnine/mcts/game"
	"github.com/signalnine/mcts/stats"
)

const graphName = "search"

// Label turns a position into a short, unique Graphviz node name.
type Label[G comparable] func(G) string

// DOT walks the subtree reachable from root via rules.PossibleMoves,
// restricted to positions with an entry in snap, and renders it as
// Graphviz DOT source. The root itself is always rendered; any other
// position with no table entry is pruned rather than rendered as a leaf,
// since an untouched subtree carries no information.
func DOT[G comparable, M comparable, A comparable](
	rules game.Game[G, M, A],
	snap map[G]stats.Stats,
	root G,
	label Label[G],
) (string, error) {
	graph := gographviz.NewGraph()
	if err := graph.SetName(graphName); err != nil {
		return "", err
	}
	if err := graph.SetDir(true); err != nil {
		return "", err
	}

	visited := make(map[string]bool)
	var walkErr error
	var walk func(g G)
	walk = func(g G) {
		if walkErr != nil {
			return
		}
		name := label(g)
		if visited[name] {
			return
		}
		visited[name] = true

		s := snap[g]
		attrs := map[string]string{
			"label": fmt.Sprintf(`"%s\nw=%d l=%d v=%d"`, name, s.Wins, s.Losses, s.Visits),
		}
		if err := graph.AddNode(graphName, name, attrs); err != nil {
			walkErr = err
			return
		}

		for _, mv := range rules.PossibleMoves(g) {
			child := game.Apply(rules, mv)
			if _, ok := snap[child]; !ok {
				continue
			}
			walk(child)
			if walkErr != nil {
				return
			}
			if err := graph.AddEdge(name, label(child), true, nil); err != nil {
				walkErr = err
				return
			}
		}
	}
	walk(root)
	if walkErr != nil {
		return "", walkErr
	}
	return graph.String(), nil
}
