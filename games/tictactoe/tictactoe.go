// Package tictactoe is a small Game implementation used by tests: plain
// value types, no generics of its own, in the same style as this
// codebase's other standalone demo games.
package tictactoe

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/signalnine/mcts/game"
)

// Size is the board's side length.
const Size = 3

// Marker is the piece a player places.
type Marker int8

const (
	X Marker = iota
	O
)

func (m Marker) Flip() Marker {
	if m == X {
		return O
	}
	return X
}

func (m Marker) String() string {
	if m == X {
		return "X"
	}
	return "O"
}

// Square is one board cell.
type Square int8

const (
	Empty Square = iota
	HasX
	HasO
)

func (sq Square) String() string {
	switch sq {
	case HasX:
		return "X"
	case HasO:
		return "O"
	default:
		return " "
	}
}

func markerSquare(m Marker) Square {
	if m == X {
		return HasX
	}
	return HasO
}

// Board is a flat, row-major Size x Size grid.
type Board [Size * Size]Square

// Move places to_act's marker at (Row, Col).
type Move struct {
	Row, Col int
	Marker   Marker
}

// State is the full game position. It is a plain value: cheap to copy,
// comparable, and so usable directly as a transposition table key.
type State struct {
	Board     Board
	ToAct     Marker
	Ref       Marker
	Winner    Marker
	HasWinner bool
}

func (s State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "to act: %s, ref: %s\n", s.ToAct, s.Ref)
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			fmt.Fprintf(&b, " %s ", s.Board[i*Size+j])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func hasWon(b Board, m Marker) bool {
	sq := markerSquare(m)
	for _, line := range winLines {
		if b[line[0]] == sq && b[line[1]] == sq && b[line[2]] == sq {
			return true
		}
	}
	return false
}

// Rules implements game.Game[State, Move, Marker]. It carries no state of
// its own; every method takes the position as an explicit argument.
type Rules struct{}

func (Rules) ToAct(s State) Marker     { return s.ToAct }
func (Rules) RefPlayer(s State) Marker { return s.Ref }
func (Rules) AgentID(_ State, a Marker) int {
	return int(a)
}
func (Rules) Winner(s State) (Marker, bool) { return s.Winner, s.HasWinner }

func (Rules) PlayerWeight(s State, a Marker) int {
	if a == s.Ref {
		return 1
	}
	return -1
}

func (Rules) MoveValid(s State, m Move) bool {
	if m.Row < 0 || m.Row >= Size || m.Col < 0 || m.Col >= Size {
		return false
	}
	return s.Board[m.Row*Size+m.Col] == Empty
}

func (r Rules) HasWon(s State, a Marker) bool {
	return hasWon(s.Board, a)
}

func (r Rules) PossibleMoves(s State) []game.ValidMove[State, Move] {
	var moves []game.ValidMove[State, Move]
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			m := Move{Row: i, Col: j, Marker: s.ToAct}
			if vm, ok := game.NewValidMove[State, Move, Marker](r, s, m); ok {
				moves = append(moves, vm)
			}
		}
	}
	return moves
}

func (r Rules) Apply(s State, m Move) State {
	next := s
	next.Board[m.Row*Size+m.Col] = markerSquare(m.Marker)
	if hasWon(next.Board, m.Marker) {
		next.Winner = m.Marker
		next.HasWinner = true
	}
	next.ToAct = s.ToAct.Flip()
	return next
}

func (Rules) New(a Marker) State {
	return State{ToAct: a, Ref: a}
}

func (r Rules) RandomMove(s State, rng *rand.Rand) (Move, State, bool) {
	moves := r.PossibleMoves(s)
	if len(moves) == 0 {
		return Move{}, s, false
	}
	vm := moves[rng.Intn(len(moves))]
	return vm.Move(), game.Apply[State, Move, Marker](r, vm), true
}

// ParseMove accepts "row col", 0-indexed.
func (Rules) ParseMove(s State, str string) (Move, bool) {
	var row, col int
	if _, err := fmt.Sscanf(strings.TrimSpace(str), "%d %d", &row, &col); err != nil {
		return Move{}, false
	}
	return Move{Row: row, Col: col, Marker: s.ToAct}, true
}
