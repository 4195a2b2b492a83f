// Package connectfour is a small Game implementation used by tests and
// the demo CLI.
package connectfour

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/signalnine/mcts/game"
)

const (
	Width  = 7
	Height = 6
	Needed = 4
)

// Color is the piece color. R moves first.
type Color int8

const (
	R Color = iota
	B
)

func (c Color) Flip() Color {
	if c == R {
		return B
	}
	return R
}

func (c Color) String() string {
	if c == R {
		return "X"
	}
	return "@"
}

// Slot is one board cell.
type Slot int8

const (
	Empty Slot = iota
	FullR
	FullB
)

func slotFor(c Color) Slot {
	if c == R {
		return FullR
	}
	return FullB
}

func (sq Slot) String() string {
	switch sq {
	case FullR:
		return R.String()
	case FullB:
		return B.String()
	default:
		return " "
	}
}

// Board is row-major, row 0 at the bottom.
type Board [Height][Width]Slot

// Move drops a disc of Color into column Col.
type Move struct {
	Col   int
	Color Color
}

// State is the full game position.
type State struct {
	Board     Board
	ToAct     Color
	Ref       Color
	Winner    Color
	HasWinner bool
}

func (s State) String() string {
	var b strings.Builder
	b.WriteString("to act: ")
	b.WriteString(s.ToAct.String())
	b.WriteByte('\n')
	for row := Height - 1; row >= 0; row-- {
		b.WriteByte('|')
		for col := 0; col < Width; col++ {
			b.WriteString(s.Board[row][col].String())
		}
		b.WriteString("|\n")
	}
	return b.String()
}

func columnHeight(b Board, col int) int {
	n := 0
	for row := 0; row < Height; row++ {
		if b[row][col] != Empty {
			n++
		}
	}
	return n
}

// hasWon checks all four directions for Needed-in-a-row of c, from
// scratch against the whole board — the board is small enough that this
// is simpler than tracking incremental state, and it makes Apply trivial
// to reason about.
func hasWon(b Board, c Color) bool {
	sq := slotFor(c)
	get := func(row, col int) Slot {
		if row < 0 || row >= Height || col < 0 || col >= Width {
			return Empty
		}
		return b[row][col]
	}

	for row := 0; row < Height; row++ {
		for col := 0; col <= Width-Needed; col++ {
			if get(row, col) == sq && get(row, col+1) == sq && get(row, col+2) == sq && get(row, col+3) == sq {
				return true
			}
		}
	}
	for col := 0; col < Width; col++ {
		for row := 0; row <= Height-Needed; row++ {
			if get(row, col) == sq && get(row+1, col) == sq && get(row+2, col) == sq && get(row+3, col) == sq {
				return true
			}
		}
	}
	for row := 0; row <= Height-Needed; row++ {
		for col := 0; col <= Width-Needed; col++ {
			if get(row, col) == sq && get(row+1, col+1) == sq && get(row+2, col+2) == sq && get(row+3, col+3) == sq {
				return true
			}
		}
	}
	for row := 0; row <= Height-Needed; row++ {
		for col := Needed - 1; col < Width; col++ {
			if get(row, col) == sq && get(row+1, col-1) == sq && get(row+2, col-2) == sq && get(row+3, col-3) == sq {
				return true
			}
		}
	}
	return false
}

// Rules implements game.Game[State, Move, Color].
type Rules struct{}

func (Rules) ToAct(s State) Color     { return s.ToAct }
func (Rules) RefPlayer(s State) Color { return s.Ref }
func (Rules) AgentID(_ State, a Color) int {
	return int(a)
}
func (Rules) Winner(s State) (Color, bool) { return s.Winner, s.HasWinner }

func (Rules) PlayerWeight(s State, a Color) int {
	if a == s.Ref {
		return 1
	}
	return -1
}

func (Rules) MoveValid(s State, m Move) bool {
	if m.Col < 0 || m.Col >= Width || m.Color != s.ToAct {
		return false
	}
	return columnHeight(s.Board, m.Col) < Height
}

func (Rules) HasWon(s State, a Color) bool {
	return hasWon(s.Board, a)
}

func (r Rules) PossibleMoves(s State) []game.ValidMove[State, Move] {
	var moves []game.ValidMove[State, Move]
	for col := 0; col < Width; col++ {
		m := Move{Col: col, Color: s.ToAct}
		if vm, ok := game.NewValidMove[State, Move, Color](r, s, m); ok {
			moves = append(moves, vm)
		}
	}
	return moves
}

func (r Rules) Apply(s State, m Move) State {
	next := s
	row := columnHeight(s.Board, m.Col)
	next.Board[row][m.Col] = slotFor(m.Color)
	if hasWon(next.Board, m.Color) {
		next.Winner = m.Color
		next.HasWinner = true
	}
	next.ToAct = s.ToAct.Flip()
	return next
}

func (Rules) New(a Color) State {
	return State{ToAct: a, Ref: a}
}

func (r Rules) RandomMove(s State, rng *rand.Rand) (Move, State, bool) {
	moves := r.PossibleMoves(s)
	if len(moves) == 0 {
		return Move{}, s, false
	}
	vm := moves[rng.Intn(len(moves))]
	return vm.Move(), game.Apply[State, Move, Color](r, vm), true
}

// ParseMove accepts a bare column number.
func (Rules) ParseMove(s State, str string) (Move, bool) {
	col, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return Move{}, false
	}
	return Move{Col: col, Color: s.ToAct}, true
}
