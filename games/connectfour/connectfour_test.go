package connectfour

import "testing"

func TestHasWonDetectsAHorizontalFour(t *testing.T) {
	rules := Rules{}
	g := rules.New(R)
	for _, mv := range []Move{{Col: 0, Color: R}, {Col: 0, Color: B}, {Col: 1, Color: R}, {Col: 1, Color: B}, {Col: 2, Color: R}, {Col: 2, Color: B}, {Col: 3, Color: R}} {
		g = rules.Apply(g, mv)
	}
	if winner, ok := rules.Winner(g); !ok || winner != R {
		t.Errorf("Winner() = (%v, %t), want (R, true)", winner, ok)
	}
}

func TestHasWonDetectsADiagonalFour(t *testing.T) {
	rules := Rules{}
	g := rules.New(R)
	// Build an ascending diagonal for R at (0,0),(1,1),(2,2),(3,3) by
	// stacking filler discs under each higher cell first.
	moves := []Move{
		{Col: 0, Color: R}, // (0,0) R
		{Col: 1, Color: B}, // (0,1)
		{Col: 1, Color: R}, // (1,1) R
		{Col: 2, Color: B}, // (0,2)
		{Col: 2, Color: B}, // (1,2)
		{Col: 2, Color: R}, // (2,2) R
		{Col: 3, Color: B}, // (0,3)
		{Col: 3, Color: B}, // (1,3)
		{Col: 3, Color: B}, // (2,3)
		{Col: 3, Color: R}, // (3,3) R
	}
	for _, mv := range moves {
		g = rules.Apply(g, mv)
	}
	if winner, ok := rules.Winner(g); !ok || winner != R {
		t.Errorf("Winner() = (%v, %t), want (R, true)", winner, ok)
	}
}

func TestMoveValidRejectsAFullColumn(t *testing.T) {
	rules := Rules{}
	g := rules.New(R)
	for i := 0; i < Height; i++ {
		color := R
		if i%2 == 1 {
			color = B
		}
		g = rules.Apply(g, Move{Col: 0, Color: color})
	}
	if rules.MoveValid(g, Move{Col: 0, Color: g.ToAct}) {
		t.Error("MoveValid accepted a drop into a full column")
	}
}

func TestPossibleMovesOmitsFullColumns(t *testing.T) {
	rules := Rules{}
	g := rules.New(R)
	for i := 0; i < Height; i++ {
		color := R
		if i%2 == 1 {
			color = B
		}
		g = rules.Apply(g, Move{Col: 0, Color: color})
	}
	for _, vm := range rules.PossibleMoves(g) {
		if vm.Move().Col == 0 {
			t.Error("PossibleMoves included a drop into a full column")
		}
	}
}

func TestParseMove(t *testing.T) {
	rules := Rules{}
	g := rules.New(R)
	m, ok := rules.ParseMove(g, "3")
	if !ok || m.Col != 3 || m.Color != R {
		t.Errorf("ParseMove(\"3\") = (%+v, %t), want ({Col:3 Color:R}, true)", m, ok)
	}
	if _, ok := rules.ParseMove(g, "x"); ok {
		t.Error("ParseMove should reject non-numeric input")
	}
}
