// Package game defines the capability a game implementation must provide
// for the engine to search it. The engine never knows a concrete game's
// internal representation; it only calls through the Game interface with
// an opaque state value G.
//
// The method set takes the state as an explicit argument rather than
// attaching methods to G, mirroring the rules-object-plus-opaque-state
// shape used throughout this codebase's lower layers (a Game is, in
// effect, a rulebook that operates on positions handed to it).
package game

import "math/rand"

// Game is the capability set an engine relies on for state G, move M and
// agent A. G must be cheaply cloneable and usable as a map key (the
// transposition table hashes positions by content), so concrete games
// should implement G as a small value type.
type Game[G any, M comparable, A comparable] interface {
	// ToAct returns the agent whose turn it is at g.
	ToAct(g G) A

	// RefPlayer returns the perspective player Negamax scores are signed
	// against; it is fixed at New and does not change over a game.
	RefPlayer(g G) A

	// AgentID maps an agent to a stable {0,1} identity.
	AgentID(g G, a A) int

	// Winner reports the winning agent, if any. A draw and an ongoing
	// game both report (zero, false); callers distinguish the two via
	// PossibleMoves being empty.
	Winner(g G) (A, bool)

	// PlayerWeight is +1 if a is the reference player, else -1.
	PlayerWeight(g G, a A) int

	// MoveValid is a pure predicate: true only if applying m to g
	// preserves legality. It does not check terminality.
	MoveValid(g G, m M) bool

	// HasWon reports whether a has already won at g, independent of
	// whose turn it is.
	HasWon(g G, a A) bool

	// PossibleMoves enumerates every legal move for ToAct(g). It is
	// empty iff g is terminal (won or drawn).
	PossibleMoves(g G) []ValidMove[G, M]

	// Apply returns the successor of g after m, updating ToAct and
	// Winner as appropriate. Apply is only ever called through a
	// ValidMove, so it may assume m is legal for g.
	Apply(g G, m M) G

	// New returns the initial state with a as both ToAct and RefPlayer.
	New(a A) G

	// RandomMove returns a uniformly chosen legal move and its resulting
	// state, for rollout efficiency. It reports false iff g is terminal.
	RandomMove(g G, rng *rand.Rand) (M, G, bool)
}

// HasWinner reports whether g is over because some agent has won. It does
// not, by itself, distinguish "drawn" from "ongoing" — callers check
// PossibleMoves for that, per the engine's terminality convention.
func HasWinner[G any, M comparable, A comparable](rules Game[G, M, A], g G) bool {
	_, ok := rules.Winner(g)
	return ok
}

// ParseGame is an optional text interface a game may additionally
// implement, letting callers (CLIs, tests) turn a string into a Move.
type ParseGame[G any, M comparable] interface {
	ParseMove(g G, s string) (M, bool)
}

// ValidMove pairs a move with the state it was validated against. It can
// only be constructed via NewValidMove, which enforces the invariant that
// the move is legal and the source state is not already terminal.
type ValidMove[G any, M comparable] struct {
	move M
	from G
}

// Move returns the wrapped move.
func (v ValidMove[G, M]) Move() M { return v.move }

// From returns the state the move was validated against.
func (v ValidMove[G, M]) From() G { return v.from }

// NewValidMove validates m against g and, if legal, returns a ValidMove
// wrapping them. It reports false if m is illegal or g is already over.
func NewValidMove[G any, M comparable, A comparable](rules Game[G, M, A], g G, m M) (ValidMove[G, M], bool) {
	if !rules.MoveValid(g, m) || HasWinner(rules, g) {
		return ValidMove[G, M]{}, false
	}
	return ValidMove[G, M]{move: m, from: g}, true
}

// Apply applies the move wrapped by v under rules, returning the
// successor state. It is a free function, not a method, because
// ValidMove does not itself carry a reference to the rules object.
func Apply[G any, M comparable, A comparable](rules Game[G, M, A], v ValidMove[G, M]) G {
	return rules.Apply(v.from, v.move)
}
