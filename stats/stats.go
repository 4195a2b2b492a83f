// Package stats defines the per-position aggregate the transposition table
// stores: a (wins, losses, visits) triple that forms a commutative monoid
// under elementwise addition.
package stats

// Stats is the aggregate outcome record for one game position. Wins and
// losses are always wins+losses <= visits; the remainder are draws.
type Stats struct {
	Wins   uint64
	Losses uint64
	Visits uint64
}

// Zero is the additive identity: merging Zero into any Stats is a no-op.
var Zero = Stats{}

// Win, Loss and Tie are the three distinguished backpropagation deltas.
var (
	Win  = Stats{Wins: 1, Visits: 1}
	Loss = Stats{Losses: 1, Visits: 1}
	Tie  = Stats{Visits: 1}
)

// Add returns the elementwise sum of s and o. Add is commutative and
// associative, with Zero as identity.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Wins:   s.Wins + o.Wins,
		Losses: s.Losses + o.Losses,
		Visits: s.Visits + o.Visits,
	}
}

// WinRate returns Wins/Visits from the acting side's perspective,
// treating an unvisited position as 0.
func (s Stats) WinRate() float64 {
	if s.Visits == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Visits)
}

// VisitsOrOne returns Visits, or 1 if Visits is zero. UCT selection must
// never divide by an observed-but-unvisited denominator.
func (s Stats) VisitsOrOne() uint64 {
	if s.Visits == 0 {
		return 1
	}
	return s.Visits
}
