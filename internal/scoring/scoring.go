// Package scoring turns predictions and finished results into points and
// aggregates them into a leaderboard. Everything here is pure.
package scoring

import "pl-predictions/internal/domain"

const doublerMultiplier = 2

// Breakdown records which criteria a prediction satisfied.
type Breakdown struct {
	HomeScore      bool
	AwayScore      bool
	GoalDifference bool
	Outcome        bool
	Base           int
	Multiplier     int
	Total          int
}

// Evaluate scores p against m. A match that is not finished, or that is not
// the match p refers to, yields an empty breakdown worth zero points.
func Evaluate(p domain.Prediction, m domain.Match) Breakdown {
	if p.MatchID != m.ID || !m.Finished() {
		return Breakdown{Multiplier: 1}
	}
	actualHome, actualAway := *m.HomeScore, *m.AwayScore

	b := Breakdown{
		HomeScore:      p.HomeScore == actualHome,
		AwayScore:      p.AwayScore == actualAway,
		GoalDifference: p.HomeScore-p.AwayScore == actualHome-actualAway,
		Outcome:        domain.OutcomeOf(p.HomeScore, p.AwayScore) == domain.OutcomeOf(actualHome, actualAway),
		Multiplier:     1,
	}
	for _, hit := range []bool{b.HomeScore, b.AwayScore, b.GoalDifference, b.Outcome} {
		if hit {
			b.Base++
		}
	}
	if p.IsDoubler {
		b.Multiplier = doublerMultiplier
	}
	b.Total = b.Base * b.Multiplier
	return b
}

func Points(p domain.Prediction, m domain.Match) int {
	return Evaluate(p, m).Total
}
