package fixtures

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"pl-predictions/internal/constants"
	"pl-predictions/internal/domain"
	"pl-predictions/internal/gameweek"
)

var premierLeagueTeams = []string{
	"Arsenal", "Aston Villa", "Bournemouth", "Brentford", "Brighton",
	"Burnley", "Chelsea", "Crystal Palace", "Everton", "Fulham",
	"Leeds United", "Liverpool", "Manchester City", "Manchester United", "Newcastle United",
	"Nottingham Forest", "Sunderland", "Tottenham Hotspur", "West Ham United", "Wolves",
}

// kickoff slots relative to the start of a gameweek (Friday 00:00 UTC)
var kickoffSlots = []time.Duration{
	20 * time.Hour,
	36*time.Hour + 30*time.Minute,
	39 * time.Hour,
	39 * time.Hour,
	39 * time.Hour,
	39 * time.Hour,
	41*time.Hour + 30*time.Minute,
	62 * time.Hour,
	64*time.Hour + 30*time.Minute,
	92 * time.Hour,
}

const (
	homeGoalRate = 1.55
	awayGoalRate = 1.2
)

type SimulatedOptions struct {
	Seed              uint64
	SeasonStart       time.Time
	FinishedGameweeks int
}

// Simulated generates a full season once and serves it from memory. The same
// options always yield the same fixtures and results.
type Simulated struct {
	matches []domain.Match
}

func NewSimulated(opts SimulatedOptions) *Simulated {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	teams := make([]string, len(premierLeagueTeams))
	copy(teams, premierLeagueTeams)
	rng.Shuffle(len(teams), func(i, j int) { teams[i], teams[j] = teams[j], teams[i] })

	rounds := generateSchedule(teams)
	matches := make([]domain.Match, 0, constants.SeasonGameweeks*constants.MatchesPerGameweek)

	for i, round := range rounds {
		gw := i + 1
		start := opts.SeasonStart.Add(time.Duration(i) * 7 * 24 * time.Hour)

		var status domain.MatchStatus
		switch {
		case gw <= opts.FinishedGameweeks:
			status = domain.StatusFinished
		case gw == opts.FinishedGameweeks+1:
			status = domain.StatusLive
		default:
			status = domain.StatusUpcoming
		}

		for j, f := range round {
			m := domain.Match{
				ID:       int64(gw*100 + j + 1),
				HomeTeam: f.home,
				AwayTeam: f.away,
				Kickoff:  start.Add(kickoffSlots[j%len(kickoffSlots)]),
				Status:   status,
				Gameweek: gw,
			}
			// draw for every match so results don't shift with FinishedGameweeks
			home, away := poisson(rng, homeGoalRate), poisson(rng, awayGoalRate)
			if status == domain.StatusFinished {
				m = m.WithResult(home, away)
			}
			matches = append(matches, m)
		}
	}

	return &Simulated{matches: matches}
}

func (s *Simulated) Matches(_ context.Context, gw int) ([]domain.Match, error) {
	if gw == 0 {
		out := make([]domain.Match, len(s.matches))
		copy(out, s.matches)
		return out, nil
	}
	return gameweek.Filter(s.matches, gw), nil
}

// AnchoredSeasonStart returns a season start that puts gameweek finished+1
// in progress around now.
func AnchoredSeasonStart(now time.Time, finished int) time.Time {
	day := now.UTC().Truncate(24 * time.Hour).Add(-24 * time.Hour)
	return day.Add(-time.Duration(finished) * 7 * 24 * time.Hour)
}

type fixture struct {
	home, away string
}

// generateSchedule builds a double round-robin with the circle method. The
// second half mirrors the first with venues swapped.
func generateSchedule(teams []string) [][]fixture {
	n := len(teams)
	rotating := make([]string, n)
	copy(rotating, teams)

	half := make([][]fixture, n-1)
	for i := 0; i < n-1; i++ {
		round := make([]fixture, n/2)
		for j := 0; j < n/2; j++ {
			home, away := rotating[j], rotating[n-1-j]
			// alternate the fixed team's venue
			if j == 0 && i%2 == 1 {
				home, away = away, home
			}
			round[j] = fixture{home: home, away: away}
		}
		half[i] = round

		last := rotating[n-1]
		copy(rotating[2:], rotating[1:n-1])
		rotating[1] = last
	}

	rounds := make([][]fixture, 0, 2*(n-1))
	rounds = append(rounds, half...)
	for _, round := range half {
		mirrored := make([]fixture, len(round))
		for j, f := range round {
			mirrored[j] = fixture{home: f.away, away: f.home}
		}
		rounds = append(rounds, mirrored)
	}
	return rounds
}

// poisson draws from a Poisson distribution using Knuth's method.
func poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}
