package gameweek

import (
	"sort"
	"time"

	"pl-predictions/internal/constants"
	"pl-predictions/internal/domain"
)

// Deadline is the earliest kickoff minus the prediction cutoff. ok is false
// when there are no matches.
func Deadline(matches []domain.Match) (deadline time.Time, ok bool) {
	if len(matches) == 0 {
		return time.Time{}, false
	}
	first := matches[0].Kickoff
	for _, m := range matches[1:] {
		if m.Kickoff.Before(first) {
			first = m.Kickoff
		}
	}
	return first.Add(-constants.PredictionDeadlineOffset), true
}

// CanPredict must be evaluated the same way for display and for writes.
func CanPredict(now time.Time, matches []domain.Match) bool {
	deadline, ok := Deadline(matches)
	if !ok {
		return false
	}
	return now.Before(deadline)
}

func StatusOf(matches []domain.Match) domain.MatchStatus {
	if len(matches) == 0 {
		return domain.StatusUpcoming
	}
	allFinished := true
	for _, m := range matches {
		if m.Status == domain.StatusLive {
			return domain.StatusLive
		}
		if m.Status != domain.StatusFinished {
			allFinished = false
		}
	}
	if allFinished {
		return domain.StatusFinished
	}
	return domain.StatusUpcoming
}

func Filter(matches []domain.Match, gw int) []domain.Match {
	out := make([]domain.Match, 0, constants.MatchesPerGameweek)
	for _, m := range matches {
		if m.Gameweek == gw {
			out = append(out, m)
		}
	}
	return out
}

// Summarize groups matches by gameweek, skipping gameweeks without fixtures.
func Summarize(now time.Time, matches []domain.Match) []domain.GameweekSummary {
	grouped := make(map[int][]domain.Match)
	for _, m := range matches {
		grouped[m.Gameweek] = append(grouped[m.Gameweek], m)
	}

	summaries := make([]domain.GameweekSummary, 0, len(grouped))
	for gw, ms := range grouped {
		deadline, _ := Deadline(ms)
		summaries = append(summaries, domain.GameweekSummary{
			Gameweek:   gw,
			MatchCount: len(ms),
			Deadline:   deadline,
			CanPredict: CanPredict(now, ms),
			Status:     StatusOf(ms),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Gameweek < summaries[j].Gameweek
	})
	return summaries
}
