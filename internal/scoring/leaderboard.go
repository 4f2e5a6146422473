package scoring

import (
	"sort"

	"pl-predictions/internal/domain"
)

type predictionKey struct {
	userID  int64
	matchID int64
}

// BuildLeaderboard totals every user's points over the finished matches.
// Users without predictions are kept with a zero score. Ties keep the order
// of users.
func BuildLeaderboard(users []domain.User, predictions []domain.Prediction, matches []domain.Match) []domain.LeaderboardEntry {
	byKey := make(map[predictionKey]domain.Prediction, len(predictions))
	counts := make(map[int64]int, len(users))
	for _, p := range predictions {
		byKey[predictionKey{p.UserID, p.MatchID}] = p
		counts[p.UserID]++
	}

	finished := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		if m.Finished() {
			finished = append(finished, m)
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		total := 0
		for _, m := range finished {
			p, ok := byKey[predictionKey{u.ID, m.ID}]
			if !ok {
				continue
			}
			total += Points(p, m)
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:          u.ID,
			Username:        u.Username,
			Score:           total,
			PredictionCount: counts[u.ID],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// Conflict describes a gameweek where the doubler record and the prediction
// flags point at different matches.
type Conflict struct {
	UserID         int64
	Gameweek       int
	RecordMatchID  int64   // 0 when no doubler row exists
	FlaggedMatches []int64 // predictions carrying IsDoubler
}

// DoublerConflicts lists (user, gameweek) pairs whose flags disagree with
// the stored doubler. Scores never depend on it.
func DoublerConflicts(predictions []domain.Prediction, doublers []domain.Doubler) []Conflict {
	type slot struct {
		userID   int64
		gameweek int
	}

	flagged := make(map[slot][]int64)
	for _, p := range predictions {
		if p.IsDoubler {
			k := slot{p.UserID, p.Gameweek}
			flagged[k] = append(flagged[k], p.MatchID)
		}
	}
	records := make(map[slot]int64, len(doublers))
	for _, d := range doublers {
		records[slot{d.UserID, d.Gameweek}] = d.MatchID
	}

	seen := make(map[slot]bool)
	var conflicts []Conflict
	check := func(k slot) {
		if seen[k] {
			return
		}
		seen[k] = true
		rec := records[k]
		flags := flagged[k]
		if len(flags) == 1 && flags[0] == rec {
			return
		}
		conflicts = append(conflicts, Conflict{
			UserID:         k.userID,
			Gameweek:       k.gameweek,
			RecordMatchID:  rec,
			FlaggedMatches: flags,
		})
	}
	for _, d := range doublers {
		check(slot{d.UserID, d.Gameweek})
	}
	for _, p := range predictions {
		if p.IsDoubler {
			check(slot{p.UserID, p.Gameweek})
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].UserID != conflicts[j].UserID {
			return conflicts[i].UserID < conflicts[j].UserID
		}
		return conflicts[i].Gameweek < conflicts[j].Gameweek
	})
	return conflicts
}
