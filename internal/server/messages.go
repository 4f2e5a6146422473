package server

import (
	"time"

	"pl-predictions/internal/domain"
	"pl-predictions/internal/service"
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type VerifyRequest struct{}

type VerifyResponse struct {
	Valid bool `json:"valid"`
	User  User `json:"user"`
}

type Match struct {
	ID        int64     `json:"id"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	HomeScore *int      `json:"homeScore"`
	AwayScore *int      `json:"awayScore"`
	Gameweek  int       `json:"gameweek"`
}

type ListMatchesRequest struct {
	// 0 lists the whole season
	Gameweek int `json:"gameweek"`
}

type ListMatchesResponse struct {
	Matches    []Match    `json:"matches"`
	Gameweek   int        `json:"gameweek"`
	Deadline   *time.Time `json:"deadline"`
	CanPredict bool       `json:"canPredict"`
}

type ListGameweeksRequest struct{}

type Gameweek struct {
	Gameweek   int       `json:"gameweek"`
	MatchCount int       `json:"matchCount"`
	Deadline   time.Time `json:"deadline"`
	CanPredict bool      `json:"canPredict"`
	Status     string    `json:"status"`
}

type ListGameweeksResponse struct {
	Gameweeks []Gameweek `json:"gameweeks"`
}

type SubmitPredictionRequest struct {
	MatchID   int64 `json:"matchId"`
	HomeScore int   `json:"homeScore"`
	AwayScore int   `json:"awayScore"`
	IsDoubler bool  `json:"isDoubler"`
	Gameweek  int   `json:"gameweek"`
}

type Prediction struct {
	ID        string    `json:"id"`
	MatchID   int64     `json:"matchId"`
	HomeScore int       `json:"homeScore"`
	AwayScore int       `json:"awayScore"`
	IsDoubler bool      `json:"isDoubler"`
	Gameweek  int       `json:"gameweek"`
	UpdatedAt time.Time `json:"updatedAt"`
	Points    *int      `json:"points,omitempty"`
	Match     *Match    `json:"match,omitempty"`
}

type SubmitPredictionResponse struct {
	Success    bool       `json:"success"`
	Prediction Prediction `json:"prediction"`
}

type ListMyPredictionsRequest struct {
	Gameweek int `json:"gameweek"`
}

type ListMyPredictionsResponse struct {
	Predictions []Prediction `json:"predictions"`
}

type GetDoublerRequest struct {
	Gameweek int `json:"gameweek"`
}

type GetDoublerResponse struct {
	DoublerMatchID *int64 `json:"doublerMatchId"`
}

type GetLeaderboardRequest struct{}

type LeaderboardEntry struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Score           int    `json:"score"`
	PredictionCount int    `json:"predictionCount"`
}

type GetLeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

type UpdateMatchResultRequest struct {
	MatchID   int64 `json:"matchId"`
	HomeScore int   `json:"homeScore"`
	AwayScore int   `json:"awayScore"`
}

type UpdateMatchResultResponse struct {
	Success     bool               `json:"success"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// MatchResultEvent is the payload of the websocket matchResult message.
type MatchResultEvent struct {
	MatchID            int64              `json:"matchId"`
	HomeScore          int                `json:"homeScore"`
	AwayScore          int                `json:"awayScore"`
	UpdatedLeaderboard []LeaderboardEntry `json:"updatedLeaderboard"`
}

func toUser(u *domain.User) User {
	return User{ID: u.ID, Username: u.Username, Score: u.Score}
}

func toMatch(m domain.Match) Match {
	return Match{
		ID:        m.ID,
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		Date:      m.Kickoff,
		Status:    string(m.Status),
		HomeScore: m.HomeScore,
		AwayScore: m.AwayScore,
		Gameweek:  m.Gameweek,
	}
}

func toMatches(ms []domain.Match) []Match {
	out := make([]Match, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMatch(m))
	}
	return out
}

func toPrediction(p domain.Prediction) Prediction {
	return Prediction{
		ID:        p.ID,
		MatchID:   p.MatchID,
		HomeScore: p.HomeScore,
		AwayScore: p.AwayScore,
		IsDoubler: p.IsDoubler,
		Gameweek:  p.Gameweek,
		UpdatedAt: p.UpdatedAt,
	}
}

func toScoredPrediction(sp service.ScoredPrediction) Prediction {
	out := toPrediction(sp.Prediction)
	out.Points = sp.Points
	if sp.Match != nil {
		m := toMatch(*sp.Match)
		out.Match = &m
	}
	return out
}

func toLeaderboard(entries []domain.LeaderboardEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, LeaderboardEntry{
			ID:              e.UserID,
			Username:        e.Username,
			Score:           e.Score,
			PredictionCount: e.PredictionCount,
		})
	}
	return out
}
