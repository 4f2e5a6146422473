package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pl-predictions/internal/constants"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Score        int
	CreatedAt    time.Time
}

// NormalizeUsername trims the name and checks the length limits.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(username) > constants.MaxUsernameLength {
		return "", fmt.Errorf("%w: username longer than %d characters", ErrInvalidInput, constants.MaxUsernameLength)
	}
	return username, nil
}

type MatchStatus string

const (
	StatusUpcoming MatchStatus = "upcoming"
	StatusLive     MatchStatus = "live"
	StatusFinished MatchStatus = "finished"
)

func ParseMatchStatus(s string) (MatchStatus, error) {
	switch MatchStatus(s) {
	case StatusUpcoming, StatusLive, StatusFinished:
		return MatchStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown match status %q", ErrInvalidInput, s)
}

type Match struct {
	ID       int64
	HomeTeam string
	AwayTeam string
	Kickoff  time.Time
	Status   MatchStatus
	Gameweek int

	// nil unless Status is finished
	HomeScore *int
	AwayScore *int
}

// NewMatch validates a fixture. Scores are kept only for finished matches.
func NewMatch(id int64, home, away string, kickoff time.Time, status MatchStatus, homeScore, awayScore *int, gameweek int) (Match, error) {
	if id <= 0 {
		return Match{}, fmt.Errorf("%w: match id must be positive", ErrInvalidInput)
	}
	if _, err := ParseMatchStatus(string(status)); err != nil {
		return Match{}, err
	}
	if err := validateGameweek(gameweek); err != nil {
		return Match{}, err
	}

	m := Match{
		ID:       id,
		HomeTeam: home,
		AwayTeam: away,
		Kickoff:  kickoff,
		Status:   status,
		Gameweek: gameweek,
	}
	if status != StatusFinished {
		return m, nil
	}
	if homeScore == nil || awayScore == nil {
		return Match{}, fmt.Errorf("%w: finished match %d has no score", ErrInvalidInput, id)
	}
	if *homeScore < 0 || *awayScore < 0 {
		return Match{}, fmt.Errorf("%w: negative score for match %d", ErrInvalidInput, id)
	}
	h, a := *homeScore, *awayScore
	m.HomeScore, m.AwayScore = &h, &a
	return m, nil
}

func (m Match) Finished() bool {
	return m.Status == StatusFinished && m.HomeScore != nil && m.AwayScore != nil
}

// WithResult returns a finished copy of m carrying the given score.
func (m Match) WithResult(home, away int) Match {
	m.Status = StatusFinished
	m.HomeScore, m.AwayScore = &home, &away
	return m
}

type Outcome int

const (
	HomeWin Outcome = iota
	Draw
	AwayWin
)

func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return HomeWin
	case home < away:
		return AwayWin
	default:
		return Draw
	}
}

func (o Outcome) String() string {
	switch o {
	case HomeWin:
		return "home"
	case AwayWin:
		return "away"
	default:
		return "draw"
	}
}

type Prediction struct {
	ID        string // nanoid
	UserID    int64
	MatchID   int64
	HomeScore int
	AwayScore int
	IsDoubler bool
	Gameweek  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPrediction(userID, matchID int64, homeScore, awayScore int, isDoubler bool, gameweek int) (Prediction, error) {
	if userID <= 0 {
		return Prediction{}, fmt.Errorf("%w: user id must be positive", ErrInvalidInput)
	}
	if matchID <= 0 {
		return Prediction{}, fmt.Errorf("%w: match id must be positive", ErrInvalidInput)
	}
	if homeScore < 0 || awayScore < 0 {
		return Prediction{}, fmt.Errorf("%w: predicted scores cannot be negative", ErrInvalidInput)
	}
	if err := validateGameweek(gameweek); err != nil {
		return Prediction{}, err
	}
	return Prediction{
		UserID:    userID,
		MatchID:   matchID,
		HomeScore: homeScore,
		AwayScore: awayScore,
		IsDoubler: isDoubler,
		Gameweek:  gameweek,
	}, nil
}

type Doubler struct {
	UserID    int64
	Gameweek  int
	MatchID   int64
	CreatedAt time.Time
}

// MatchResult is an admin-entered final score that overrides provider data.
type MatchResult struct {
	MatchID   int64
	HomeScore int
	AwayScore int
	UpdatedAt time.Time
}

type LeaderboardEntry struct {
	UserID          int64
	Username        string
	Score           int
	PredictionCount int
}

type GameweekSummary struct {
	Gameweek   int
	MatchCount int
	Deadline   time.Time
	CanPredict bool
	Status     MatchStatus
}

func validateGameweek(gw int) error {
	if gw < 1 || gw > constants.SeasonGameweeks {
		return fmt.Errorf("%w: gameweek %d out of range 1-%d", ErrInvalidInput, gw, constants.SeasonGameweeks)
	}
	return nil
}
