package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"pl-predictions/internal/config"

	"github.com/valyala/fasthttp"
)

const DefaultBaseURL = "https://api.football-data.org/v4"

type FootballDataClient struct {
	apiKey      string
	baseURL     string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	// requests left in the current minute window
	Remaining int `json:"remaining"`

	// seconds until the counter resets
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewFootballDataClient(cfg *config.Config) *FootballDataClient {
	return &FootballDataClient{
		apiKey:  cfg.FootballAPIKey,
		baseURL: DefaultBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			Remaining: 10,
			Reset:     60,
			UpdatedAt: time.Now(),
		},
	}
}

// NewFootballDataClientWith is used when the transport or base URL differ
// from production, e.g. an in-memory listener.
func NewFootballDataClientWith(apiKey, baseURL string, client *fasthttp.Client) *FootballDataClient {
	return &FootballDataClient{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (c *FootballDataClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *FootballDataClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if remaining := string(resp.Header.Peek("X-Requests-Available-Minute")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-RequestCounter-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// GetMatches lists Premier League matches for a season. matchday 0 returns
// the whole season.
func (c *FootballDataClient) GetMatches(ctx context.Context, season string, matchday int) (*MatchesResponse, error) {
	q := url.Values{}
	q.Set("season", season)
	if matchday > 0 {
		q.Set("matchday", strconv.Itoa(matchday))
	}
	return doRequest[MatchesResponse](ctx, c, fmt.Sprintf("%s/competitions/PL/matches?%s", c.baseURL, q.Encode()))
}

func doRequest[T any](ctx context.Context, client *FootballDataClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Auth-Token", client.apiKey)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	client.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("football-data API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type MatchesResponse struct {
	Filters     map[string]any `json:"filters"`
	ResultSet   ResultSet      `json:"resultSet"`
	Competition struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"competition"`
	Matches []MatchData `json:"matches"`
}

type ResultSet struct {
	Count  int    `json:"count"`
	First  string `json:"first"`
	Last   string `json:"last"`
	Played int    `json:"played"`
}

type MatchData struct {
	ID       int64     `json:"id"`
	UTCDate  time.Time `json:"utcDate"`
	Status   string    `json:"status"`
	Matchday int       `json:"matchday"`
	HomeTeam TeamRef   `json:"homeTeam"`
	AwayTeam TeamRef   `json:"awayTeam"`
	Score    struct {
		Winner   *string   `json:"winner"`
		Duration string    `json:"duration"`
		FullTime ScorePair `json:"fullTime"`
		HalfTime ScorePair `json:"halfTime"`
	} `json:"score"`
}

type TeamRef struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
}

type ScorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}
