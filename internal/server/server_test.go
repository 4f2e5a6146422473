package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pl-predictions/internal/config"
	"pl-predictions/internal/fixtures"
	"pl-predictions/internal/ranking"
	"pl-predictions/internal/realtime"
	"pl-predictions/internal/repository"
	"pl-predictions/internal/service"
	"pl-predictions/internal/testutil"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const adminToken = "let-me-in"

// newTestServer runs the whole stack over a simulated season in which
// gameweeks 1-2 are finished, 3 is in progress and 4 onwards are open.
func newTestServer(t *testing.T) (*httptest.Server, *realtime.Hub) {
	t.Helper()
	db := testutil.NewDB(t)
	logger := zerolog.Nop()
	cfg := &config.Config{JWTSecret: "test-secret", AdminToken: adminToken, CORSOrigins: []string{"*"}}

	users := repository.NewUserRepository(db, logger)
	predictions := repository.NewPredictionRepository(db, logger)
	doublers := repository.NewDoublerRepository(db, logger)
	results := repository.NewResultRepository(db, logger)

	provider := fixtures.NewSimulated(fixtures.SimulatedOptions{
		Seed:              1,
		SeasonStart:       fixtures.AnchoredSeasonStart(time.Now(), 2),
		FinishedGameweeks: 2,
	})

	fixtureSvc := service.NewFixtureService(provider, results, logger)
	leaderboard := service.NewLeaderboardService(users, predictions, doublers, fixtureSvc, ranking.Noop{}, logger)
	hub := realtime.NewHub(logger)
	t.Cleanup(hub.Close)

	srv := NewPredictionServer(
		service.NewAuthService(users, cfg, logger),
		fixtureSvc,
		service.NewPredictionService(predictions, doublers, fixtureSvc, logger),
		leaderboard,
		service.NewResultService(results, fixtureSvc, leaderboard, logger),
		hub,
		cfg,
		logger,
	)

	ts := httptest.NewServer(NewRouter(srv, hub, db, cfg, logger))
	t.Cleanup(ts.Close)
	return ts, hub
}

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// call posts a JSON message to a procedure. It returns the connect error
// code, empty on success.
func call(t *testing.T, ts *httptest.Server, procedure string, headers map[string]string, in, out any) string {
	t.Helper()
	body, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+procedure, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s: %v", procedure, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var e rpcError
		if err := json.Unmarshal(raw, &e); err != nil {
			t.Fatalf("%s: status %d, body %q", procedure, resp.StatusCode, raw)
		}
		return e.Code
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("%s: decode %q: %v", procedure, raw, err)
		}
	}
	return ""
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func register(t *testing.T, ts *httptest.Server, name string) AuthResponse {
	t.Helper()
	var auth AuthResponse
	if code := call(t, ts, RegisterProcedure, nil, Credentials{Username: name, Password: "pw-" + name}, &auth); code != "" {
		t.Fatalf("register %s: %s", name, code)
	}
	return auth
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	for path, want := range map[string]string{"/": healthMessage, "/healthz": "ok"} {
		resp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(body) != want {
			t.Errorf("GET %s = %d %q", path, resp.StatusCode, body)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("GET %s has no request id", path)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	alice := register(t, ts, "alice")
	if alice.Token == "" || alice.User.Username != "alice" {
		t.Fatalf("register = %+v", alice)
	}

	if code := call(t, ts, RegisterProcedure, nil, Credentials{Username: "alice", Password: "x"}, nil); code != "already_exists" {
		t.Errorf("duplicate register code = %q", code)
	}
	if code := call(t, ts, LoginProcedure, nil, Credentials{Username: "alice", Password: "wrong"}, nil); code != "unauthenticated" {
		t.Errorf("bad login code = %q", code)
	}

	var login AuthResponse
	if code := call(t, ts, LoginProcedure, nil, Credentials{Username: "alice", Password: "pw-alice"}, &login); code != "" {
		t.Fatalf("login: %s", code)
	}

	if code := call(t, ts, VerifyProcedure, nil, VerifyRequest{}, nil); code != "unauthenticated" {
		t.Errorf("verify without token code = %q", code)
	}
	if code := call(t, ts, VerifyProcedure, bearer("garbage"), VerifyRequest{}, nil); code != "unauthenticated" {
		t.Errorf("verify with bad token code = %q", code)
	}

	var verify VerifyResponse
	if code := call(t, ts, VerifyProcedure, bearer(login.Token), VerifyRequest{}, &verify); code != "" {
		t.Fatalf("verify: %s", code)
	}
	if !verify.Valid || verify.User.ID != alice.User.ID {
		t.Errorf("verify = %+v", verify)
	}
}

func TestMatchesAndGameweeks(t *testing.T) {
	ts, _ := newTestServer(t)

	var open ListMatchesResponse
	if code := call(t, ts, ListMatchesProcedure, nil, ListMatchesRequest{Gameweek: 4}, &open); code != "" {
		t.Fatalf("ListMatches: %s", code)
	}
	if len(open.Matches) != 10 || !open.CanPredict || open.Deadline == nil {
		t.Errorf("gameweek 4 = %d matches, canPredict %v, deadline %v", len(open.Matches), open.CanPredict, open.Deadline)
	}

	var finished ListMatchesResponse
	call(t, ts, ListMatchesProcedure, nil, ListMatchesRequest{Gameweek: 1}, &finished)
	if finished.CanPredict {
		t.Error("finished gameweek accepts predictions")
	}
	for _, m := range finished.Matches {
		if m.Status != "finished" || m.HomeScore == nil || m.AwayScore == nil {
			t.Errorf("gameweek 1 match %+v not finished", m)
		}
	}

	var all ListMatchesResponse
	call(t, ts, ListMatchesProcedure, nil, ListMatchesRequest{}, &all)
	if len(all.Matches) != 380 || all.Deadline != nil {
		t.Errorf("season listing = %d matches, deadline %v", len(all.Matches), all.Deadline)
	}

	if code := call(t, ts, ListMatchesProcedure, nil, ListMatchesRequest{Gameweek: 40}, nil); code != "invalid_argument" {
		t.Errorf("out-of-range gameweek code = %q", code)
	}

	var gws ListGameweeksResponse
	if code := call(t, ts, ListGameweeksProcedure, nil, ListGameweeksRequest{}, &gws); code != "" {
		t.Fatalf("ListGameweeks: %s", code)
	}
	if len(gws.Gameweeks) != 38 {
		t.Fatalf("got %d gameweeks", len(gws.Gameweeks))
	}
	if gws.Gameweeks[2].Status != "live" || gws.Gameweeks[2].CanPredict {
		t.Errorf("gameweek 3 = %+v", gws.Gameweeks[2])
	}
}

func TestPredictionsAndResults(t *testing.T) {
	ts, hub := newTestServer(t)
	alice := register(t, ts, "alice")
	register(t, ts, "bob")

	var gw4 ListMatchesResponse
	call(t, ts, ListMatchesProcedure, nil, ListMatchesRequest{Gameweek: 4}, &gw4)
	target := gw4.Matches[0].ID

	var gw1 ListMatchesResponse
	call(t, ts, ListMatchesProcedure, nil, ListMatchesRequest{Gameweek: 1}, &gw1)

	submit := SubmitPredictionRequest{MatchID: target, HomeScore: 2, AwayScore: 1, IsDoubler: true, Gameweek: 4}
	if code := call(t, ts, SubmitPredictionProcedure, nil, submit, nil); code != "unauthenticated" {
		t.Errorf("anonymous submit code = %q", code)
	}

	var saved SubmitPredictionResponse
	if code := call(t, ts, SubmitPredictionProcedure, bearer(alice.Token), submit, &saved); code != "" {
		t.Fatalf("SubmitPrediction: %s", code)
	}
	if !saved.Success || !saved.Prediction.IsDoubler || saved.Prediction.ID == "" {
		t.Errorf("saved = %+v", saved)
	}

	late := SubmitPredictionRequest{MatchID: gw1.Matches[0].ID, HomeScore: 1, AwayScore: 0, Gameweek: 1}
	if code := call(t, ts, SubmitPredictionProcedure, bearer(alice.Token), late, nil); code != "failed_precondition" {
		t.Errorf("late submit code = %q", code)
	}

	var doubler GetDoublerResponse
	call(t, ts, GetDoublerProcedure, bearer(alice.Token), GetDoublerRequest{Gameweek: 4}, &doubler)
	if doubler.DoublerMatchID == nil || *doubler.DoublerMatchID != target {
		t.Errorf("doubler = %v, want %d", doubler.DoublerMatchID, target)
	}
	var none GetDoublerResponse
	call(t, ts, GetDoublerProcedure, bearer(alice.Token), GetDoublerRequest{Gameweek: 5}, &none)
	if none.DoublerMatchID != nil {
		t.Errorf("gameweek 5 doubler = %d, want null", *none.DoublerMatchID)
	}

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer ws.Close()
	for deadline := time.Now().Add(2 * time.Second); hub.Count() == 0; {
		if time.Now().After(deadline) {
			t.Fatal("websocket client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	result := UpdateMatchResultRequest{MatchID: target, HomeScore: 2, AwayScore: 1}
	if code := call(t, ts, UpdateMatchResultProcedure, nil, result, nil); code != "permission_denied" {
		t.Errorf("update without admin token code = %q", code)
	}

	var updated UpdateMatchResultResponse
	if code := call(t, ts, UpdateMatchResultProcedure, map[string]string{"X-Admin-Token": adminToken}, result, &updated); code != "" {
		t.Fatalf("UpdateMatchResult: %s", code)
	}
	if len(updated.Leaderboard) != 2 || updated.Leaderboard[0].Username != "alice" || updated.Leaderboard[0].Score != 8 {
		t.Errorf("leaderboard after update = %+v", updated.Leaderboard)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string           `json:"type"`
		Payload MatchResultEvent `json:"payload"`
	}
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg.Type != realtime.TypeMatchResult || msg.Payload.MatchID != target || len(msg.Payload.UpdatedLeaderboard) != 2 {
		t.Errorf("broadcast = %+v", msg)
	}

	var board GetLeaderboardResponse
	if code := call(t, ts, GetLeaderboardProcedure, nil, GetLeaderboardRequest{}, &board); code != "" {
		t.Fatalf("GetLeaderboard: %s", code)
	}
	if len(board.Entries) != 2 || board.Entries[0].Score != 8 || board.Entries[1].Score != 0 || board.Entries[1].Username != "bob" {
		t.Errorf("leaderboard = %+v", board.Entries)
	}

	var mine ListMyPredictionsResponse
	if code := call(t, ts, ListMyPredictionsProcedure, bearer(alice.Token), ListMyPredictionsRequest{}, &mine); code != "" {
		t.Fatalf("ListMyPredictions: %s", code)
	}
	if len(mine.Predictions) != 1 || mine.Predictions[0].Points == nil || *mine.Predictions[0].Points != 8 {
		t.Errorf("my predictions = %+v", mine.Predictions)
	}

	if code := call(t, ts, UpdateMatchResultProcedure, map[string]string{"X-Admin-Token": adminToken},
		UpdateMatchResultRequest{MatchID: 99999, HomeScore: 1, AwayScore: 1}, nil); code != "not_found" {
		t.Errorf("unknown match update code = %q", code)
	}
}
