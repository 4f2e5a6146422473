package server

import (
	"context"
	"net/http"

	"pl-predictions/internal/config"
	"pl-predictions/internal/realtime"
	"pl-predictions/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const PredictionServiceName = "predictions.v1.PredictionService"

const (
	RegisterProcedure          = "/" + PredictionServiceName + "/Register"
	LoginProcedure             = "/" + PredictionServiceName + "/Login"
	VerifyProcedure            = "/" + PredictionServiceName + "/Verify"
	ListMatchesProcedure       = "/" + PredictionServiceName + "/ListMatches"
	ListGameweeksProcedure     = "/" + PredictionServiceName + "/ListGameweeks"
	SubmitPredictionProcedure  = "/" + PredictionServiceName + "/SubmitPrediction"
	ListMyPredictionsProcedure = "/" + PredictionServiceName + "/ListMyPredictions"
	GetDoublerProcedure        = "/" + PredictionServiceName + "/GetDoubler"
	GetLeaderboardProcedure    = "/" + PredictionServiceName + "/GetLeaderboard"
	UpdateMatchResultProcedure = "/" + PredictionServiceName + "/UpdateMatchResult"
)

var protectedProcedures = map[string]bool{
	VerifyProcedure:            true,
	SubmitPredictionProcedure:  true,
	ListMyPredictionsProcedure: true,
	GetDoublerProcedure:        true,
}

type PredictionServer struct {
	auth        *service.AuthService
	fixtures    *service.FixtureService
	predictions *service.PredictionService
	leaderboard *service.LeaderboardService
	results     *service.ResultService
	hub         *realtime.Hub
	adminToken  string
	logger      zerolog.Logger
}

func NewPredictionServer(
	auth *service.AuthService,
	fixtures *service.FixtureService,
	predictions *service.PredictionService,
	leaderboard *service.LeaderboardService,
	results *service.ResultService,
	hub *realtime.Hub,
	cfg *config.Config,
	logger zerolog.Logger,
) *PredictionServer {
	return &PredictionServer{
		auth:        auth,
		fixtures:    fixtures,
		predictions: predictions,
		leaderboard: leaderboard,
		results:     results,
		hub:         hub,
		adminToken:  cfg.AdminToken,
		logger:      logger,
	}
}

// Handler returns the mount path and handler for every procedure.
func (s *PredictionServer) Handler() (string, http.Handler) {
	opts := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(NewAuthInterceptor(s.auth, protectedProcedures)),
	}

	mux := http.NewServeMux()
	mux.Handle(RegisterProcedure, connect.NewUnaryHandler(RegisterProcedure, s.Register, opts...))
	mux.Handle(LoginProcedure, connect.NewUnaryHandler(LoginProcedure, s.Login, opts...))
	mux.Handle(VerifyProcedure, connect.NewUnaryHandler(VerifyProcedure, s.Verify, opts...))
	mux.Handle(ListMatchesProcedure, connect.NewUnaryHandler(ListMatchesProcedure, s.ListMatches, opts...))
	mux.Handle(ListGameweeksProcedure, connect.NewUnaryHandler(ListGameweeksProcedure, s.ListGameweeks, opts...))
	mux.Handle(SubmitPredictionProcedure, connect.NewUnaryHandler(SubmitPredictionProcedure, s.SubmitPrediction, opts...))
	mux.Handle(ListMyPredictionsProcedure, connect.NewUnaryHandler(ListMyPredictionsProcedure, s.ListMyPredictions, opts...))
	mux.Handle(GetDoublerProcedure, connect.NewUnaryHandler(GetDoublerProcedure, s.GetDoubler, opts...))
	mux.Handle(GetLeaderboardProcedure, connect.NewUnaryHandler(GetLeaderboardProcedure, s.GetLeaderboard, opts...))
	mux.Handle(UpdateMatchResultProcedure, connect.NewUnaryHandler(UpdateMatchResultProcedure, s.UpdateMatchResult, opts...))

	return "/" + PredictionServiceName + "/", mux
}

func (s *PredictionServer) Register(ctx context.Context, req *connect.Request[Credentials]) (*connect.Response[AuthResponse], error) {
	user, token, err := s.auth.Register(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&AuthResponse{Token: token, User: toUser(user)}), nil
}

func (s *PredictionServer) Login(ctx context.Context, req *connect.Request[Credentials]) (*connect.Response[AuthResponse], error) {
	user, token, err := s.auth.Login(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&AuthResponse{Token: token, User: toUser(user)}), nil
}

func (s *PredictionServer) Verify(ctx context.Context, _ *connect.Request[VerifyRequest]) (*connect.Response[VerifyResponse], error) {
	user, _ := userFromContext(ctx)
	return connect.NewResponse(&VerifyResponse{Valid: true, User: toUser(user)}), nil
}

func (s *PredictionServer) ListMatches(ctx context.Context, req *connect.Request[ListMatchesRequest]) (*connect.Response[ListMatchesResponse], error) {
	view, err := s.fixtures.Gameweek(ctx, req.Msg.Gameweek)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	resp := &ListMatchesResponse{
		Matches:    toMatches(view.Matches),
		Gameweek:   view.Gameweek,
		CanPredict: view.CanPredict,
	}
	if !view.Deadline.IsZero() {
		resp.Deadline = &view.Deadline
	}
	return connect.NewResponse(resp), nil
}

func (s *PredictionServer) ListGameweeks(ctx context.Context, _ *connect.Request[ListGameweeksRequest]) (*connect.Response[ListGameweeksResponse], error) {
	summaries, err := s.fixtures.Gameweeks(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	gameweeks := make([]Gameweek, 0, len(summaries))
	for _, g := range summaries {
		gameweeks = append(gameweeks, Gameweek{
			Gameweek:   g.Gameweek,
			MatchCount: g.MatchCount,
			Deadline:   g.Deadline,
			CanPredict: g.CanPredict,
			Status:     string(g.Status),
		})
	}
	return connect.NewResponse(&ListGameweeksResponse{Gameweeks: gameweeks}), nil
}

func (s *PredictionServer) SubmitPrediction(ctx context.Context, req *connect.Request[SubmitPredictionRequest]) (*connect.Response[SubmitPredictionResponse], error) {
	user, _ := userFromContext(ctx)
	saved, err := s.predictions.Submit(ctx, user.ID, service.SubmitInput{
		MatchID:   req.Msg.MatchID,
		HomeScore: req.Msg.HomeScore,
		AwayScore: req.Msg.AwayScore,
		IsDoubler: req.Msg.IsDoubler,
		Gameweek:  req.Msg.Gameweek,
	})
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&SubmitPredictionResponse{Success: true, Prediction: toPrediction(*saved)}), nil
}

func (s *PredictionServer) ListMyPredictions(ctx context.Context, req *connect.Request[ListMyPredictionsRequest]) (*connect.Response[ListMyPredictionsResponse], error) {
	user, _ := userFromContext(ctx)
	scored, err := s.predictions.ListForUser(ctx, user.ID, req.Msg.Gameweek)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	predictions := make([]Prediction, 0, len(scored))
	for _, sp := range scored {
		predictions = append(predictions, toScoredPrediction(sp))
	}
	return connect.NewResponse(&ListMyPredictionsResponse{Predictions: predictions}), nil
}

func (s *PredictionServer) GetDoubler(ctx context.Context, req *connect.Request[GetDoublerRequest]) (*connect.Response[GetDoublerResponse], error) {
	user, _ := userFromContext(ctx)
	matchID, ok, err := s.predictions.Doubler(ctx, user.ID, req.Msg.Gameweek)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	resp := &GetDoublerResponse{}
	if ok {
		resp.DoublerMatchID = &matchID
	}
	return connect.NewResponse(resp), nil
}

func (s *PredictionServer) GetLeaderboard(ctx context.Context, _ *connect.Request[GetLeaderboardRequest]) (*connect.Response[GetLeaderboardResponse], error) {
	entries, err := s.leaderboard.Get(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&GetLeaderboardResponse{Entries: toLeaderboard(entries)}), nil
}

// UpdateMatchResult records a final score and pushes the new leaderboard to
// every websocket observer.
func (s *PredictionServer) UpdateMatchResult(ctx context.Context, req *connect.Request[UpdateMatchResultRequest]) (*connect.Response[UpdateMatchResultResponse], error) {
	if err := checkAdminToken(s.adminToken, req.Header().Get("X-Admin-Token")); err != nil {
		return nil, err
	}

	update, err := s.results.UpdateMatchResult(ctx, req.Msg.MatchID, req.Msg.HomeScore, req.Msg.AwayScore)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	leaderboard := toLeaderboard(update.Leaderboard)
	err = s.hub.Broadcast(realtime.Message{
		Type: realtime.TypeMatchResult,
		Payload: MatchResultEvent{
			MatchID:            update.Result.MatchID,
			HomeScore:          update.Result.HomeScore,
			AwayScore:          update.Result.AwayScore,
			UpdatedLeaderboard: leaderboard,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("match_id", update.Result.MatchID).Msg("failed to broadcast match result")
	}

	return connect.NewResponse(&UpdateMatchResultResponse{Success: true, Leaderboard: leaderboard}), nil
}
