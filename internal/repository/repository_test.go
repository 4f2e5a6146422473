package repository

import (
	"context"
	"errors"
	"testing"

	"pl-predictions/internal/domain"
	"pl-predictions/internal/testutil"

	"github.com/rs/zerolog"
)

type repos struct {
	users       *UserRepository
	predictions *PredictionRepository
	doublers    *DoublerRepository
	results     *ResultRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db := testutil.NewDB(t)
	logger := zerolog.Nop()
	return repos{
		users:       NewUserRepository(db, logger),
		predictions: NewPredictionRepository(db, logger),
		doublers:    NewDoublerRepository(db, logger),
		results:     NewResultRepository(db, logger),
	}
}

func mustUser(t *testing.T, r repos, name string) *domain.User {
	t.Helper()
	u, err := r.users.Create(context.Background(), name, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func mustSave(t *testing.T, r repos, p domain.Prediction) *domain.Prediction {
	t.Helper()
	saved, err := r.predictions.Save(context.Background(), p)
	if err != nil {
		t.Fatalf("save prediction: %v", err)
	}
	return saved
}

func TestUserRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	alice := mustUser(t, r, "alice")
	if alice.ID == 0 || alice.Score != 0 {
		t.Fatalf("unexpected new user %+v", alice)
	}

	if _, err := r.users.Create(ctx, "alice", "other"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("duplicate username error = %v, want ErrUsernameTaken", err)
	}

	got, err := r.users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != alice.ID || got.PasswordHash != "hash" {
		t.Errorf("GetByUsername = %+v", got)
	}

	if _, err := r.users.GetByID(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID missing = %v, want ErrNotFound", err)
	}

	bob := mustUser(t, r, "bob")
	if err := r.users.UpdateScores(ctx, map[int64]int{alice.ID: 4, bob.ID: 8}); err != nil {
		t.Fatalf("UpdateScores: %v", err)
	}

	users, err := r.users.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alice" || users[0].Score != 4 || users[1].Score != 8 {
		t.Errorf("List = %+v", users)
	}
}

func TestPredictionRepository_UpsertKeepsOneRow(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")

	first := mustSave(t, r, domain.Prediction{UserID: u.ID, MatchID: 101, HomeScore: 1, AwayScore: 0, Gameweek: 1})
	second := mustSave(t, r, domain.Prediction{UserID: u.ID, MatchID: 101, HomeScore: 3, AwayScore: 3, Gameweek: 1})

	if first.ID != second.ID {
		t.Errorf("upsert changed id %s -> %s", first.ID, second.ID)
	}
	if second.HomeScore != 3 || second.AwayScore != 3 {
		t.Errorf("upsert did not overwrite scores: %+v", second)
	}

	all, err := r.predictions.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d predictions, want 1", len(all))
	}
}

func TestPredictionRepository_DoublerMoves(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")

	mustSave(t, r, domain.Prediction{UserID: u.ID, MatchID: 101, HomeScore: 1, AwayScore: 0, Gameweek: 1, IsDoubler: true})
	mustSave(t, r, domain.Prediction{UserID: u.ID, MatchID: 102, HomeScore: 2, AwayScore: 2, Gameweek: 1})
	// other gameweeks are untouched
	mustSave(t, r, domain.Prediction{UserID: u.ID, MatchID: 201, HomeScore: 0, AwayScore: 1, Gameweek: 2, IsDoubler: true})

	d, err := r.doublers.Get(ctx, u.ID, 1)
	if err != nil {
		t.Fatalf("Get doubler: %v", err)
	}
	if d.MatchID != 101 {
		t.Fatalf("doubler match = %d, want 101", d.MatchID)
	}

	mustSave(t, r, domain.Prediction{UserID: u.ID, MatchID: 102, HomeScore: 2, AwayScore: 2, Gameweek: 1, IsDoubler: true})

	if d, _ = r.doublers.Get(ctx, u.ID, 1); d.MatchID != 102 {
		t.Errorf("doubler match = %d, want 102", d.MatchID)
	}

	gw1, err := r.predictions.ListByUser(ctx, u.ID, 1)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	flagged := 0
	for _, p := range gw1 {
		if p.IsDoubler {
			flagged++
			if p.MatchID != 102 {
				t.Errorf("match %d still flagged", p.MatchID)
			}
		}
	}
	if flagged != 1 {
		t.Errorf("%d flagged predictions in gameweek 1, want 1", flagged)
	}

	gw2, _ := r.predictions.ListByUser(ctx, u.ID, 2)
	if len(gw2) != 1 || !gw2[0].IsDoubler {
		t.Errorf("gameweek 2 doubler lost: %+v", gw2)
	}

	all, _ := r.predictions.ListByUser(ctx, u.ID, 0)
	if len(all) != 3 {
		t.Errorf("ListByUser(0) returned %d predictions, want 3", len(all))
	}
}

func TestPredictionRepository_UnflagReleasesDoubler(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")

	mustSave(t, r, domain.Prediction{UserID: u.ID, MatchID: 101, HomeScore: 1, AwayScore: 0, Gameweek: 1, IsDoubler: true})
	// unflagging a different match leaves the doubler alone
	mustSave(t, r, domain.Prediction{UserID: u.ID, MatchID: 102, HomeScore: 0, AwayScore: 0, Gameweek: 1})
	if _, err := r.doublers.Get(ctx, u.ID, 1); err != nil {
		t.Fatalf("doubler removed by unrelated prediction: %v", err)
	}

	mustSave(t, r, domain.Prediction{UserID: u.ID, MatchID: 101, HomeScore: 1, AwayScore: 0, Gameweek: 1})
	if _, err := r.doublers.Get(ctx, u.ID, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("doubler after unflag = %v, want ErrNotFound", err)
	}

	ds, err := r.doublers.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(ds) != 0 {
		t.Errorf("doublers = %+v, want none", ds)
	}
}

func TestResultRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	if _, err := r.results.Upsert(ctx, domain.MatchResult{MatchID: 101, HomeScore: 2, AwayScore: 1}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := r.results.Upsert(ctx, domain.MatchResult{MatchID: 101, HomeScore: 3, AwayScore: 1}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := r.results.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(results) != 1 || results[0].HomeScore != 3 {
		t.Errorf("results = %+v", results)
	}
}
