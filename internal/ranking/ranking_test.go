package ranking

import (
	"context"
	"testing"

	"pl-predictions/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestRedis(t *testing.T) (*Redis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedis(rdb, zerolog.Nop()), rdb
}

func TestRedisPublish(t *testing.T) {
	pub, rdb := newTestRedis(t)
	ctx := context.Background()

	err := pub.Publish(ctx, []domain.LeaderboardEntry{
		{UserID: 2, Username: "bob", Score: 8, PredictionCount: 3},
		{UserID: 1, Username: "alice", Score: 4, PredictionCount: 1},
		{UserID: 3, Username: "dave", Score: 0, PredictionCount: 0},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	ranked, err := rdb.ZRevRangeWithScores(ctx, ScoresKey, 0, -1).Result()
	if err != nil {
		t.Fatalf("ZRevRange: %v", err)
	}
	want := []redis.Z{
		{Score: 8, Member: "bob"},
		{Score: 4, Member: "alice"},
		{Score: 0, Member: "dave"},
	}
	if diff := cmp.Diff(want, ranked); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}

	counts, err := rdb.HGetAll(ctx, PredictionsKey).Result()
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"bob": "3", "alice": "1", "dave": "0"}, counts); diff != "" {
		t.Errorf("prediction counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRedisPublish_ReplacesPreviousRanking(t *testing.T) {
	pub, rdb := newTestRedis(t)
	ctx := context.Background()

	if err := pub.Publish(ctx, []domain.LeaderboardEntry{{Username: "gone", Score: 5}}); err != nil {
		t.Fatal(err)
	}
	if err := pub.Publish(ctx, []domain.LeaderboardEntry{{Username: "alice", Score: 1}}); err != nil {
		t.Fatal(err)
	}

	members, _ := rdb.ZRange(ctx, ScoresKey, 0, -1).Result()
	if diff := cmp.Diff([]string{"alice"}, members); diff != "" {
		t.Errorf("stale members kept (-want +got):\n%s", diff)
	}

	if err := pub.Publish(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if n, _ := rdb.Exists(ctx, ScoresKey, PredictionsKey).Result(); n != 0 {
		t.Errorf("empty publish left %d keys", n)
	}
}
