package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/logging"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLeaderboard(t *testing.T, recent int) *RedisLeaderboard {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisLeaderboard(rdb, recent, logging.Discard())
}

func TestRegisterNumbersNicknames(t *testing.T) {
	lb := newRedisLeaderboard(t, 5)
	ctx := context.Background()

	first, err := lb.RegisterNewPlayer(ctx, "  Ann ")
	if err != nil {
		t.Fatal(err)
	}
	second, err := lb.RegisterNewPlayer(ctx, "Ann")
	if err != nil {
		t.Fatal(err)
	}
	if first.Nickname != "Ann:1" || second.Nickname != "Ann:2" {
		t.Errorf("nicknames = %q, %q", first.Nickname, second.Nickname)
	}
	if first.Token == "" || first.Token == second.Token {
		t.Errorf("tokens = %q, %q", first.Token, second.Token)
	}

	for _, bad := range []string{"", "   ", "a:b"} {
		if _, err := lb.RegisterNewPlayer(ctx, bad); !errors.Is(err, ErrInvalidNickname) {
			t.Errorf("RegisterNewPlayer(%q) error = %v", bad, err)
		}
	}

	found, err := lb.FindPlayerByToken(ctx, second.Token)
	if err != nil || found.Nickname != "Ann:2" || found.BestGame != nil {
		t.Errorf("FindPlayerByToken = %+v, %v", found, err)
	}
	if _, err := lb.FindPlayerByToken(ctx, "nope"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("unknown token error = %v", err)
	}
	if _, err := lb.GetPlayer(ctx, "Ann:3"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("unknown nickname error = %v", err)
	}
}

func TestRecordGameKeepsBest(t *testing.T) {
	lb := newRedisLeaderboard(t, 2)
	ctx := context.Background()
	p, err := lb.RegisterNewPlayer(ctx, "ann")
	if err != nil {
		t.Fatal(err)
	}

	games := []models.GameRecord{
		{Nickname: p.Nickname, Timestamp: 1, Score: 300, ShipmentsDelivered: 3, TimeAlive: 1000, DeathCause: "speed_too_low"},
		{Nickname: p.Nickname, Timestamp: 2, Score: 100, ShipmentsDelivered: 1, TimeAlive: 2000, DeathCause: "run_out_of_fuel"},
		{Nickname: p.Nickname, Timestamp: 3, Score: 200, ShipmentsDelivered: 2, TimeAlive: 3000, DeathCause: "disconnected"},
	}
	for _, g := range games {
		if err := lb.RecordGame(ctx, g); err != nil {
			t.Fatalf("RecordGame(%d) error = %v", g.Score, err)
		}
	}

	got, err := lb.GetPlayer(ctx, p.Nickname)
	if err != nil {
		t.Fatal(err)
	}
	if got.BestGame == nil || *got.BestGame != *games[0].Best() {
		t.Errorf("best game = %+v, want %+v", got.BestGame, games[0].Best())
	}
	if got.Rank != 1 {
		t.Errorf("rank = %d", got.Rank)
	}

	recent, err := lb.RecentGames(ctx, p.Nickname)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0] != games[2] || recent[1] != games[1] {
		t.Errorf("recent games = %+v", recent)
	}

	if err := lb.RecordGame(ctx, models.GameRecord{Nickname: "ghost:1", Score: 1}); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("unknown player error = %v", err)
	}
	if _, err := lb.RecentGames(ctx, "ghost:1"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("unknown player games error = %v", err)
	}
}

func TestListPlayersRanksByBestScore(t *testing.T) {
	lb := newRedisLeaderboard(t, 5)
	ctx := context.Background()

	scores := map[string]int{"ann": 50, "bob": 500, "cid": 5}
	full := map[string]string{}
	for name, score := range scores {
		p, err := lb.RegisterNewPlayer(ctx, name)
		if err != nil {
			t.Fatal(err)
		}
		full[name] = p.Nickname
		if err := lb.RecordGame(ctx, models.GameRecord{Nickname: p.Nickname, Score: score}); err != nil {
			t.Fatal(err)
		}
	}
	idle, err := lb.RegisterNewPlayer(ctx, "dan")
	if err != nil {
		t.Fatal(err)
	}

	page, err := lb.ListPlayers(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{full["bob"], full["ann"], full["cid"], idle.Nickname}
	if page.Total != 4 || len(page.Results) != len(want) {
		t.Fatalf("page = %+v", page)
	}
	for i, p := range page.Results {
		if p.Nickname != want[i] || p.Rank != int64(i+1) {
			t.Errorf("result %d = %s rank %d, want %s rank %d", i, p.Nickname, p.Rank, want[i], i+1)
		}
	}
	if page.Results[3].BestGame != nil {
		t.Errorf("player without games has a best game")
	}

	second, err := lb.ListPlayers(ctx, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Results) != 2 || second.Results[0].Nickname != full["ann"] || second.Results[0].Rank != 2 {
		t.Errorf("second page = %+v", second)
	}

	for _, paging := range [][2]int64{{0, 0}, {-1, 0}, {10, -1}} {
		if _, err := lb.ListPlayers(ctx, paging[0], paging[1]); !errors.Is(err, ErrInvalidPaging) {
			t.Errorf("ListPlayers(%d, %d) error = %v", paging[0], paging[1], err)
		}
	}
}

func TestConcurrentRecordsKeepHighest(t *testing.T) {
	lb := newRedisLeaderboard(t, 50)
	ctx := context.Background()
	p, err := lb.RegisterNewPlayer(ctx, "ann")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for score := 1; score <= 8; score++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := lb.RecordGame(ctx, models.GameRecord{Nickname: p.Nickname, Score: score, Timestamp: int64(score)}); err != nil {
				t.Errorf("RecordGame(%d) error = %v", score, err)
			}
		}()
	}
	wg.Wait()

	got, err := lb.GetPlayer(ctx, p.Nickname)
	if err != nil {
		t.Fatal(err)
	}
	if got.BestGame == nil || got.BestGame.Score != 8 {
		t.Errorf("best game = %+v, want score 8", got.BestGame)
	}
}
