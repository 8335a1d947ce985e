// game/store/cached_leaderboard.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedLeaderboard serves repeated reads of the public leaderboard from an
// expiring LRU cache. Any write purges the cache since one game can move
// every rank.
type CachedLeaderboard struct {
	Leaderboard
	pages   *expirable.LRU[string, models.PlayerPage]
	players *expirable.LRU[string, models.LeaderboardPlayer]
	games   *expirable.LRU[string, []models.GameRecord]
}

func NewCachedLeaderboard(next Leaderboard, size int, ttl time.Duration) *CachedLeaderboard {
	return &CachedLeaderboard{
		Leaderboard: next,
		pages:       expirable.NewLRU[string, models.PlayerPage](size, nil, ttl),
		players:     expirable.NewLRU[string, models.LeaderboardPlayer](size, nil, ttl),
		games:       expirable.NewLRU[string, []models.GameRecord](size, nil, ttl),
	}
}

func (c *CachedLeaderboard) ListPlayers(ctx context.Context, limit, offset int64) (models.PlayerPage, error) {
	key := fmt.Sprintf("%d/%d", limit, offset)
	if page, ok := c.pages.Get(key); ok {
		return page, nil
	}
	page, err := c.Leaderboard.ListPlayers(ctx, limit, offset)
	if err != nil {
		return page, err
	}
	c.pages.Add(key, page)
	return page, nil
}

func (c *CachedLeaderboard) GetPlayer(ctx context.Context, nickname string) (models.LeaderboardPlayer, error) {
	if p, ok := c.players.Get(nickname); ok {
		return p, nil
	}
	p, err := c.Leaderboard.GetPlayer(ctx, nickname)
	if err != nil {
		return p, err
	}
	c.players.Add(nickname, p)
	return p, nil
}

func (c *CachedLeaderboard) RecentGames(ctx context.Context, nickname string) ([]models.GameRecord, error) {
	if games, ok := c.games.Get(nickname); ok {
		return games, nil
	}
	games, err := c.Leaderboard.RecentGames(ctx, nickname)
	if err != nil {
		return nil, err
	}
	c.games.Add(nickname, games)
	return games, nil
}

func (c *CachedLeaderboard) RegisterNewPlayer(ctx context.Context, nickname string) (models.LeaderboardPlayer, error) {
	p, err := c.Leaderboard.RegisterNewPlayer(ctx, nickname)
	if err == nil {
		c.purge()
	}
	return p, err
}

func (c *CachedLeaderboard) RecordGame(ctx context.Context, rec models.GameRecord) error {
	err := c.Leaderboard.RecordGame(ctx, rec)
	if err == nil {
		c.purge()
	}
	return err
}

func (c *CachedLeaderboard) purge() {
	c.pages.Purge()
	c.players.Purge()
	c.games.Purge()
}
