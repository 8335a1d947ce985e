// game/store/redis_leaderboard.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/models"
	redisu "github.com/Ftotnem/AIRCARGO-SERVICES/shared/redis"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const recordGameRetries = 10

// RedisLeaderboard stores accounts in hashes, the ranking in a sorted set and
// recent games as msgpack entries of a capped list.
type RedisLeaderboard struct {
	rdb         redis.UniversalClient
	recentLimit int64
	log         *slog.Logger
}

func NewRedisLeaderboard(rdb redis.UniversalClient, recentLimit int, logger *slog.Logger) *RedisLeaderboard {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &RedisLeaderboard{
		rdb:         rdb,
		recentLimit: int64(recentLimit),
		log:         logger.With(slog.String("component", "leaderboard"), slog.String("backend", "redis")),
	}
}

func (l *RedisLeaderboard) RegisterNewPlayer(ctx context.Context, nickname string) (models.LeaderboardPlayer, error) {
	nickname, err := cleanNickname(nickname)
	if err != nil {
		return models.LeaderboardPlayer{}, err
	}
	n, err := l.rdb.Incr(ctx, fmt.Sprintf(redisu.NicknameCounterKey, nickname)).Result()
	if err != nil {
		return models.LeaderboardPlayer{}, fmt.Errorf("numbering nickname %q: %w", nickname, err)
	}
	full := nickname + ":" + strconv.FormatInt(n, 10)
	token := newToken()

	_, err = l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, fmt.Sprintf(redisu.PlayerKey, full), redisu.FieldNickname, full, redisu.FieldToken, token)
		pipe.Set(ctx, fmt.Sprintf(redisu.TokenKey, token), full, 0)
		pipe.ZAdd(ctx, redisu.LeaderboardKey, redis.Z{Score: noBestScore, Member: full})
		return nil
	})
	if err != nil {
		return models.LeaderboardPlayer{}, fmt.Errorf("creating player %s: %w", full, err)
	}
	l.log.Info("player registered", slog.String("nickname", full))
	return models.LeaderboardPlayer{Nickname: full, Token: token}, nil
}

func (l *RedisLeaderboard) FindPlayerByToken(ctx context.Context, token string) (models.LeaderboardPlayer, error) {
	full, err := l.rdb.Get(ctx, fmt.Sprintf(redisu.TokenKey, token)).Result()
	if errors.Is(err, redis.Nil) {
		return models.LeaderboardPlayer{}, ErrPlayerNotFound
	}
	if err != nil {
		return models.LeaderboardPlayer{}, fmt.Errorf("resolving token: %w", err)
	}
	return l.GetPlayer(ctx, full)
}

func (l *RedisLeaderboard) GetPlayer(ctx context.Context, nickname string) (models.LeaderboardPlayer, error) {
	var (
		fields *redis.MapStringStringCmd
		rank   *redis.IntCmd
	)
	_, err := l.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, fmt.Sprintf(redisu.PlayerKey, nickname))
		rank = pipe.ZRevRank(ctx, redisu.LeaderboardKey, nickname)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.LeaderboardPlayer{}, fmt.Errorf("loading player %s: %w", nickname, err)
	}
	if len(fields.Val()) == 0 {
		return models.LeaderboardPlayer{}, ErrPlayerNotFound
	}
	p, err := decodePlayer(fields.Val())
	if err != nil {
		return models.LeaderboardPlayer{}, fmt.Errorf("decoding player %s: %w", nickname, err)
	}
	if rank.Err() == nil {
		p.Rank = rank.Val() + 1
	}
	return p, nil
}

func (l *RedisLeaderboard) ListPlayers(ctx context.Context, limit, offset int64) (models.PlayerPage, error) {
	if err := checkPaging(limit, offset); err != nil {
		return models.PlayerPage{}, err
	}
	total, err := l.rdb.ZCard(ctx, redisu.LeaderboardKey).Result()
	if err != nil {
		return models.PlayerPage{}, fmt.Errorf("counting players: %w", err)
	}
	names, err := l.rdb.ZRevRange(ctx, redisu.LeaderboardKey, offset, offset+limit-1).Result()
	if err != nil {
		return models.PlayerPage{}, fmt.Errorf("ranking players: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err = l.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = pipe.HGetAll(ctx, fmt.Sprintf(redisu.PlayerKey, name))
		}
		return nil
	})
	if err != nil {
		return models.PlayerPage{}, fmt.Errorf("loading players: %w", err)
	}

	page := models.PlayerPage{Total: total, Results: make([]models.LeaderboardPlayer, 0, len(names))}
	for i, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			l.log.Warn("ranked player without account", slog.String("nickname", names[i]))
			continue
		}
		p, err := decodePlayer(cmd.Val())
		if err != nil {
			return models.PlayerPage{}, fmt.Errorf("decoding player %s: %w", names[i], err)
		}
		p.Rank = offset + int64(i) + 1
		page.Results = append(page.Results, p)
	}
	return page, nil
}

// RecordGame watches the player hash so a concurrent record cannot lower the
// best game, and retries when the watch fires.
func (l *RedisLeaderboard) RecordGame(ctx context.Context, rec models.GameRecord) error {
	playerKey := fmt.Sprintf(redisu.PlayerKey, rec.Nickname)
	gamesKey := fmt.Sprintf(redisu.RecentGamesKey, rec.Nickname)
	entry, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding game record: %w", err)
	}

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, playerKey).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return ErrPlayerNotFound
		}
		current, err := decodePlayer(fields)
		if err != nil {
			return err
		}
		improved := current.BestGame == nil || rec.Score > current.BestGame.Score

		var best []byte
		if improved {
			if best, err = msgpack.Marshal(rec.Best()); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if improved {
				pipe.HSet(ctx, playerKey, redisu.FieldBest, best)
				pipe.ZAddGT(ctx, redisu.LeaderboardKey, redis.Z{Score: float64(rec.Score), Member: rec.Nickname})
			}
			pipe.LPush(ctx, gamesKey, entry)
			pipe.LTrim(ctx, gamesKey, 0, l.recentLimit-1)
			return nil
		})
		return err
	}

	for i := 0; i < recordGameRetries; i++ {
		err = l.rdb.Watch(ctx, txf, playerKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return err
		}
		return fmt.Errorf("recording game of %s: %w", rec.Nickname, err)
	}
	l.log.Debug("game recorded", slog.String("nickname", rec.Nickname), slog.Int("score", rec.Score))
	return nil
}

func (l *RedisLeaderboard) RecentGames(ctx context.Context, nickname string) ([]models.GameRecord, error) {
	exists, err := l.rdb.Exists(ctx, fmt.Sprintf(redisu.PlayerKey, nickname)).Result()
	if err != nil {
		return nil, fmt.Errorf("checking player %s: %w", nickname, err)
	}
	if exists == 0 {
		return nil, ErrPlayerNotFound
	}
	entries, err := l.rdb.LRange(ctx, fmt.Sprintf(redisu.RecentGamesKey, nickname), 0, l.recentLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("loading games of %s: %w", nickname, err)
	}
	games := make([]models.GameRecord, 0, len(entries))
	for _, e := range entries {
		var rec models.GameRecord
		if err := msgpack.Unmarshal([]byte(e), &rec); err != nil {
			return nil, fmt.Errorf("decoding game of %s: %w", nickname, err)
		}
		games = append(games, rec)
	}
	return games, nil
}

func decodePlayer(fields map[string]string) (models.LeaderboardPlayer, error) {
	p := models.LeaderboardPlayer{
		Nickname: fields[redisu.FieldNickname],
		Token:    fields[redisu.FieldToken],
	}
	if raw, ok := fields[redisu.FieldBest]; ok && raw != "" {
		p.BestGame = &models.BestGame{}
		if err := msgpack.Unmarshal([]byte(raw), p.BestGame); err != nil {
			return models.LeaderboardPlayer{}, err
		}
	}
	return p, nil
}
