// game/store/mongo_leaderboard.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoPlayer is the stored account document. Games holds the recent games,
// newest first.
type mongoPlayer struct {
	Nickname  string              `bson:"_id"`
	Token     string              `bson:"token"`
	BestScore int                 `bson:"best_score"`
	Best      *models.BestGame    `bson:"best,omitempty"`
	Games     []models.GameRecord `bson:"games"`
}

func (d mongoPlayer) model() models.LeaderboardPlayer {
	return models.LeaderboardPlayer{Nickname: d.Nickname, Token: d.Token, BestGame: d.Best}
}

type nicknameCounter struct {
	Seq int64 `bson:"seq"`
}

// MongoLeaderboard keeps one document per account plus a counters collection
// numbering nicknames.
type MongoLeaderboard struct {
	players     *mongo.Collection
	counters    *mongo.Collection
	recentLimit int
	log         *slog.Logger
}

// NewMongoLeaderboard ensures the token and ranking indexes exist.
func NewMongoLeaderboard(ctx context.Context, players, counters *mongo.Collection, recentLimit int, logger *slog.Logger) (*MongoLeaderboard, error) {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	_, err := players.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "best_score", Value: -1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("creating leaderboard indexes: %w", err)
	}
	return &MongoLeaderboard{
		players:     players,
		counters:    counters,
		recentLimit: recentLimit,
		log:         logger.With(slog.String("component", "leaderboard"), slog.String("backend", "mongo")),
	}, nil
}

func (l *MongoLeaderboard) RegisterNewPlayer(ctx context.Context, nickname string) (models.LeaderboardPlayer, error) {
	nickname, err := cleanNickname(nickname)
	if err != nil {
		return models.LeaderboardPlayer{}, err
	}

	var counter nicknameCounter
	err = l.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": nickname},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return models.LeaderboardPlayer{}, fmt.Errorf("numbering nickname %q: %w", nickname, err)
	}

	doc := mongoPlayer{
		Nickname:  nickname + ":" + strconv.FormatInt(counter.Seq, 10),
		Token:     newToken(),
		BestScore: noBestScore,
		Games:     []models.GameRecord{},
	}
	if _, err := l.players.InsertOne(ctx, doc); err != nil {
		return models.LeaderboardPlayer{}, fmt.Errorf("creating player %s: %w", doc.Nickname, err)
	}
	l.log.Info("player registered", slog.String("nickname", doc.Nickname))
	return doc.model(), nil
}

func (l *MongoLeaderboard) FindPlayerByToken(ctx context.Context, token string) (models.LeaderboardPlayer, error) {
	return l.findOne(ctx, bson.M{"token": token})
}

func (l *MongoLeaderboard) GetPlayer(ctx context.Context, nickname string) (models.LeaderboardPlayer, error) {
	return l.findOne(ctx, bson.M{"_id": nickname})
}

// findOne loads an account and computes its rank as one plus the number of
// accounts ahead of it in ranking order.
func (l *MongoLeaderboard) findOne(ctx context.Context, filter bson.M) (models.LeaderboardPlayer, error) {
	var doc mongoPlayer
	opts := options.FindOne().SetProjection(bson.M{"games": 0})
	if err := l.players.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.LeaderboardPlayer{}, ErrPlayerNotFound
		}
		return models.LeaderboardPlayer{}, fmt.Errorf("loading player: %w", err)
	}

	ahead, err := l.players.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"best_score": bson.M{"$gt": doc.BestScore}},
		bson.M{"best_score": doc.BestScore, "_id": bson.M{"$lt": doc.Nickname}},
	}})
	if err != nil {
		return models.LeaderboardPlayer{}, fmt.Errorf("ranking player %s: %w", doc.Nickname, err)
	}
	p := doc.model()
	p.Rank = ahead + 1
	return p, nil
}

func (l *MongoLeaderboard) ListPlayers(ctx context.Context, limit, offset int64) (models.PlayerPage, error) {
	if err := checkPaging(limit, offset); err != nil {
		return models.PlayerPage{}, err
	}
	total, err := l.players.CountDocuments(ctx, bson.M{})
	if err != nil {
		return models.PlayerPage{}, fmt.Errorf("counting players: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "best_score", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit).
		SetProjection(bson.M{"games": 0})
	cur, err := l.players.Find(ctx, bson.M{}, opts)
	if err != nil {
		return models.PlayerPage{}, fmt.Errorf("listing players: %w", err)
	}
	var docs []mongoPlayer
	if err := cur.All(ctx, &docs); err != nil {
		return models.PlayerPage{}, fmt.Errorf("decoding players: %w", err)
	}

	page := models.PlayerPage{Total: total, Results: make([]models.LeaderboardPlayer, 0, len(docs))}
	for i, d := range docs {
		p := d.model()
		p.Rank = offset + int64(i) + 1
		page.Results = append(page.Results, p)
	}
	return page, nil
}

// RecordGame prepends the game to the capped recent list, then replaces the
// best game in a single conditional update that only matches a lower score.
func (l *MongoLeaderboard) RecordGame(ctx context.Context, rec models.GameRecord) error {
	res, err := l.players.UpdateOne(ctx,
		bson.M{"_id": rec.Nickname},
		bson.M{"$push": bson.M{"games": bson.M{
			"$each":     bson.A{rec},
			"$position": 0,
			"$slice":    l.recentLimit,
		}}},
	)
	if err != nil {
		return fmt.Errorf("recording game of %s: %w", rec.Nickname, err)
	}
	if res.MatchedCount == 0 {
		return ErrPlayerNotFound
	}

	_, err = l.players.UpdateOne(ctx,
		bson.M{"_id": rec.Nickname, "best_score": bson.M{"$lt": rec.Score}},
		bson.M{"$set": bson.M{"best_score": rec.Score, "best": rec.Best()}},
	)
	if err != nil {
		return fmt.Errorf("updating best game of %s: %w", rec.Nickname, err)
	}
	l.log.Debug("game recorded", slog.String("nickname", rec.Nickname), slog.Int("score", rec.Score))
	return nil
}

func (l *MongoLeaderboard) RecentGames(ctx context.Context, nickname string) ([]models.GameRecord, error) {
	var doc mongoPlayer
	opts := options.FindOne().SetProjection(bson.M{"games": 1})
	if err := l.players.FindOne(ctx, bson.M{"_id": nickname}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("loading games of %s: %w", nickname, err)
	}
	if doc.Games == nil {
		return []models.GameRecord{}, nil
	}
	return doc.Games, nil
}
