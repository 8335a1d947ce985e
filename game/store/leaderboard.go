// game/store/leaderboard.go
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/models"
	"github.com/google/uuid"
)

var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrInvalidNickname = errors.New("nickname must be non-empty and must not contain ':'")
	ErrInvalidPaging   = errors.New("limit must be positive and offset non-negative")
)

// Leaderboard keeps persistent accounts, their best games and a ranking by
// best score. Accounts are keyed by their full nickname, "name:N".
type Leaderboard interface {
	// RegisterNewPlayer numbers the nickname and creates an account with a
	// fresh token.
	RegisterNewPlayer(ctx context.Context, nickname string) (models.LeaderboardPlayer, error)
	FindPlayerByToken(ctx context.Context, token string) (models.LeaderboardPlayer, error)
	// ListPlayers pages through every account by best score, highest first.
	ListPlayers(ctx context.Context, limit, offset int64) (models.PlayerPage, error)
	GetPlayer(ctx context.Context, nickname string) (models.LeaderboardPlayer, error)
	// RecordGame stores a finished game. The best game and the ranking only
	// change when the score beats the previous best.
	RecordGame(ctx context.Context, rec models.GameRecord) error
	// RecentGames lists the latest recorded games, newest first.
	RecentGames(ctx context.Context, nickname string) ([]models.GameRecord, error)
}

// cleanNickname trims the nickname and rejects names the numbering scheme
// cannot represent.
func cleanNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || strings.Contains(nickname, ":") {
		return "", ErrInvalidNickname
	}
	return nickname, nil
}

func checkPaging(limit, offset int64) error {
	if limit <= 0 || offset < 0 {
		return ErrInvalidPaging
	}
	return nil
}

// newToken returns an opaque account token usable as a WebSocket subprotocol.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// noBestScore ranks accounts without a recorded game below every real score.
const noBestScore = -1
