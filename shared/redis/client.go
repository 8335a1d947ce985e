// shared/redis/client.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewUniversalClient connects to Redis. One address yields a single-node
// client, several addresses a cluster client. The connection is verified
// with a PING before returning.
func NewUniversalClient(ctx context.Context, addrs []string, password string, logger *slog.Logger) (redis.UniversalClient, error) {
	if len(addrs) == 0 {
		return nil, errors.New("no Redis addresses provided")
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  6 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %v: %w", addrs, err)
	}
	logger.Info("connected to Redis", slog.Any("addrs", addrs), slog.Bool("cluster", len(addrs) > 1))
	return rdb, nil
}
