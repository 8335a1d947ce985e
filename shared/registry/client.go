// shared/registry/client.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RegistryClient reads the registry. Registration lives in ServiceRegistrar.
type RegistryClient struct {
	redisClient    redis.UniversalClient
	serviceTimeout time.Duration
	log            *slog.Logger
}

func NewRegistryClient(redisClient redis.UniversalClient, serviceTimeout time.Duration, logger *slog.Logger) *RegistryClient {
	return &RegistryClient{
		redisClient:    redisClient,
		serviceTimeout: serviceTimeout,
		log:            logger.With(slog.String("component", "registry")),
	}
}

// GetActiveServices returns the instances of serviceType that heartbeated
// within the service timeout, keyed by instance id.
func (rc *RegistryClient) GetActiveServices(ctx context.Context, serviceType string) (map[string]ServiceInfo, error) {
	key := RedisRegistryHashPrefix + serviceType
	results, err := rc.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get all services of type %s from Redis: %w", serviceType, err)
	}

	activeServices := make(map[string]ServiceInfo)
	now := time.Now()
	for instanceID, infoJSON := range results {
		var info ServiceInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			// Left for the registrar's cleanup pass.
			rc.log.Warn("malformed registry entry", slog.String("service_id", instanceID), slog.Any("error", err))
			continue
		}
		if now.Sub(time.UnixMilli(info.LastSeen)) <= rc.serviceTimeout {
			activeServices[instanceID] = info
		}
	}
	return activeServices, nil
}
