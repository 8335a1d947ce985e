// shared/registry/registrar.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ServiceRegistrar heartbeats one instance into the registry and prunes
// instances whose heartbeat is older than HeartbeatTTL.
type ServiceRegistrar struct {
	redisClient redis.UniversalClient
	serviceType string
	cfg         config.CommonConfig
	serviceID   string
	metadata    func() map[string]string
	log         *slog.Logger
}

// NewServiceRegistrar prepares a registrar. metadata, when not nil, is sampled
// on every heartbeat.
func NewServiceRegistrar(redisClient redis.UniversalClient, serviceType string, cfg config.CommonConfig, metadata func() map[string]string, logger *slog.Logger) *ServiceRegistrar {
	serviceID := fmt.Sprintf("%s-%s", serviceType, uuid.New().String())
	return &ServiceRegistrar{
		redisClient: redisClient,
		serviceType: serviceType,
		cfg:         cfg,
		serviceID:   serviceID,
		metadata:    metadata,
		log:         logger.With(slog.String("component", "registrar"), slog.String("service_id", serviceID)),
	}
}

// Run heartbeats until ctx ends, then removes the instance from the registry.
func (sr *ServiceRegistrar) Run(ctx context.Context) error {
	sr.log.Info("service registrar starting",
		slog.String("service_type", sr.serviceType),
		slog.String("ip", sr.cfg.ServiceIP),
		slog.Int("port", sr.cfg.ServicePort))

	heartbeat := time.NewTicker(sr.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	var cleanup <-chan time.Time
	if sr.cfg.RegistryCleanupInterval > 0 {
		t := time.NewTicker(sr.cfg.RegistryCleanupInterval)
		defer t.Stop()
		cleanup = t.C
	}

	sr.registerService(ctx)
	for {
		select {
		case <-heartbeat.C:
			sr.registerService(ctx)
		case <-cleanup:
			sr.performCleanup(ctx)
		case <-ctx.Done():
			sr.deregister()
			return nil
		}
	}
}

func (sr *ServiceRegistrar) hashKey() string {
	return RedisRegistryHashPrefix + sr.serviceType
}

func (sr *ServiceRegistrar) registerService(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	info := ServiceInfo{
		ServiceID:   sr.serviceID,
		ServiceType: sr.serviceType,
		IP:          sr.cfg.ServiceIP,
		Port:        sr.cfg.ServicePort,
		LastSeen:    time.Now().UnixMilli(),
	}
	if sr.metadata != nil {
		info.Metadata = sr.metadata()
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		sr.log.Error("failed to marshal service info", slog.Any("error", err))
		return
	}
	if err := sr.redisClient.HSet(ctx, sr.hashKey(), sr.serviceID, infoJSON).Err(); err != nil {
		sr.log.Error("heartbeat failed", slog.Any("error", err))
		return
	}
	sr.log.Debug("heartbeat sent")
}

func (sr *ServiceRegistrar) deregister() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sr.redisClient.HDel(ctx, sr.hashKey(), sr.serviceID).Err(); err != nil {
		sr.log.Error("failed to remove service from registry", slog.Any("error", err))
		return
	}
	sr.log.Info("service removed from registry")
}

// performCleanup deletes stale and undecodable entries of this service type.
func (sr *ServiceRegistrar) performCleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	results, err := sr.redisClient.HGetAll(ctx, sr.hashKey()).Result()
	if err != nil {
		sr.log.Error("cleanup failed to list services", slog.Any("error", err))
		return
	}

	now := time.Now()
	for instanceID, infoJSON := range results {
		var info ServiceInfo
		stale := json.Unmarshal([]byte(infoJSON), &info) != nil ||
			now.Sub(time.UnixMilli(info.LastSeen)) > sr.cfg.HeartbeatTTL
		if !stale {
			continue
		}
		if err := sr.redisClient.HDel(ctx, sr.hashKey(), instanceID).Err(); err != nil {
			sr.log.Error("cleanup failed to delete entry", slog.String("stale_id", instanceID), slog.Any("error", err))
			continue
		}
		sr.log.Info("removed stale service", slog.String("stale_id", instanceID))
	}
}

// GetServiceID returns the unique ID assigned to this service instance.
func (sr *ServiceRegistrar) GetServiceID() string {
	return sr.serviceID
}
