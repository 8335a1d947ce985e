package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gameapi "github.com/Ftotnem/AIRCARGO-SERVICES/game/api"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/dispatch"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/service"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/store"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/ws"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/api"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/config"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/logging"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/mongodb"
	redisu "github.com/Ftotnem/AIRCARGO-SERVICES/shared/redis"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/registry"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadGameServiceConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(registry.GameServiceType, cfg.LogLevel, cfg.LogDir)

	if err := run(cfg, logger); err != nil {
		logger.Error("game service stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("game service gracefully shut down")
}

func run(cfg *config.GameServiceConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redisu.NewUniversalClient(ctx, cfg.RedisAddrs, cfg.RedisPassword, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("closing redis client", slog.Any("error", err))
		}
	}()

	lb, closeLeaderboard, err := openLeaderboard(ctx, cfg, rdb, logger)
	if err != nil {
		return err
	}
	defer closeLeaderboard()

	session := service.NewGameSession(cfg.Rules, lb, logger, service.WithPersistTimeout(cfg.PersistTimeout))
	dispatcher := dispatch.New(cfg.DispatcherLanes, cfg.DispatcherDepth, logger)
	wsHandler := ws.NewHandler(session, dispatcher, ws.Config{
		PingInterval: cfg.PingInterval,
		MaxPongWait:  cfg.MaxPongWait,
		SendBuffer:   cfg.SendBuffer,
	}, logger)

	registrar := registry.NewServiceRegistrar(rdb, registry.GameServiceType, cfg.CommonConfig, func() map[string]string {
		humans, bots := session.Counts()
		return map[string]string{
			"players":     strconv.Itoa(humans),
			"bots":        strconv.Itoa(bots),
			"max_players": strconv.Itoa(cfg.Rules.MaxPlayers),
		}
	}, logger)
	registryClient := registry.NewRegistryClient(rdb, cfg.HeartbeatTTL, logger)

	server := api.NewBaseServer(cfg.ListenAddr, logger)
	gameapi.NewGameAPIHandlers(lb, session, registryClient, logger).RegisterRoutes(server.Router)
	server.Router.Handle("/ws", wsHandler).Methods(http.MethodGet)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error { return session.Run(gctx) })
	g.Go(func() error { return registrar.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down game service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		// Hijacked WebSocket connections outlive server shutdown.
		wsHandler.CloseAll()
		dispatcher.Stop()
		return err
	})
	return g.Wait()
}

// openLeaderboard builds the configured leaderboard backend, wrapped in the
// read cache when enabled. The returned func releases backend resources.
func openLeaderboard(ctx context.Context, cfg *config.GameServiceConfig, rdb redis.UniversalClient, logger *slog.Logger) (store.Leaderboard, func(), error) {
	var (
		lb      store.Leaderboard
		closeFn = func() {}
	)

	switch cfg.LeaderboardBackend {
	case "mongo":
		mc, err := mongodb.NewClient(ctx, cfg.MongoDBConnStr, cfg.MongoDBDatabase, logger)
		if err != nil {
			return nil, nil, err
		}
		mlb, err := store.NewMongoLeaderboard(ctx, mc.Collection(cfg.MongoDBPlayers), mc.Collection(cfg.MongoDBCounters), cfg.RecentGamesLimit, logger)
		if err != nil {
			mc.Disconnect(context.Background())
			return nil, nil, err
		}
		lb = mlb
		closeFn = func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mc.Disconnect(dctx); err != nil {
				logger.Warn("disconnecting from MongoDB", slog.Any("error", err))
			}
		}
	default:
		lb = store.NewRedisLeaderboard(rdb, cfg.RecentGamesLimit, logger)
	}

	if cfg.LeaderboardCache > 0 {
		lb = store.NewCachedLeaderboard(lb, cfg.LeaderboardCache, cfg.LeaderboardTTL)
	}
	logger.Info("leaderboard ready",
		slog.String("backend", cfg.LeaderboardBackend),
		slog.Int("cache_size", cfg.LeaderboardCache))
	return lb, closeFn, nil
}
