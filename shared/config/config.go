// shared/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CommonConfig holds configuration fields that are shared across multiple services.
type CommonConfig struct {
	RedisAddrs              []string      // Redis server addresses (e.g., "redis:6379"); more than one selects cluster mode
	RedisPassword           string        // Redis password for authentication
	HeartbeatInterval       time.Duration // How often to send a heartbeat to the registry (e.g., 5s)
	HeartbeatTTL            time.Duration // How long an instance is considered alive without a heartbeat (e.g., 15s)
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries (e.g., 30s)
	ServiceIP               string        // The IP address this service advertises for registration (Kubernetes Pod IP)
	ServicePort             int           // The port this service listens on, used for registration
	LogLevel                string        // debug, info, warn or error
	LogDir                  string        // Directory for rotated log files; empty logs to stderr
}

// GameServiceConfig holds configuration specific to the game-service.
type GameServiceConfig struct {
	CommonConfig                     // Embed CommonConfig
	ListenAddr         string        // Address for the HTTP server (e.g., ":8082")
	LeaderboardBackend string        // "redis" or "mongo"
	MongoDBConnStr     string        // MongoDB connection string, used by the mongo backend
	MongoDBDatabase    string        // MongoDB database name
	MongoDBPlayers     string        // Collection holding leaderboard players
	MongoDBCounters    string        // Collection holding nickname counters
	RecentGamesLimit   int           // Size of the per-player recent games window
	LeaderboardCache   int           // Entries kept by the leaderboard read cache, 0 disables it
	LeaderboardTTL     time.Duration // Lifetime of cached leaderboard reads
	DispatcherLanes    int           // Worker lanes serving connection messages
	DispatcherDepth    int           // Queue depth per lane
	PingInterval       time.Duration // WebSocket heartbeat ping interval
	MaxPongWait        time.Duration // Maximum wait for the pong answering a ping
	SendBuffer         int           // Outbound messages buffered per connection
	PersistTimeout     time.Duration // Timeout for storing a finished game
	Rules              GameRules
}

// GameRules are the gameplay tuning values of a game session.
type GameRules struct {
	MaxPlayers               int
	PlayerTimeToConnect      time.Duration // grace period for disconnected players
	MaxShipmentsInGame       int
	MinVelocity              int // km/h
	MaxVelocity              int // km/h
	FlyingVelocity           int // velocity under which a plane crashes
	StartVelocity            int
	DepartureVelocity        int
	AirportMaxDistanceToLand float64 // km
	FuelTankSize             float64 // liters
	RefuelingRate            float64 // liters per second
	RefuelingInterval        time.Duration
	FuelPriceFactor          float64
	MaxFutureTimeDeviation   time.Duration
	ShipmentSpawnProbability float64 // per airport tick
	ShipmentExpiryGrace      time.Duration
	MonitorInterval          time.Duration
	AirportInterval          time.Duration
	BotInterval              time.Duration
	FillGameWithBotsTill     int
	SpawnBotsWhenNoPlayers   bool
	BotIdleTime              time.Duration
}

// DefaultGameRules returns the rules the game is balanced for.
func DefaultGameRules() GameRules {
	return GameRules{
		MaxPlayers:               16,
		PlayerTimeToConnect:      10 * time.Second,
		MaxShipmentsInGame:       60,
		MinVelocity:              0,
		MaxVelocity:              2_000_000,
		FlyingVelocity:           50_000,
		StartVelocity:            500_000,
		DepartureVelocity:        500_000,
		AirportMaxDistanceToLand: 500,
		FuelTankSize:             100_000,
		RefuelingRate:            3500,
		RefuelingInterval:        200 * time.Millisecond,
		FuelPriceFactor:          0.3,
		MaxFutureTimeDeviation:   500 * time.Millisecond,
		ShipmentSpawnProbability: 0.085,
		ShipmentExpiryGrace:      3 * time.Second,
		MonitorInterval:          200 * time.Millisecond,
		AirportInterval:          200 * time.Millisecond,
		BotInterval:              time.Second,
		FillGameWithBotsTill:     10,
		SpawnBotsWhenNoPlayers:   false,
		BotIdleTime:              5 * time.Second,
	}
}

// Validate reports rule combinations the engine cannot run with.
func (r GameRules) Validate() error {
	switch {
	case r.MaxPlayers <= 0:
		return fmt.Errorf("GAME_MAX_PLAYERS must be positive (got %d)", r.MaxPlayers)
	case r.MinVelocity < 0 || r.MaxVelocity <= r.MinVelocity:
		return fmt.Errorf("invalid velocity range [%d, %d]", r.MinVelocity, r.MaxVelocity)
	case r.FlyingVelocity > r.MaxVelocity:
		return fmt.Errorf("GAME_FLYING_VELOCITY (%d) exceeds GAME_MAX_VELOCITY (%d)", r.FlyingVelocity, r.MaxVelocity)
	case r.FuelTankSize <= 0 || r.RefuelingRate <= 0:
		return fmt.Errorf("fuel tank size and refueling rate must be positive")
	case r.MonitorInterval <= 0 || r.AirportInterval <= 0 || r.BotInterval <= 0 || r.RefuelingInterval <= 0:
		return fmt.Errorf("loop intervals must be positive")
	case r.ShipmentSpawnProbability < 0 || r.ShipmentSpawnProbability > 1:
		return fmt.Errorf("GAME_SHIPMENT_SPAWN_PROBABILITY must be within [0, 1] (got %v)", r.ShipmentSpawnProbability)
	}
	return nil
}

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{}
	var err error

	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"localhost:6379"}
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				cfg.RedisAddrs = append(cfg.RedisAddrs, addr)
			}
		}
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	// Injected by Kubernetes; local runs advertise every interface.
	cfg.ServiceIP = os.Getenv("POD_IP")
	if cfg.ServiceIP == "" {
		cfg.ServiceIP = "0.0.0.0"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogDir = os.Getenv("LOG_DIR")

	return cfg, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

func getFloat(envKey string, defaultVal float64) (float64, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number format for %s: %w", envKey, err)
	}
	return f, nil
}

func getBool(envKey string, defaultVal bool) (bool, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("invalid boolean format for %s: %w", envKey, err)
	}
	return b, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8082" -> 8082, "0.0.0.0:8082" -> 8082)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}

// loadDotEnv reads variables from a .env file when one is present. Variables
// already set in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadGameRules loads the gameplay rules, starting from DefaultGameRules.
func LoadGameRules() (GameRules, error) {
	r := DefaultGameRules()
	var err error

	ints := []struct {
		key string
		dst *int
	}{
		{"GAME_MAX_PLAYERS", &r.MaxPlayers},
		{"GAME_MAX_SHIPMENTS", &r.MaxShipmentsInGame},
		{"GAME_MIN_VELOCITY", &r.MinVelocity},
		{"GAME_MAX_VELOCITY", &r.MaxVelocity},
		{"GAME_FLYING_VELOCITY", &r.FlyingVelocity},
		{"GAME_START_VELOCITY", &r.StartVelocity},
		{"GAME_DEPARTURE_VELOCITY", &r.DepartureVelocity},
		{"GAME_FILL_WITH_BOTS_TILL", &r.FillGameWithBotsTill},
	}
	for _, f := range ints {
		if *f.dst, err = getInt(f.key, *f.dst); err != nil {
			return r, err
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"GAME_LANDING_DISTANCE", &r.AirportMaxDistanceToLand},
		{"GAME_FUEL_TANK_SIZE", &r.FuelTankSize},
		{"GAME_REFUELING_RATE", &r.RefuelingRate},
		{"GAME_FUEL_PRICE_FACTOR", &r.FuelPriceFactor},
		{"GAME_SHIPMENT_SPAWN_PROBABILITY", &r.ShipmentSpawnProbability},
	}
	for _, f := range floats {
		if *f.dst, err = getFloat(f.key, *f.dst); err != nil {
			return r, err
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"GAME_PLAYER_TIME_TO_CONNECT", &r.PlayerTimeToConnect},
		{"GAME_REFUELING_INTERVAL", &r.RefuelingInterval},
		{"GAME_MAX_FUTURE_TIME_DEVIATION", &r.MaxFutureTimeDeviation},
		{"GAME_SHIPMENT_EXPIRY_GRACE", &r.ShipmentExpiryGrace},
		{"GAME_MONITOR_INTERVAL", &r.MonitorInterval},
		{"GAME_AIRPORT_INTERVAL", &r.AirportInterval},
		{"GAME_BOT_INTERVAL", &r.BotInterval},
		{"GAME_BOT_IDLE_TIME", &r.BotIdleTime},
	}
	for _, f := range durations {
		if *f.dst, err = getDuration(f.key, *f.dst); err != nil {
			return r, err
		}
	}

	if r.SpawnBotsWhenNoPlayers, err = getBool("GAME_SPAWN_BOTS_WHEN_NO_PLAYERS", r.SpawnBotsWhenNoPlayers); err != nil {
		return r, err
	}

	return r, r.Validate()
}

// LoadGameServiceConfig loads configuration for the game-service.
func LoadGameServiceConfig() (*GameServiceConfig, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for game-service: %w", err)
	}

	cfg := &GameServiceConfig{
		CommonConfig:       common,
		ListenAddr:         os.Getenv("GAME_SERVICE_LISTEN_ADDR"),
		LeaderboardBackend: strings.ToLower(os.Getenv("LEADERBOARD_BACKEND")),
		MongoDBConnStr:     os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:    os.Getenv("MONGODB_DATABASE"),
		MongoDBPlayers:     os.Getenv("MONGODB_PLAYERS_COLLECTION"),
		MongoDBCounters:    os.Getenv("MONGODB_COUNTERS_COLLECTION"),
	}

	// Apply defaults for specific fields if not set
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8082"
	}
	if cfg.LeaderboardBackend == "" {
		cfg.LeaderboardBackend = "redis"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://localhost:27017"
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "aircargo"
	}
	if cfg.MongoDBPlayers == "" {
		cfg.MongoDBPlayers = "players"
	}
	if cfg.MongoDBCounters == "" {
		cfg.MongoDBCounters = "nickname_counters"
	}
	if cfg.LeaderboardBackend != "redis" && cfg.LeaderboardBackend != "mongo" {
		return nil, fmt.Errorf("LEADERBOARD_BACKEND must be 'redis' or 'mongo' (got %q)", cfg.LeaderboardBackend)
	}

	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from GAME_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	if cfg.RecentGamesLimit, err = getInt("LEADERBOARD_RECENT_GAMES", 10); err != nil {
		return nil, err
	}
	if cfg.LeaderboardCache, err = getInt("LEADERBOARD_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.LeaderboardTTL, err = getDuration("LEADERBOARD_CACHE_TTL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.DispatcherLanes, err = getInt("DISPATCHER_LANES", 64); err != nil {
		return nil, err
	}
	if cfg.DispatcherDepth, err = getInt("DISPATCHER_DEPTH", 128); err != nil {
		return nil, err
	}
	if cfg.PingInterval, err = getDuration("WS_PING_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxPongWait, err = getDuration("WS_MAX_PONG_WAIT", time.Second); err != nil {
		return nil, err
	}
	if cfg.SendBuffer, err = getInt("WS_SEND_BUFFER", 256); err != nil {
		return nil, err
	}
	if cfg.PersistTimeout, err = getDuration("GAME_PERSIST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	if cfg.RecentGamesLimit <= 0 {
		return nil, fmt.Errorf("LEADERBOARD_RECENT_GAMES must be a positive integer (got %d)", cfg.RecentGamesLimit)
	}
	if cfg.DispatcherLanes <= 0 || cfg.DispatcherDepth <= 0 {
		return nil, fmt.Errorf("DISPATCHER_LANES and DISPATCHER_DEPTH must be positive")
	}
	if cfg.MaxPongWait > cfg.PingInterval {
		return nil, fmt.Errorf("WS_MAX_PONG_WAIT (%v) must not exceed WS_PING_INTERVAL (%v)", cfg.MaxPongWait, cfg.PingInterval)
	}

	cfg.Rules, err = LoadGameRules()
	if err != nil {
		return nil, fmt.Errorf("invalid game rules: %w", err)
	}

	return cfg, nil
}
