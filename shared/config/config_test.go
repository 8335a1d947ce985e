package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadGameServiceConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadGameServiceConfig()
	if err != nil {
		t.Fatalf("LoadGameServiceConfig: %v", err)
	}
	if cfg.ListenAddr != ":8082" || cfg.ServicePort != 8082 {
		t.Errorf("listen = %q port = %d", cfg.ListenAddr, cfg.ServicePort)
	}
	if cfg.LeaderboardBackend != "redis" {
		t.Errorf("backend = %q", cfg.LeaderboardBackend)
	}
	if cfg.Rules != DefaultGameRules() {
		t.Errorf("rules = %+v, want defaults", cfg.Rules)
	}
	if cfg.PingInterval != time.Second || cfg.MaxPongWait != time.Second {
		t.Errorf("heartbeat = %v/%v", cfg.PingInterval, cfg.MaxPongWait)
	}
}

func TestLoadGameServiceConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GAME_SERVICE_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("REDIS_ADDRS", "a:1, b:2")
	t.Setenv("GAME_MAX_PLAYERS", "4")
	t.Setenv("GAME_SPAWN_BOTS_WHEN_NO_PLAYERS", "true")
	t.Setenv("GAME_REFUELING_INTERVAL", "50ms")

	cfg, err := LoadGameServiceConfig()
	if err != nil {
		t.Fatalf("LoadGameServiceConfig: %v", err)
	}
	if cfg.ServicePort != 9000 {
		t.Errorf("port = %d", cfg.ServicePort)
	}
	if len(cfg.RedisAddrs) != 2 || cfg.RedisAddrs[1] != "b:2" {
		t.Errorf("redis addrs = %v", cfg.RedisAddrs)
	}
	if cfg.Rules.MaxPlayers != 4 || !cfg.Rules.SpawnBotsWhenNoPlayers || cfg.Rules.RefuelingInterval != 50*time.Millisecond {
		t.Errorf("rules = %+v", cfg.Rules)
	}
}

func TestLoadGameServiceConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"GAME_MAX_PLAYERS", "zero"},
		{"GAME_MAX_PLAYERS", "0"},
		{"LEADERBOARD_BACKEND", "sqlite"},
		{"WS_MAX_PONG_WAIT", "2s"},
		{"GAME_SHIPMENT_SPAWN_PROBABILITY", "1.5"},
		{"GAME_SERVICE_LISTEN_ADDR", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)
			if _, err := LoadGameServiceConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadGameServiceConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GAME_FILL_WITH_BOTS_TILL=3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv sets the variable for the process; make sure it does not leak.
	t.Setenv("GAME_FILL_WITH_BOTS_TILL", "")
	os.Unsetenv("GAME_FILL_WITH_BOTS_TILL")

	cfg, err := LoadGameServiceConfig()
	if err != nil {
		t.Fatalf("LoadGameServiceConfig: %v", err)
	}
	if cfg.Rules.FillGameWithBotsTill != 3 {
		t.Fatalf("FillGameWithBotsTill = %d, want 3", cfg.Rules.FillGameWithBotsTill)
	}
}
