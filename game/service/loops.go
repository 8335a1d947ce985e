// game/service/loops.go
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"golang.org/x/sync/errgroup"
)

// Run drives the background loops until ctx is cancelled, then stops bots and
// refueling jobs and waits for them and for pending game records.
func (s *GameSession) Run(ctx context.Context) error {
	s.log.Info("game loops starting",
		slog.Duration("monitor_interval", s.rules.MonitorInterval),
		slog.Duration("airport_interval", s.rules.AirportInterval),
		slog.Duration("bot_interval", s.rules.BotInterval),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.every(gctx, "monitor-players", s.rules.MonitorInterval, s.MonitorPlayers) })
	g.Go(func() error { return s.every(gctx, "manage-airports", s.rules.AirportInterval, s.ManageAirports) })
	g.Go(func() error { return s.every(gctx, "manage-bots", s.rules.BotInterval, s.ManageBots) })
	err := g.Wait()

	s.Shutdown()
	s.log.Info("game loops stopped")
	return err
}

// Shutdown cancels bots and refueling jobs and waits for every background
// goroutine the session started. It is safe to call more than once.
func (s *GameSession) Shutdown() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *GameSession) every(ctx context.Context, name string, interval time.Duration, tick func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.safeTick(name, tick)
		}
	}
}

// safeTick confines a panic to one iteration of a loop.
func (s *GameSession) safeTick(name string, tick func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("loop iteration panicked", slog.String("loop", name), slog.Any("panic", r))
		}
	}()
	tick()
}

// MonitorPlayers pronounces dead the players that stayed disconnected past
// PlayerTimeToConnect, ran out of fuel or fly below FlyingVelocity.
func (s *GameSession) MonitorPlayers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, p := range s.playerListLocked() {
		if p.IsBot || p.Connected() || p.Dead() {
			continue
		}
		if now-p.DisconnectedSince > ms(s.rules.PlayerTimeToConnect) {
			s.pronounceDeadLocked(p, core.DeathDisconnected)
		}
	}

	for _, p := range s.playerListLocked() {
		if p.Dead() || p.Grounded() {
			continue
		}
		switch {
		case p.Position.TankAt(now) == 0:
			s.pronounceDeadLocked(p, core.DeathRunOutOfFuel)
		case p.Position.Velocity < s.rules.FlyingVelocity:
			s.pronounceDeadLocked(p, core.DeathSpeedTooLow)
		}
	}
}

// ManageAirports sweeps expired shipments and occasionally spawns a new one.
func (s *GameSession) ManageAirports() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireShipmentsLocked()
	if s.rng.Float64() < s.rules.ShipmentSpawnProbability {
		s.spawnShipmentLocked()
	}
}

// ManageBots converges the bot pool on FillGameWithBotsTill minus the number
// of human players. Without humans the pool is emptied unless
// SpawnBotsWhenNoPlayers is set.
func (s *GameSession) ManageBots() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return
	}
	humans := s.humanCountLocked()
	target := max(s.rules.FillGameWithBotsTill-humans, 0)
	if humans == 0 && !s.rules.SpawnBotsWhenNoPlayers {
		target = 0
	}

	for delta := target - len(s.bots); delta != 0; delta = target - len(s.bots) {
		if delta > 0 {
			s.spawnBotLocked()
		} else {
			s.cullBotLocked()
		}
	}
}
