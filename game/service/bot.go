// game/service/bot.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/events"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/geo"
	"github.com/google/uuid"
)

// Autopilot tuning.
const (
	botArrivalDistance = 100.0 // km
	botMaxTurn         = 2.0   // degrees per step
	botVelocityStep    = 10_000
	botMinSleep        = 50 * time.Millisecond
	botMaxSleep        = 3 * time.Second
)

type bot struct {
	cancel  context.CancelFunc
	created int64
	seq     uint64
}

func (s *GameSession) spawnBotLocked() {
	now := s.now()
	pos := core.RandomPosition(s.rng, now, s.rules.StartVelocity, s.rules.MaxVelocity, s.rules.FuelTankSize)
	p := core.NewPlayer(s.pickBotNameLocked(), newToken(), s.pickColorLocked(), true, pos)
	s.players[p.ID] = p

	ctx, cancel := context.WithCancel(s.ctx)
	s.botSeq++
	s.bots[p.ID] = &bot{cancel: cancel, created: now, seq: s.botSeq}
	s.broadcastLocked(events.PlayerRegistered(p, now))
	s.log.Debug("bot spawned", slog.String("player_id", p.ID.String()), slog.String("nickname", p.Nickname))

	s.wg.Add(1)
	go s.runBot(ctx, p.ID)
}

// cullBotLocked retires the oldest bot. Its loop removes the player.
func (s *GameSession) cullBotLocked() {
	var (
		oldestID uuid.UUID
		oldest   *bot
	)
	for id, b := range s.bots {
		if oldest == nil || b.created < oldest.created || (b.created == oldest.created && b.seq < oldest.seq) {
			oldestID, oldest = id, b
		}
	}
	if oldest == nil {
		return
	}
	delete(s.bots, oldestID)
	oldest.cancel()
}

func (s *GameSession) pickBotNameLocked() string {
	used := make(map[string]bool, len(s.players))
	for _, p := range s.players {
		if p.IsBot {
			used[p.Nickname] = true
		}
	}
	free := make([]string, 0, len(core.BotNames))
	for _, name := range core.BotNames {
		if !used[name] {
			free = append(free, name)
		}
	}
	if len(free) == 0 {
		return fmt.Sprintf("Bot-%d", s.botSeq+1)
	}
	return free[s.rng.IntN(len(free))]
}

// runBot flies the bot from airport to airport until it leaves the bot pool,
// then takes it out of the game.
func (s *GameSession) runBot(ctx context.Context, id uuid.UUID) {
	defer s.wg.Done()
	defer func() {
		if err := s.RemovePlayer(id); err != nil && !errors.Is(err, core.ErrPlayerNotFound) {
			s.log.Warn("removing bot", slog.String("player_id", id.String()), slog.Any("error", err))
		}
	}()
	log := s.log.With(slog.String("bot_id", id.String()))

	for ctx.Err() == nil {
		airportID, coords, ok := s.botDestination(id)
		if !ok {
			return
		}
		if !s.flyBot(ctx, id, coords) {
			return
		}
		s.visitAirport(ctx, log, id, airportID)
	}
}

// botDestination picks the carried shipment's destination, or any airport.
func (s *GameSession) botDestination(id uuid.UUID) (uuid.UUID, geo.Coordinates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return uuid.Nil, geo.Coordinates{}, false
	}
	a := s.airportList[s.rng.IntN(len(s.airportList))]
	if p.Shipment != nil {
		if dest, ok := s.airports[p.Shipment.DestinationID]; ok {
			a = dest
		}
	}
	return a.ID, a.Coordinates, true
}

func (s *GameSession) botPosition(id uuid.UUID) (core.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return core.Position{}, false
	}
	return p.Position, true
}

// flyBot steers toward target until within botArrivalDistance. It reports
// false when the bot was retired on the way.
func (s *GameSession) flyBot(ctx context.Context, id uuid.UUID, target geo.Coordinates) bool {
	for {
		last, ok := s.botPosition(id)
		if !ok {
			return false
		}
		now := s.now() + 1
		current := last.AdvanceSmoothed(now)

		distance := geo.Distance(current.Coordinates, target)
		if distance <= botArrivalDistance {
			return true
		}

		turn, offCourse := steer(current.Bearing, geo.Bearing(current.Coordinates, target))
		velocity := last.Velocity + botVelocityStep
		if offCourse > 90 {
			velocity = last.Velocity - botVelocityStep
		}
		velocity = min(max(velocity, s.rules.FlyingVelocity), s.rules.MaxVelocity)

		if err := s.UpdatePosition(id, now, velocity, current.Bearing+turn); err != nil {
			s.log.Debug("bot position rejected", slog.String("bot_id", id.String()), slog.Any("error", err))
		}

		sleep := botMinSleep
		if math.Abs(turn) < 0.01 && velocity == s.rules.MaxVelocity {
			remaining := max(distance-botArrivalDistance*1.1, 0)
			sleep = time.Duration(remaining / float64(velocity) * 3600 * float64(time.Second))
			sleep = min(max(sleep, botMinSleep), botMaxSleep)
		}
		if !sleepCtx(ctx, sleep) {
			return false
		}
	}
}

// steer returns the signed turn toward ideal, capped at botMaxTurn and taking
// the shorter way round, together with the unsigned heading error.
func steer(current, ideal float64) (turn, offCourse float64) {
	left := math.Mod(360-ideal+current, 360)
	right := math.Mod(360-current+ideal, 360)
	offCourse = min(left, right)
	turn = min(botMaxTurn, offCourse)
	if left < right {
		turn = -turn
	}
	return turn, offCourse
}

// visitAirport lands, trades, refuels, idles and takes off again.
func (s *GameSession) visitAirport(ctx context.Context, log *slog.Logger, id, airportID uuid.UUID) {
	if err := s.Land(id, airportID); err != nil {
		log.Debug("bot landing failed", slog.Any("error", err))
		return
	}
	arrival := time.Now()

	if s.botCarries(id) {
		if err := s.DeliverShipment(id); err != nil && !errors.Is(err, core.ErrShipmentExpired) {
			log.Debug("bot delivery failed", slog.Any("error", err))
		}
	}
	if err := s.Refuel(ctx, id, airportID); err != nil {
		log.Debug("bot refueling failed", slog.Any("error", err))
	}
	if !sleepCtx(ctx, s.rules.BotIdleTime-time.Since(arrival)) {
		return
	}

	if shipmentID, ok := s.pickShipment(airportID); ok {
		if err := s.DispatchShipment(id, shipmentID); err != nil {
			log.Debug("bot dispatch failed", slog.Any("error", err))
		}
	}
	if _, err := s.Depart(id, airportID); err != nil {
		log.Debug("bot departure failed", slog.Any("error", err))
	}
}

func (s *GameSession) botCarries(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	return ok && p.Shipment != nil
}

func (s *GameSession) pickShipment(airportID uuid.UUID) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.airports[airportID]
	if !ok || len(a.Shipments) == 0 {
		return uuid.Nil, false
	}
	n := s.rng.IntN(len(a.Shipments))
	for id := range a.Shipments {
		if n == 0 {
			return id, true
		}
		n--
	}
	return uuid.Nil, false
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
