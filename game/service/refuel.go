// game/service/refuel.go
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/events"
	"github.com/google/uuid"
)

type refuelJob struct {
	playerID  uuid.UUID
	airportID uuid.UUID
	ctx       context.Context
	cancel    context.CancelFunc
}

// Refuel fills the player's tank at the airport, one step per
// RefuelingInterval, paying the airport's fuel price from the score. It blocks
// until the tank is full, the score is spent, the player departs or leaves
// the game, refueling is stopped or ctx ends. The lock is held per step only.
//
// The player always receives airport.refueling_stopped followed by its final
// position when the loop ends and the player is still in the game.
func (s *GameSession) Refuel(ctx context.Context, playerID, airportID uuid.UUID) error {
	s.mu.Lock()
	p, err := s.playerLocked(playerID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.airports[airportID]; !ok {
		s.mu.Unlock()
		return core.ErrInvalidAirport
	}
	if !p.Grounded() {
		s.mu.Unlock()
		return core.ErrRefuelingWhenFlying
	}
	if p.AirportID != airportID {
		s.mu.Unlock()
		return core.ErrInvalidOperation
	}
	if _, busy := s.refueling[p.ID]; busy {
		s.mu.Unlock()
		return core.ErrInvalidOperation
	}
	job := s.beginRefuelLocked(ctx, p)
	s.mu.Unlock()

	s.refuelLoop(job)
	return nil
}

// StartRefueling runs Refuel for the player's current airport in the
// background. It does nothing when the player is already refueling.
func (s *GameSession) StartRefueling(playerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playerLocked(playerID)
	if err != nil {
		return err
	}
	if !p.Grounded() {
		return core.ErrRefuelingWhenFlying
	}
	if _, busy := s.refueling[p.ID]; busy || s.stopping {
		return nil
	}

	job := s.beginRefuelLocked(s.ctx, p)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refuelLoop(job)
	}()
	return nil
}

// StopRefueling cancels the player's refueling, if any.
func (s *GameSession) StopRefueling(playerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playerLocked(playerID)
	if err != nil {
		return err
	}
	if !p.Grounded() {
		return core.ErrRefuelingWhenFlying
	}
	s.stopRefuelingLocked(p.ID)
	return nil
}

func (s *GameSession) stopRefuelingLocked(playerID uuid.UUID) {
	if job, ok := s.refueling[playerID]; ok {
		job.cancel()
	}
}

// beginRefuelLocked brings the tank up to date and registers the job.
func (s *GameSession) beginRefuelLocked(ctx context.Context, p *core.Player) *refuelJob {
	ts := p.Position.Settle(s.now())
	p.Position.TankLevel = p.Position.TankAt(ts)
	p.Position.Timestamp = ts

	job := &refuelJob{playerID: p.ID, airportID: p.AirportID}
	job.ctx, job.cancel = context.WithCancel(ctx)
	s.refueling[p.ID] = job
	return job
}

func (s *GameSession) refuelLoop(job *refuelJob) {
	defer s.endRefuel(job)

	ticker := time.NewTicker(s.rules.RefuelingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-job.ctx.Done():
			return
		case <-ticker.C:
			if !s.refuelStep(job) {
				return
			}
		}
	}
}

// refuelStep adds one interval worth of fuel. It reports whether refueling
// should continue.
func (s *GameSession) refuelStep(job *refuelJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ctx.Err() != nil {
		return false
	}
	p, ok := s.players[job.playerID]
	if !ok || p.AirportID != job.airportID {
		return false
	}
	a := s.airports[job.airportID]
	if p.Position.TankLevel >= s.rules.FuelTankSize {
		return false
	}
	if p.Score <= 0 {
		s.log.Debug("no score left to pay for fuel", slog.String("player_id", p.ID.String()))
		return false
	}

	added := s.rules.RefuelingInterval.Seconds() * s.rules.RefuelingRate
	price := int(a.FuelPrice * added)
	if p.Score < price {
		price = p.Score
		added = float64(price) / a.FuelPrice
	}

	now := s.now()
	p.Score -= price
	p.Position.TankLevel = min(p.Position.TankLevel+added, s.rules.FuelTankSize)
	p.Position.Timestamp = max(now, p.Position.Timestamp)

	s.broadcastLocked(events.PlayerUpdated(p, now))
	return true
}

func (s *GameSession) endRefuel(job *refuelJob) {
	job.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refueling[job.playerID] == job {
		delete(s.refueling, job.playerID)
	}
	p, ok := s.players[job.playerID]
	if !ok {
		return
	}
	now := s.now()
	s.sendLocked(p, events.RefuelingStopped(s.airports[job.airportID], p, now))
	s.sendLocked(p, events.PositionUpdated(p, now))
}
