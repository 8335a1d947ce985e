// game/service/flight.go
package service

import (
	"math"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/events"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/geo"
	"github.com/google/uuid"
)

// UpdatePosition accepts a client's flight state at timestamp ts. The server
// never rewinds a trajectory: ts must be newer than the last known position
// and at most MaxFutureTimeDeviation ahead of the server clock.
func (s *GameSession) UpdatePosition(playerID uuid.UUID, ts int64, velocity int, bearing float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playerLocked(playerID)
	if err != nil {
		return err
	}
	switch {
	case p.Grounded():
		return core.ErrCantFlyWhenGrounded
	case ts <= p.Position.Timestamp:
		return core.ErrChangingPastPosition
	case ts > s.now()+ms(s.rules.MaxFutureTimeDeviation):
		return core.ErrChangingFuturePosition
	case velocity < s.rules.MinVelocity || velocity > s.rules.MaxVelocity:
		return core.ErrInvalidVelocity
	case math.IsNaN(bearing) || math.IsInf(bearing, 0):
		return core.ErrInvalidBearing
	}

	next := p.Position.Advance(ts)
	next.Velocity = velocity
	next.Bearing = geo.NormalizeBearing(bearing)
	p.Position = next

	s.broadcastLocked(events.PositionUpdated(p, s.now()))
	return nil
}

// Land parks the player at the airport. Landing again where the player is
// already parked succeeds without side effects.
func (s *GameSession) Land(playerID, airportID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playerLocked(playerID)
	if err != nil {
		return err
	}
	a, ok := s.airports[airportID]
	if !ok {
		return core.ErrInvalidAirport
	}
	if a.OccupantID == p.ID {
		return nil
	}
	if p.Grounded() {
		return core.ErrInvalidOperation
	}

	now := s.now()
	if err := a.Land(p, now, s.rules.AirportMaxDistanceToLand); err != nil {
		return err
	}
	s.broadcastLocked(events.AirportUpdated(a, now))
	s.broadcastLocked(events.PositionUpdated(p, now))
	return nil
}

// Depart takes the occupant off the airport at DepartureVelocity and stops any
// refueling. It reports false, changing nothing, when the player is not the
// airport's occupant.
func (s *GameSession) Depart(playerID, airportID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playerLocked(playerID)
	if err != nil {
		return false, err
	}
	a, ok := s.airports[airportID]
	if !ok {
		return false, core.ErrInvalidAirport
	}

	now := s.now()
	if !a.Release(p, now, s.rules.DepartureVelocity) {
		return false, nil
	}
	s.stopRefuelingLocked(p.ID)
	s.broadcastLocked(events.AirportUpdated(a, now))
	s.broadcastLocked(events.PositionUpdated(p, now))
	return true, nil
}
