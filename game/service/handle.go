// game/service/handle.go
package service

import (
	"fmt"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/events"
	"github.com/google/uuid"
)

// HandleEvent applies one decoded client request on behalf of the player.
// A returned error means the request was rejected before any state changed.
func (s *GameSession) HandleEvent(playerID uuid.UUID, req events.Request) error {
	switch r := req.(type) {
	case events.PositionUpdateRequest:
		return s.UpdatePosition(playerID, r.Timestamp, r.Velocity, r.Bearing)
	case events.LandingRequest:
		return s.Land(playerID, r.AirportID)
	case events.DepartureRequest:
		_, err := s.Depart(playerID, r.AirportID)
		return err
	case events.ShipmentDispatchRequest:
		return s.DispatchShipment(playerID, r.ShipmentID)
	case events.ShipmentDeliveryRequest:
		return s.DeliverShipment(playerID)
	case events.RefuelingStartRequest:
		return s.StartRefueling(playerID)
	case events.RefuelingEndRequest:
		return s.StopRefueling(playerID)
	default:
		return fmt.Errorf("%w: unhandled request %T", core.ErrInvalidEventFormat, req)
	}
}
