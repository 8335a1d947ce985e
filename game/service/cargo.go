// game/service/cargo.go
package service

import (
	"log/slog"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/events"
	"github.com/google/uuid"
)

// DispatchShipment loads a shipment waiting at the player's airport.
func (s *GameSession) DispatchShipment(playerID, shipmentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playerLocked(playerID)
	if err != nil {
		return err
	}
	if !p.Grounded() {
		return core.ErrShipmentOperationWhenFlying
	}
	a := s.airports[p.AirportID]
	if _, err := a.Dispatch(shipmentID, p); err != nil {
		return err
	}

	now := s.now()
	s.broadcastLocked(events.PlayerUpdated(p, now))
	s.broadcastLocked(events.AirportUpdated(a, now))
	return nil
}

// DeliverShipment unloads the carried shipment at its destination and credits
// its award.
func (s *GameSession) DeliverShipment(playerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playerLocked(playerID)
	if err != nil {
		return err
	}
	if !p.Grounded() {
		return core.ErrShipmentOperationWhenFlying
	}
	a := s.airports[p.AirportID]
	now := s.now()
	sh, err := a.AcceptDelivery(p, now)
	if err != nil {
		return err
	}
	delete(s.shipments, sh.ID)

	s.sendLocked(p, events.ShipmentDelivered(sh, now))
	s.broadcastLocked(events.PlayerUpdated(p, now))
	s.log.Debug("shipment delivered", slog.String("player_id", p.ID.String()), slog.Int("award", sh.Award))
	return nil
}

// expireShipmentsLocked drops shipments past their validity plus grace from
// the table and from whichever airport or carrier holds them.
func (s *GameSession) expireShipmentsLocked() {
	now := s.now()
	grace := ms(s.rules.ShipmentExpiryGrace)

	for id, sh := range s.shipments {
		if !sh.Expired(now, grace) {
			continue
		}
		delete(s.shipments, id)

		if p, ok := s.players[sh.CarrierID]; ok && p.Shipment == sh {
			p.Shipment = nil
			s.broadcastLocked(events.PlayerUpdated(p, now))
		}
		if a, ok := s.airports[sh.OriginID]; ok {
			if _, waiting := a.Shipments[id]; waiting {
				delete(a.Shipments, id)
				s.broadcastLocked(events.AirportUpdated(a, now))
			}
		}
	}
}

// spawnShipmentLocked adds a shipment between two distinct random airports
// unless the game already holds MaxShipmentsInGame.
func (s *GameSession) spawnShipmentLocked() *core.Shipment {
	if len(s.shipments) >= s.rules.MaxShipmentsInGame || len(s.airportList) < 2 {
		return nil
	}
	i := s.rng.IntN(len(s.airportList))
	j := s.rng.IntN(len(s.airportList) - 1)
	if j >= i {
		j++
	}
	origin, destination := s.airportList[i], s.airportList[j]

	now := s.now()
	sh := core.NewShipment(s.rng, origin, destination, now)
	s.shipments[sh.ID] = sh
	origin.Shipments[sh.ID] = sh

	s.broadcastLocked(events.AirportUpdated(origin, now))
	return sh
}
