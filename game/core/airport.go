// game/core/airport.go
package core

import (
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/geo"
	"github.com/google/uuid"
)

// Airport is a landing spot holding at most one plane and a set of shipments
// waiting for pickup.
type Airport struct {
	ID          uuid.UUID
	Name        string
	FullName    string
	Description string
	Coordinates geo.Coordinates
	Elevation   float64 // km
	FuelPrice   float64 // score per liter
	OccupantID  uuid.UUID
	Shipments   map[uuid.UUID]*Shipment
}

// NewAirport creates an empty airport with a fresh id.
func NewAirport(name, fullName, description string, coords geo.Coordinates, elevation, fuelPrice float64) *Airport {
	return &Airport{
		ID:          uuid.New(),
		Name:        name,
		FullName:    fullName,
		Description: description,
		Coordinates: coords,
		Elevation:   elevation,
		FuelPrice:   fuelPrice,
		Shipments:   make(map[uuid.UUID]*Shipment),
	}
}

func (a *Airport) Occupied() bool {
	return a.OccupantID != uuid.Nil
}

// Land parks p at the airport. The plane is dead-reckoned to now, or kept at
// its reported time when that is later, and must be within maxDistance km. On success the plane sits exactly on the airport with
// zero velocity and both sides of the occupancy link are set.
func (a *Airport) Land(p *Player, now int64, maxDistance float64) error {
	current := p.Position.Advance(p.Position.Settle(now))
	if geo.Distance(current.Coordinates, a.Coordinates) > maxDistance {
		return ErrTooFarToLand
	}
	if a.Occupied() {
		return ErrAirportFull
	}

	current.Coordinates = a.Coordinates
	current.Velocity = 0
	p.Position = current
	p.AirportID = a.ID
	a.OccupantID = p.ID
	return nil
}

// Release lets the occupant take off at velocity. It reports false and changes
// nothing when p is not the occupant.
func (a *Airport) Release(p *Player, now int64, velocity int) bool {
	if a.OccupantID != p.ID {
		return false
	}
	a.OccupantID = uuid.Nil
	p.AirportID = uuid.Nil

	ts := p.Position.Settle(now)
	p.Position.TankLevel = p.Position.TankAt(ts)
	p.Position.Coordinates = a.Coordinates
	p.Position.Velocity = velocity
	p.Position.Timestamp = ts
	return true
}

// Evict clears the occupancy link without touching the plane, used when the
// occupant leaves the game.
func (a *Airport) Evict(p *Player) {
	if a.OccupantID == p.ID {
		a.OccupantID = uuid.Nil
		p.AirportID = uuid.Nil
	}
}

// Dispatch hands a waiting shipment to the occupant.
func (a *Airport) Dispatch(shipmentID uuid.UUID, p *Player) (*Shipment, error) {
	if a.OccupantID != p.ID || p.Shipment != nil {
		return nil, ErrInvalidOperation
	}
	s, ok := a.Shipments[shipmentID]
	if !ok {
		return nil, ErrShipmentNotFound
	}

	delete(a.Shipments, shipmentID)
	s.CarrierID = p.ID
	p.Shipment = s
	return s, nil
}

// AcceptDelivery takes the occupant's shipment if it is destined here and still
// valid, and credits its award.
func (a *Airport) AcceptDelivery(p *Player, now int64) (*Shipment, error) {
	if a.OccupantID != p.ID {
		return nil, ErrInvalidOperation
	}
	s := p.Shipment
	if s == nil {
		return nil, ErrShipmentNotFound
	}
	if s.DestinationID != a.ID {
		return nil, ErrShipmentDestinationInvalid
	}
	if s.ValidTill < now {
		return nil, ErrShipmentExpired
	}

	p.Score += s.Award
	p.Shipment = nil
	p.ShipmentsDelivered++
	s.CarrierID = uuid.Nil
	return s, nil
}
