// game/core/shipment.go
package core

import (
	"math"
	"math/rand/v2"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/geo"
	"github.com/google/uuid"
)

const (
	ShipmentMinDeliverySeconds = 50
	ShipmentMaxDeliverySeconds = 90
	ShipmentAwardScale         = 150_000
	ShipmentJitterMin          = 0.85
	ShipmentJitterMax          = 1.15
)

// Shipment is a cargo contract between two airports. CarrierID is uuid.Nil
// while the shipment waits at its origin.
type Shipment struct {
	ID            uuid.UUID
	Name          string
	Award         int
	OriginID      uuid.UUID
	DestinationID uuid.UUID
	TimeToDeliver int64 // ms
	ValidTill     int64
	CarrierID     uuid.UUID
}

// NewShipment draws a random cargo between origin and destination, valid for
// 50 to 90 seconds from now.
func NewShipment(rng *rand.Rand, origin, destination *Airport, now int64) *Shipment {
	ttd := int64(ShipmentMinDeliverySeconds+rng.IntN(ShipmentMaxDeliverySeconds-ShipmentMinDeliverySeconds+1)) * 1000
	jitter := ShipmentJitterMin + rng.Float64()*(ShipmentJitterMax-ShipmentJitterMin)
	distance := geo.Distance(origin.Coordinates, destination.Coordinates)

	return &Shipment{
		ID:            uuid.New(),
		Name:          ShipmentNames[rng.IntN(len(ShipmentNames))],
		Award:         ShipmentAward(distance, ttd, jitter),
		OriginID:      origin.ID,
		DestinationID: destination.ID,
		TimeToDeliver: ttd,
		ValidTill:     now + ttd,
	}
}

// ShipmentAward pays for speed: distance (km) over delivery budget (ms),
// scaled and jittered.
func ShipmentAward(distance float64, timeToDeliver int64, jitter float64) int {
	return int(math.Round(distance / float64(timeToDeliver) * jitter * ShipmentAwardScale))
}

// Expired reports whether the shipment is past its validity plus grace ms.
func (s *Shipment) Expired(now, grace int64) bool {
	return s.ValidTill+grace < now
}
