// game/core/position.go
package core

import (
	"math"
	"math/rand/v2"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/geo"
)

// Fuel curve balancing knobs. Consumption in liters per hour is
// 2^(FuelCurveCoefficient * scaled) * FuelCurveMultiplier * 3600 where scaled
// maps [0, maxVelocity] linearly onto [FuelCurveLower, FuelCurveUpper].
// FuelCurveMaxVelocity is the scale used when no game max velocity is known.
const (
	FuelCurveMaxVelocity = 2_000_000
	FuelCurveUpper       = 15.0
	FuelCurveLower       = 2.0
	FuelCurveCoefficient = 0.28
	FuelCurveMultiplier  = 43.0
)

const msPerHour = 3_600_000

// Position is the kinematic state of a plane, valid at Timestamp (unix ms).
// Velocity is in km/h, TankLevel in liters. MaxVelocity is the top of the
// fuel curve; zero means FuelCurveMaxVelocity.
type Position struct {
	Coordinates geo.Coordinates
	Bearing     float64
	Velocity    int
	MaxVelocity int
	TankLevel   float64
	Timestamp   int64
}

// RandomPosition places a plane uniformly on the map with a random heading.
// maxVelocity scales the plane's fuel curve.
func RandomPosition(rng *rand.Rand, now int64, velocity, maxVelocity int, tank float64) Position {
	return Position{
		Coordinates: geo.Coordinates{
			Lat: -90 + rng.Float64()*180,
			Lon: -180 + rng.Float64()*360,
		}.Normalized(),
		Bearing:     rng.Float64() * 359,
		Velocity:    velocity,
		MaxVelocity: maxVelocity,
		TankLevel:   tank,
		Timestamp:   now,
	}
}

// FuelConsumption returns the burn rate in liters per hour at velocity v on a
// curve topping out at maxVelocity. A non-positive maxVelocity falls back to
// FuelCurveMaxVelocity.
func FuelConsumption(v, maxVelocity int) int {
	if v <= 0 {
		return 0
	}
	if maxVelocity <= 0 {
		maxVelocity = FuelCurveMaxVelocity
	}
	scaled := float64(v)/(float64(maxVelocity)/(FuelCurveUpper-FuelCurveLower)) + FuelCurveLower
	return int(math.Pow(2, FuelCurveCoefficient*scaled) * FuelCurveMultiplier * 3600)
}

// FuelConsumption is the burn rate at the current velocity.
func (p Position) FuelConsumption() int {
	return FuelConsumption(p.Velocity, p.MaxVelocity)
}

// TankAt projects the tank level to ts, never below zero. Times before
// Timestamp report the current level: burnt fuel is never refunded.
func (p Position) TankAt(ts int64) float64 {
	if ts <= p.Timestamp {
		return p.TankLevel
	}
	dt := float64(ts - p.Timestamp)
	return math.Max(p.TankLevel-dt*float64(p.FuelConsumption())/msPerHour, 0)
}

// Settle returns the time server-side changes to the plane are stamped with:
// now, or the reported timestamp when the client is slightly ahead of the
// server clock. Trajectories never move backwards.
func (p Position) Settle(now int64) int64 {
	return max(now, p.Timestamp)
}

// Advance dead-reckons the position to ts along the current bearing at the
// current velocity. The receiver is left untouched.
func (p Position) Advance(ts int64) Position {
	dt := float64(ts - p.Timestamp)
	distance := float64(p.Velocity) * dt / msPerHour
	next := p
	next.Coordinates = geo.Project(p.Coordinates, distance, p.Bearing)
	next.TankLevel = p.TankAt(ts)
	next.Timestamp = ts
	return next
}

// AdvanceSmoothed is Advance with the bearing re-derived from the travelled
// great-circle segment, so headings follow the curvature of long legs.
func (p Position) AdvanceSmoothed(ts int64) Position {
	next := p.Advance(ts)
	back := geo.Bearing(next.Coordinates, p.Coordinates)
	forward := geo.Bearing(p.Coordinates, next.Coordinates)
	if next.Coordinates == p.Coordinates {
		forward, back = p.Bearing, geo.NormalizeBearing(p.Bearing+180)
	}
	diff := geo.NormalizeBearing(back-180) - forward
	next.Bearing = geo.NormalizeBearing(p.Bearing + diff)
	return next
}
