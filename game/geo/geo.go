// game/geo/geo.go
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const (
	EarthRadius    = 6371.0 // km
	FlightAltitude = 200.0  // km

	// EffectiveRadius is the radius of the sphere planes fly on. All distances in
	// the game are measured on it, in kilometers.
	EffectiveRadius = EarthRadius + FlightAltitude
)

// orb works on a sphere of orb.EarthRadius meters. Angular distances are the
// same on every sphere, so results are rescaled between the two radii.
const orbScale = orb.EarthRadius / EffectiveRadius

// Coordinates is an immutable latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Normalized returns the coordinates with longitude wrapped into [-180, 180)
// and latitude clamped into [-90, 90].
func (c Coordinates) Normalized() Coordinates {
	return Coordinates{
		Lat: math.Max(-90, math.Min(90, c.Lat)),
		Lon: NormalizeLongitude(c.Lon),
	}
}

// NormalizeLongitude wraps lon into [-180, 180).
func NormalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// NormalizeBearing wraps a bearing in degrees into [0, 360).
func NormalizeBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

// Distance is the haversine great-circle distance between a and b in km.
func Distance(a, b Coordinates) float64 {
	d := orbgeo.DistanceHaversine(a.point(), b.point())
	if math.IsNaN(d) {
		// rounding pushed the haversine term past 1 for antipodal points
		return math.Pi * EffectiveRadius
	}
	return d / orbScale
}

// Bearing is the initial great-circle bearing from a to b in [0, 360).
func Bearing(a, b Coordinates) float64 {
	return NormalizeBearing(orbgeo.Bearing(a.point(), b.point()))
}

// Project returns the point reached by travelling distance km from origin
// along the given initial bearing.
func Project(origin Coordinates, distance, bearing float64) Coordinates {
	p := orbgeo.PointAtBearingAndDistance(origin.point(), bearing, distance*orbScale)
	return Coordinates{Lat: p[1], Lon: p[0]}.Normalized()
}
