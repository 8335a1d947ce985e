package core

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/geo"
	"github.com/google/uuid"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestFuelConsumptionMonotonic(t *testing.T) {
	if got := FuelConsumption(0, FuelCurveMaxVelocity); got != 0 {
		t.Fatalf("FuelConsumption(0) = %d, want 0", got)
	}
	prev := 0
	for v := 10_000; v <= 2_000_000; v += 10_000 {
		c := FuelConsumption(v, FuelCurveMaxVelocity)
		if c <= prev {
			t.Fatalf("FuelConsumption(%d) = %d, not above %d", v, c, prev)
		}
		prev = c
	}
	// reference point of the curve: 2^(0.28*2) * 43 * 3600 at the lowest speeds
	if got, want := FuelConsumption(1, 0), int(math.Pow(2, 0.28*(1.0/(2_000_000.0/13)+2))*43*3600); got != want {
		t.Errorf("FuelConsumption(1) = %d, want %d", got, want)
	}
}

func TestFuelCurveFollowsMaxVelocity(t *testing.T) {
	// a faster game stretches the curve: half its top speed burns like half of the default
	if got, want := FuelConsumption(2_000_000, 4_000_000), FuelConsumption(1_000_000, 2_000_000); got != want {
		t.Errorf("FuelConsumption(2e6, 4e6) = %d, want %d", got, want)
	}
	if got, want := FuelConsumption(4_000_000, 4_000_000), FuelConsumption(2_000_000, 2_000_000); got != want {
		t.Errorf("top of stretched curve = %d, want %d", got, want)
	}

	p := RandomPosition(testRand(), 0, 1_000_000, 4_000_000, 100)
	if p.MaxVelocity != 4_000_000 {
		t.Fatalf("MaxVelocity = %d", p.MaxVelocity)
	}
	if got, want := p.FuelConsumption(), FuelConsumption(1_000_000, 4_000_000); got != want {
		t.Errorf("position burn = %d, want %d", got, want)
	}
	if next := p.Advance(1000); next.MaxVelocity != p.MaxVelocity {
		t.Errorf("Advance dropped MaxVelocity: %d", next.MaxVelocity)
	}
}

func TestAdvanceComposesAlongGreatCircle(t *testing.T) {
	// eastbound on the equator the bearing stays constant along the great circle
	start := Position{
		Coordinates: geo.Coordinates{Lat: 0, Lon: -40},
		Bearing:     90,
		Velocity:    500_000,
		TankLevel:   100_000,
		Timestamp:   1_000,
	}
	twice := start.Advance(4_000).Advance(9_000)
	once := start.Advance(9_000)

	if d := geo.Distance(twice.Coordinates, once.Coordinates); d > 1e-6 {
		t.Errorf("two steps drifted %v km from one step", d)
	}
	if math.Abs(twice.TankLevel-once.TankLevel) > 1e-6 {
		t.Errorf("tank twice = %v once = %v", twice.TankLevel, once.TankLevel)
	}
	if start.Timestamp != 1_000 {
		t.Errorf("Advance mutated the receiver")
	}
}

func TestAdvanceSmoothedComposes(t *testing.T) {
	start := Position{
		Coordinates: geo.Coordinates{Lat: 12.5, Lon: -40},
		Bearing:     73,
		Velocity:    500_000,
		TankLevel:   100_000,
		Timestamp:   1_000,
	}
	twice := start.AdvanceSmoothed(4_000).Advance(9_000)
	once := start.Advance(9_000)

	if d := geo.Distance(twice.Coordinates, once.Coordinates); d > 1e-3 {
		t.Errorf("following the great circle drifted %v km", d)
	}
	if math.Abs(twice.TankLevel-once.TankLevel) > 1e-6 {
		t.Errorf("tank twice = %v once = %v", twice.TankLevel, once.TankLevel)
	}
}

func TestAdvanceSmoothedKeepsBearingWithoutElapsedTime(t *testing.T) {
	p := Position{Coordinates: geo.Coordinates{Lat: 1, Lon: 1}, Bearing: 42, Velocity: 500_000, TankLevel: 10, Timestamp: 5}
	if got := p.AdvanceSmoothed(5).Bearing; math.Abs(got-42) > 1e-9 {
		t.Fatalf("bearing = %v, want 42", got)
	}
}

func TestTankAtNeverNegative(t *testing.T) {
	p := Position{Velocity: 2_000_000, TankLevel: 10, Timestamp: 0}
	prev := p.TankLevel
	for ts := int64(0); ts <= 60_000; ts += 500 {
		level := p.TankAt(ts)
		if level < 0 {
			t.Fatalf("tank below zero at %d: %v", ts, level)
		}
		if level > prev {
			t.Fatalf("tank increased at %d: %v > %v", ts, level, prev)
		}
		prev = level
	}
	if prev != 0 {
		t.Fatalf("tank should be empty after a minute at max speed, got %v", prev)
	}
}

func TestTankAtNeverRefunds(t *testing.T) {
	p := Position{Velocity: 2_000_000, TankLevel: 100, Timestamp: 10_000}
	if got := p.TankAt(9_600); got != 100 {
		t.Errorf("TankAt before timestamp = %v, want 100", got)
	}
	if got := p.Settle(9_600); got != 10_000 {
		t.Errorf("Settle(9_600) = %d, want 10_000", got)
	}
	if got := p.Settle(12_000); got != 12_000 {
		t.Errorf("Settle(12_000) = %d, want 12_000", got)
	}
}

func TestAirportLanding(t *testing.T) {
	a := NewAirport("TEST", "Test", "", geo.Coordinates{Lat: 10, Lon: 10}, 0, 1)
	near := NewPlayer("ann", "t1", "#fff", false, Position{
		Coordinates: geo.Project(a.Coordinates, 100, 90),
		Bearing:     270,
		Velocity:    0,
		TankLevel:   50,
		Timestamp:   0,
	})
	far := NewPlayer("bob", "t2", "#000", false, Position{
		Coordinates: geo.Project(a.Coordinates, 501, 0),
		TankLevel:   50,
	})
	other := NewPlayer("cid", "t3", "#111", false, Position{Coordinates: a.Coordinates, TankLevel: 50})

	if err := a.Land(far, 0, 500); !errors.Is(err, ErrTooFarToLand) {
		t.Fatalf("far landing err = %v", err)
	}
	if err := a.Land(near, 10, 500); err != nil {
		t.Fatalf("near landing err = %v", err)
	}
	if a.OccupantID != near.ID || near.AirportID != a.ID {
		t.Fatalf("occupancy link not set")
	}
	if near.Position.Coordinates != a.Coordinates || near.Position.Velocity != 0 || near.Position.Timestamp != 10 {
		t.Fatalf("plane not parked: %+v", near.Position)
	}
	if err := a.Land(other, 10, 500); !errors.Is(err, ErrAirportFull) {
		t.Fatalf("second landing err = %v", err)
	}

	if a.Release(other, 20, 500_000) {
		t.Fatalf("non-occupant released")
	}
	if !a.Release(near, 20, 500_000) {
		t.Fatalf("occupant not released")
	}
	if a.Occupied() || near.Grounded() || near.Position.Velocity != 500_000 {
		t.Fatalf("release left state behind: %+v", near)
	}
}

func TestShipmentDispatchAndDelivery(t *testing.T) {
	rng := testRand()
	origin := NewAirport("A", "", "", geo.Coordinates{Lat: 0, Lon: 0}, 0, 1)
	dest := NewAirport("B", "", "", geo.Coordinates{Lat: 0, Lon: 30}, 0, 1)
	s := NewShipment(rng, origin, dest, 1_000)
	origin.Shipments[s.ID] = s

	p := NewPlayer("ann", "t", "#fff", false, Position{Coordinates: origin.Coordinates, TankLevel: 1})
	if _, err := origin.Dispatch(s.ID, p); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("dispatch without landing err = %v", err)
	}
	if err := origin.Land(p, 1_000, 500); err != nil {
		t.Fatal(err)
	}
	if _, err := origin.Dispatch(uuid.New(), p); !errors.Is(err, ErrShipmentNotFound) {
		t.Fatalf("unknown shipment err = %v", err)
	}
	if _, err := origin.Dispatch(s.ID, p); err != nil {
		t.Fatalf("dispatch err = %v", err)
	}
	if p.Shipment != s || s.CarrierID != p.ID || len(origin.Shipments) != 0 {
		t.Fatalf("dispatch did not move the shipment")
	}
	if _, err := origin.AcceptDelivery(p, 2_000); !errors.Is(err, ErrShipmentDestinationInvalid) {
		t.Fatalf("wrong destination err = %v", err)
	}

	origin.Release(p, 2_000, 0)
	p.Position.Coordinates = dest.Coordinates
	if err := dest.Land(p, 2_000, 500); err != nil {
		t.Fatal(err)
	}
	if _, err := dest.AcceptDelivery(p, s.ValidTill+1); !errors.Is(err, ErrShipmentExpired) {
		t.Fatalf("expired delivery err = %v", err)
	}
	if _, err := dest.AcceptDelivery(p, s.ValidTill); err != nil {
		t.Fatalf("delivery err = %v", err)
	}
	if p.Score != s.Award || p.ShipmentsDelivered != 1 || p.Shipment != nil {
		t.Fatalf("delivery not credited: %+v", p)
	}
}

func TestShipmentAwardBounds(t *testing.T) {
	rng := testRand()
	origin := NewAirport("A", "", "", geo.Coordinates{Lat: 25.252777, Lon: 55.364445}, 0, 1)
	dest := NewAirport("B", "", "", geo.Coordinates{Lat: 49.009724, Lon: 2.547778}, 0, 1)
	d := geo.Distance(origin.Coordinates, dest.Coordinates)

	for i := 0; i < 500; i++ {
		s := NewShipment(rng, origin, dest, 0)
		if s.TimeToDeliver < 50_000 || s.TimeToDeliver > 90_000 || s.TimeToDeliver%1000 != 0 {
			t.Fatalf("time to deliver = %d", s.TimeToDeliver)
		}
		lo := ShipmentAward(d, s.TimeToDeliver, ShipmentJitterMin)
		hi := ShipmentAward(d, s.TimeToDeliver, ShipmentJitterMax)
		if s.Award < lo || s.Award > hi {
			t.Fatalf("award %d outside [%d, %d]", s.Award, lo, hi)
		}
		if s.ValidTill != s.TimeToDeliver {
			t.Fatalf("valid till = %d", s.ValidTill)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	if KindOf(ErrAirportFull) != KindCapacity {
		t.Errorf("airport full kind = %q", KindOf(ErrAirportFull))
	}
	wrapped := errors.Join(errors.New("context"), ErrTooFarToLand)
	if KindOf(wrapped) != KindGeometry {
		t.Errorf("wrapped kind = %q", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Errorf("plain error has a kind")
	}
}

func TestCatalogue(t *testing.T) {
	airports := NewAirports(0.3)
	if len(airports) != len(Airports) {
		t.Fatalf("got %d airports", len(airports))
	}
	for i, a := range airports {
		if math.Abs(a.FuelPrice-Airports[i].FuelPrice*0.3) > 1e-12 {
			t.Errorf("%s fuel price = %v", a.Name, a.FuelPrice)
		}
		if a.Shipments == nil {
			t.Errorf("%s has nil shipment map", a.Name)
		}
	}
}
