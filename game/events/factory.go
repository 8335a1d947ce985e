// game/events/factory.go
package events

import (
	"slices"
	"strings"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/geo"
	"github.com/google/uuid"
)

// PositionData is the wire form of a core.Position.
type PositionData struct {
	Coordinates     geo.Coordinates `json:"coordinates"`
	Velocity        int             `json:"velocity"`
	FuelConsumption int             `json:"fuel_consumption"`
	TankLevel       float64         `json:"tank_level"`
	Bearing         float64         `json:"bearing"`
	Timestamp       int64           `json:"timestamp"`
}

type ShipmentData struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Award         int       `json:"award"`
	OriginID      uuid.UUID `json:"origin_id"`
	DestinationID uuid.UUID `json:"destination_id"`
	ValidTill     int64     `json:"valid_till"`
}

// PlayerData is the public view of a player. The token never leaves the server.
type PlayerData struct {
	ID                 uuid.UUID        `json:"id"`
	Nickname           string           `json:"nickname"`
	Color              string           `json:"color"`
	Connected          bool             `json:"connected"`
	IsGrounded         bool             `json:"is_grounded"`
	IsBot              bool             `json:"is_bot"`
	Score              int              `json:"score"`
	DeathCause         *core.DeathCause `json:"death_cause"`
	ShipmentsDelivered int              `json:"shipments_delivered"`
	Position           PositionData     `json:"position"`
	Shipment           *ShipmentData    `json:"shipment"`
}

type AirportData struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	FullName        string          `json:"full_name"`
	Description     string          `json:"description"`
	Elevation       float64         `json:"elevation"`
	FuelPrice       float64         `json:"fuel_price"`
	Coordinates     geo.Coordinates `json:"coordinates"`
	OccupyingPlayer *uuid.UUID      `json:"occupying_player"`
	Shipments       []ShipmentData  `json:"shipments"`
}

type PositionUpdatedData struct {
	ID         uuid.UUID    `json:"id"`
	IsGrounded bool         `json:"is_grounded"`
	Position   PositionData `json:"position"`
}

type RefuelingStoppedData struct {
	AirportID uuid.UUID `json:"id"`
	PlayerID  uuid.UUID `json:"player_id"`
}

type PlayerListData struct {
	Players []PlayerData `json:"players"`
}

type AirportListData struct {
	Airports []AirportData `json:"airports"`
}

func NewPositionData(p core.Position) PositionData {
	return PositionData{
		Coordinates:     p.Coordinates,
		Velocity:        p.Velocity,
		FuelConsumption: p.FuelConsumption(),
		TankLevel:       p.TankLevel,
		Bearing:         p.Bearing,
		Timestamp:       p.Timestamp,
	}
}

func NewShipmentData(s *core.Shipment) ShipmentData {
	return ShipmentData{
		ID:            s.ID,
		Name:          s.Name,
		Award:         s.Award,
		OriginID:      s.OriginID,
		DestinationID: s.DestinationID,
		ValidTill:     s.ValidTill,
	}
}

func NewPlayerData(p *core.Player) PlayerData {
	d := PlayerData{
		ID:                 p.ID,
		Nickname:           p.Nickname,
		Color:              p.Color,
		Connected:          p.Connected(),
		IsGrounded:         p.Grounded(),
		IsBot:              p.IsBot,
		Score:              p.Score,
		ShipmentsDelivered: p.ShipmentsDelivered,
		Position:           NewPositionData(p.Position),
	}
	if p.Dead() {
		cause := p.DeathCause
		d.DeathCause = &cause
	}
	if p.Shipment != nil {
		s := NewShipmentData(p.Shipment)
		d.Shipment = &s
	}
	return d
}

// NewAirportData snapshots an airport. Shipments are ordered by id so repeated
// snapshots of the same state serialize identically.
func NewAirportData(a *core.Airport) AirportData {
	d := AirportData{
		ID:          a.ID,
		Name:        a.Name,
		FullName:    a.FullName,
		Description: a.Description,
		Elevation:   a.Elevation,
		FuelPrice:   a.FuelPrice,
		Coordinates: a.Coordinates,
		Shipments:   make([]ShipmentData, 0, len(a.Shipments)),
	}
	if a.Occupied() {
		id := a.OccupantID
		d.OccupyingPlayer = &id
	}
	for _, s := range a.Shipments {
		d.Shipments = append(d.Shipments, NewShipmentData(s))
	}
	slices.SortFunc(d.Shipments, func(x, y ShipmentData) int {
		return strings.Compare(x.ID.String(), y.ID.String())
	})
	return d
}

func newMessage(t Type, data any, now int64) Message {
	return Message{Type: t, Data: data, Created: now}
}

func PlayerList(players []*core.Player, now int64) Message {
	data := PlayerListData{Players: make([]PlayerData, 0, len(players))}
	for _, p := range players {
		data.Players = append(data.Players, NewPlayerData(p))
	}
	return newMessage(TypePlayerList, data, now)
}

func AirportList(airports []*core.Airport, now int64) Message {
	data := AirportListData{Airports: make([]AirportData, 0, len(airports))}
	for _, a := range airports {
		data.Airports = append(data.Airports, NewAirportData(a))
	}
	return newMessage(TypeAirportList, data, now)
}

func PlayerRegistered(p *core.Player, now int64) Message {
	return newMessage(TypePlayerRegistered, NewPlayerData(p), now)
}

func PlayerConnected(p *core.Player, now int64) Message {
	return newMessage(TypePlayerConnected, NewPlayerData(p), now)
}

func PlayerDisconnected(p *core.Player, now int64) Message {
	return newMessage(TypePlayerDisconnected, NewPlayerData(p), now)
}

func PlayerRemoved(p *core.Player, now int64) Message {
	return newMessage(TypePlayerRemoved, NewPlayerData(p), now)
}

func PlayerUpdated(p *core.Player, now int64) Message {
	return newMessage(TypePlayerUpdated, NewPlayerData(p), now)
}

func PositionUpdated(p *core.Player, now int64) Message {
	return newMessage(TypePositionUpdated, PositionUpdatedData{
		ID:         p.ID,
		IsGrounded: p.Grounded(),
		Position:   NewPositionData(p.Position),
	}, now)
}

func AirportUpdated(a *core.Airport, now int64) Message {
	return newMessage(TypeAirportUpdated, NewAirportData(a), now)
}

func ShipmentDelivered(s *core.Shipment, now int64) Message {
	return newMessage(TypeShipmentDelivered, NewShipmentData(s), now)
}

func RefuelingStopped(a *core.Airport, p *core.Player, now int64) Message {
	return newMessage(TypeRefuelingStopped, RefuelingStoppedData{AirportID: a.ID, PlayerID: p.ID}, now)
}
