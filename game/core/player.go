// game/core/player.go
package core

import "github.com/google/uuid"

// DeathCause explains why a player left the game involuntarily.
type DeathCause string

const (
	DeathRunOutOfFuel DeathCause = "run_out_of_fuel"
	DeathSpeedTooLow  DeathCause = "speed_too_low"
	DeathDisconnected DeathCause = "disconnected"
)

// Player is a plane in the game, controlled by a client or by the autopilot.
// SessionID and AirportID are uuid.Nil while disconnected or flying.
type Player struct {
	ID                 uuid.UUID
	Nickname           string
	Token              string
	Color              string
	IsBot              bool
	SessionID          uuid.UUID
	AirportID          uuid.UUID
	Position           Position
	Score              int
	Shipment           *Shipment
	DeathCause         DeathCause
	DisconnectedSince  int64
	Joined             int64
	ShipmentsDelivered int
}

// NewPlayer creates a living, disconnected, flying player at pos.
func NewPlayer(nickname, token, color string, bot bool, pos Position) *Player {
	return &Player{
		ID:                uuid.New(),
		Nickname:          nickname,
		Token:             token,
		Color:             color,
		IsBot:             bot,
		Position:          pos,
		DisconnectedSince: pos.Timestamp,
		Joined:            pos.Timestamp,
	}
}

// Connected is true for bots and for players bound to a live session.
func (p *Player) Connected() bool {
	return p.IsBot || p.SessionID != uuid.Nil
}

func (p *Player) Grounded() bool {
	return p.AirportID != uuid.Nil
}

func (p *Player) Dead() bool {
	return p.DeathCause != ""
}
