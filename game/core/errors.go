// game/core/errors.go
package core

import "errors"

// ErrorKind groups game rule violations by what went wrong.
type ErrorKind string

const (
	KindCapacity  ErrorKind = "capacity"
	KindIdentity  ErrorKind = "identity"
	KindTemporal  ErrorKind = "temporal"
	KindState     ErrorKind = "state"
	KindGeometry  ErrorKind = "geometry"
	KindMalformed ErrorKind = "malformed"
)

// GameError is a rule violation raised by the engine. Values are compared by
// identity, so use errors.Is against the exported variables below.
type GameError struct {
	Kind ErrorKind
	Code string
	msg  string
}

func (e *GameError) Error() string { return e.msg }

func newError(kind ErrorKind, code, msg string) *GameError {
	return &GameError{Kind: kind, Code: code, msg: msg}
}

var (
	ErrPlayerLimitExceeded = newError(KindCapacity, "player_limit_exceeded", "player limit exceeded")
	ErrAirportFull         = newError(KindCapacity, "airport_full", "airport is occupied by another player")

	ErrPlayerNotFound          = newError(KindIdentity, "player_not_found", "player not found")
	ErrShipmentNotFound        = newError(KindIdentity, "shipment_not_found", "shipment not found")
	ErrInvalidAirport          = newError(KindIdentity, "invalid_airport", "airport not found")
	ErrPlayerDuplicateNickname = newError(KindIdentity, "duplicate_nickname", "nickname is already in game")
	ErrDuplicatedGameSession   = newError(KindIdentity, "duplicated_game_session", "token already has a game session")

	ErrChangingPastPosition   = newError(KindTemporal, "changing_past_position", "position timestamp is not newer than the current one")
	ErrChangingFuturePosition = newError(KindTemporal, "changing_future_position", "position timestamp is too far in the future")
	ErrShipmentExpired        = newError(KindTemporal, "shipment_expired", "shipment expired")

	ErrPlayerAlreadyConnected      = newError(KindState, "player_already_connected", "player already connected")
	ErrCantFlyWhenGrounded         = newError(KindState, "cant_fly_when_grounded", "can't change flight while grounded")
	ErrShipmentOperationWhenFlying = newError(KindState, "shipment_operation_when_flying", "shipment operations require landing")
	ErrRefuelingWhenFlying         = newError(KindState, "refueling_when_flying", "refueling requires landing")
	ErrInvalidOperation            = newError(KindState, "invalid_operation", "invalid operation")
	ErrShipmentDestinationInvalid  = newError(KindState, "shipment_destination_invalid", "shipment is not destined for this airport")

	ErrTooFarToLand = newError(KindGeometry, "too_far_to_land", "too far from the airport to land")

	ErrInvalidVelocity       = newError(KindMalformed, "invalid_velocity", "velocity out of range")
	ErrInvalidBearing        = newError(KindMalformed, "invalid_bearing", "bearing is not a finite number")
	ErrPlayerInvalidNickname = newError(KindMalformed, "invalid_nickname", "invalid nickname")
	ErrInvalidEventFormat    = newError(KindMalformed, "invalid_event_format", "invalid event format")
)

// KindOf returns the kind of a wrapped GameError, or "" for other errors.
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
