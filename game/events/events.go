// game/events/events.go
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/google/uuid"
)

// Type names a message on the wire.
type Type string

// Client to server.
const (
	TypePositionUpdateRequest   Type = "player_position.update_request"
	TypeLandingRequest          Type = "airport.landing_request"
	TypeDepartureRequest        Type = "airport.departure_request"
	TypeShipmentDispatchRequest Type = "airport.shipment_dispatch_request"
	TypeShipmentDeliveryRequest Type = "airport.shipment_delivery_request"
	TypeRefuelingStartRequest   Type = "airport.refueling_start_request"
	TypeRefuelingEndRequest     Type = "airport.refueling_end_request"
)

// Server to client.
const (
	TypePlayerList         Type = "player.list"
	TypeAirportList        Type = "airport.list"
	TypePlayerRegistered   Type = "player.registered"
	TypePlayerConnected    Type = "player.connected"
	TypePlayerDisconnected Type = "player.disconnected"
	TypePlayerRemoved      Type = "player.removed"
	TypePlayerUpdated      Type = "player.updated"
	TypePositionUpdated    Type = "player_position.updated"
	TypeAirportUpdated     Type = "airport.updated"
	TypeShipmentDelivered  Type = "airport.shipment_delivered"
	TypeRefuelingStopped   Type = "airport.refueling_stopped"
)

var serverOnly = map[Type]bool{
	TypePlayerList:         true,
	TypeAirportList:        true,
	TypePlayerRegistered:   true,
	TypePlayerConnected:    true,
	TypePlayerDisconnected: true,
	TypePlayerRemoved:      true,
	TypePlayerUpdated:      true,
	TypePositionUpdated:    true,
	TypeAirportUpdated:     true,
	TypeShipmentDelivered:  true,
	TypeRefuelingStopped:   true,
}

// ServerOnly reports whether only the server may emit t.
func (t Type) ServerOnly() bool { return serverOnly[t] }

// ClientOnly reports whether t is a request a client may send.
func (t Type) ClientOnly() bool {
	_, ok := decoders[t]
	return ok
}

// Message is the envelope of every server to client event. Created is unix ms.
type Message struct {
	Type    Type  `json:"type"`
	Data    any   `json:"data"`
	Created int64 `json:"created"`
}

// Request is a decoded client intent. The concrete types below form a closed set.
type Request interface {
	Type() Type
}

type PositionUpdateRequest struct {
	Bearing   float64
	Velocity  int
	Timestamp int64
}

type LandingRequest struct{ AirportID uuid.UUID }

type DepartureRequest struct{ AirportID uuid.UUID }

type ShipmentDispatchRequest struct{ ShipmentID uuid.UUID }

type ShipmentDeliveryRequest struct{}

type RefuelingStartRequest struct{}

type RefuelingEndRequest struct{}

func (PositionUpdateRequest) Type() Type   { return TypePositionUpdateRequest }
func (LandingRequest) Type() Type          { return TypeLandingRequest }
func (DepartureRequest) Type() Type        { return TypeDepartureRequest }
func (ShipmentDispatchRequest) Type() Type { return TypeShipmentDispatchRequest }
func (ShipmentDeliveryRequest) Type() Type { return TypeShipmentDeliveryRequest }
func (RefuelingStartRequest) Type() Type   { return TypeRefuelingStartRequest }
func (RefuelingEndRequest) Type() Type     { return TypeRefuelingEndRequest }

// inbound is the client envelope; created is accepted but ignored.
type inbound struct {
	Type    Type            `json:"type"`
	Data    json.RawMessage `json:"data"`
	Created json.RawMessage `json:"created,omitempty"`
}

type positionPayload struct {
	Bearing   *float64 `json:"bearing"`
	Velocity  *int     `json:"velocity"`
	Timestamp *int64   `json:"timestamp"`
}

type idPayload struct {
	ID *uuid.UUID `json:"id"`
}

var decoders = map[Type]func(json.RawMessage) (Request, error){
	TypePositionUpdateRequest: func(raw json.RawMessage) (Request, error) {
		var p positionPayload
		if err := strictUnmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.Bearing == nil || p.Velocity == nil || p.Timestamp == nil {
			return nil, fmt.Errorf("bearing, velocity and timestamp are required")
		}
		if math.IsNaN(*p.Bearing) || math.IsInf(*p.Bearing, 0) {
			return nil, fmt.Errorf("bearing is not finite")
		}
		return PositionUpdateRequest{Bearing: *p.Bearing, Velocity: *p.Velocity, Timestamp: *p.Timestamp}, nil
	},
	TypeLandingRequest: func(raw json.RawMessage) (Request, error) {
		id, err := decodeID(raw)
		return LandingRequest{AirportID: id}, err
	},
	TypeDepartureRequest: func(raw json.RawMessage) (Request, error) {
		id, err := decodeID(raw)
		return DepartureRequest{AirportID: id}, err
	},
	TypeShipmentDispatchRequest: func(raw json.RawMessage) (Request, error) {
		id, err := decodeID(raw)
		return ShipmentDispatchRequest{ShipmentID: id}, err
	},
	TypeShipmentDeliveryRequest: func(raw json.RawMessage) (Request, error) {
		return ShipmentDeliveryRequest{}, decodeEmpty(raw)
	},
	TypeRefuelingStartRequest: func(raw json.RawMessage) (Request, error) {
		return RefuelingStartRequest{}, decodeEmpty(raw)
	},
	TypeRefuelingEndRequest: func(raw json.RawMessage) (Request, error) {
		return RefuelingEndRequest{}, decodeEmpty(raw)
	},
}

// DecodeRequest parses a client frame into a Request. Unknown types, types
// reserved for the server and payloads with missing, unknown or mistyped
// fields are rejected with an error wrapping core.ErrInvalidEventFormat.
func DecodeRequest(frame []byte) (Request, error) {
	var env inbound
	if err := strictUnmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidEventFormat, err)
	}
	if env.Type.ServerOnly() {
		return nil, fmt.Errorf("%w: %q is emitted by the server only", core.ErrInvalidEventFormat, env.Type)
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", core.ErrInvalidEventFormat, env.Type)
	}
	req, err := decode(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrInvalidEventFormat, env.Type, err)
	}
	return req, nil
}

func strictUnmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}

func decodeID(raw json.RawMessage) (uuid.UUID, error) {
	var p idPayload
	if err := strictUnmarshal(raw, &p); err != nil {
		return uuid.Nil, err
	}
	if p.ID == nil {
		return uuid.Nil, fmt.Errorf("id is required")
	}
	return *p.ID, nil
}

// decodeEmpty accepts a missing, null or empty object payload.
func decodeEmpty(raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var p struct{}
	return strictUnmarshal(raw, &p)
}
