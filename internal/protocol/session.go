// Package protocol defines the tagged JSON messages spoken on the two wire
// legs: the session leg between a participant's client and this host, and
// the relay leg between this host and the public relay. Tag spellings are
// part of the wire contract; peers evolve independently of this process.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/scrumdeck/poker-host/internal/room"
)

// Session message tags. Client→server: Join, Vote, Ping.
// Server→client: RoomUpdate, Error, Kicked, Pong.
const (
	TypeJoin       = "Join"
	TypeVote       = "Vote"
	TypePing       = "Ping"
	TypePong       = "Pong"
	TypeRoomUpdate = "RoomUpdate"
	TypeError      = "Error"
	TypeKicked     = "Kicked"
)

// Frames are adjacently tagged: {"type": ..., "payload": {...}}, with the
// payload key omitted for kinds that carry no data.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinPayload struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

type votePayload struct {
	Vote *string `json:"vote"`
}

type roomUpdatePayload struct {
	Room room.Room `json:"room"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ClientMessage is a decoded client→server frame. Fields beyond Type are
// populated according to the tag.
type ClientMessage struct {
	Type   string
	RoomID string
	Name   string
	Vote   *string
}

// DecodeClientMessage parses an inbound session frame. Unknown tags and
// malformed payloads are errors; callers drop such frames and keep reading.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ClientMessage{}, fmt.Errorf("decode session frame: %w", err)
	}

	msg := ClientMessage{Type: env.Type}
	switch env.Type {
	case TypeJoin:
		var p joinPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		msg.RoomID = p.RoomID
		msg.Name = p.Name
	case TypeVote:
		var p votePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		msg.Vote = p.Vote
	case TypePing:
		// no payload
	default:
		return ClientMessage{}, fmt.Errorf("unknown session message type %q", env.Type)
	}
	return msg, nil
}

// ServerMessage is a server→client frame.
type ServerMessage struct {
	Type    string
	Room    *room.Room
	Message string
}

func RoomUpdate(r room.Room) ServerMessage {
	return ServerMessage{Type: TypeRoomUpdate, Room: &r}
}

func ErrorMessage(message string) ServerMessage {
	return ServerMessage{Type: TypeError, Message: message}
}

func Kicked() ServerMessage { return ServerMessage{Type: TypeKicked} }

func Pong() ServerMessage { return ServerMessage{Type: TypePong} }

// Encode renders the frame in the session wire format.
func (m ServerMessage) Encode() ([]byte, error) {
	env := envelope{Type: m.Type}

	var payload any
	switch m.Type {
	case TypeRoomUpdate:
		if m.Room == nil {
			return nil, fmt.Errorf("%s message without a room", m.Type)
		}
		payload = roomUpdatePayload{Room: *m.Room}
	case TypeError:
		payload = errorPayload{Message: m.Message}
	case TypeKicked, TypePong:
		// no payload
	default:
		return nil, fmt.Errorf("unknown server message type %q", m.Type)
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", m.Type, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}
