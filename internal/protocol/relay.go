package protocol

import "github.com/scrumdeck/poker-host/internal/room"

// Relay messages are internally tagged: the discriminator sits beside the
// data fields, lower-case with underscores. The relay matches on these
// exact spellings.

// Host→relay tags.
const (
	OutHostRegister        = "host_register"
	OutHostCreateRoom      = "host_create_room"
	OutHostSyncRoom        = "host_sync_room"
	OutHostDeleteRoom      = "host_delete_room"
	OutHostRevealVotes     = "host_reveal_votes"
	OutHostHideVotes       = "host_hide_votes"
	OutHostResetVotes      = "host_reset_votes"
	OutHostKickParticipant = "host_kick_participant"
	OutHostSetTicket       = "host_set_ticket"
	OutHostClearTicket     = "host_clear_ticket"
	OutPing                = "ping"
)

// Relay→host tags.
const (
	InHostRegistered = "host_registered"
	InRoomCreated    = "room_created"
	InRoomSynced     = "room_synced"
	InRoomDeleted    = "room_deleted"
	InRoomUpdate     = "room_update"
	InError          = "error"
	InPong           = "pong"
)

// RelayOutgoing covers every host→relay message; unused fields stay empty
// and are omitted on the wire.
type RelayOutgoing struct {
	Type          string       `json:"type"`
	Name          string       `json:"name,omitempty"`
	Room          *room.Room   `json:"room,omitempty"`
	RoomID        string       `json:"room_id,omitempty"`
	ParticipantID string       `json:"participant_id,omitempty"`
	Ticket        *room.Ticket `json:"ticket,omitempty"`
}

// RelayIncoming covers every relay→host message.
type RelayIncoming struct {
	Type     string      `json:"type"`
	Rooms    []room.Room `json:"rooms,omitempty"`
	RelayURL string      `json:"relay_url,omitempty"`
	Room     *room.Room  `json:"room,omitempty"`
	RoomID   string      `json:"room_id,omitempty"`
	Message  string      `json:"message,omitempty"`
}
