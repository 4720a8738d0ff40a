package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrumdeck/poker-host/internal/room"
)

func TestDecodeClientMessage_Join(t *testing.T) {
	raw := `{"type":"Join","payload":{"room_id":"r1","name":"alice"}}`

	msg, err := DecodeClientMessage([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, TypeJoin, msg.Type)
	assert.Equal(t, "r1", msg.RoomID)
	assert.Equal(t, "alice", msg.Name)
}

func TestDecodeClientMessage_Vote(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"Vote","payload":{"vote":"5"}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeVote, msg.Type)
	require.NotNil(t, msg.Vote)
	assert.Equal(t, "5", *msg.Vote)

	// a null vote clears a previous one
	msg, err = DecodeClientMessage([]byte(`{"type":"Vote","payload":{"vote":null}}`))
	require.NoError(t, err)
	assert.Nil(t, msg.Vote)
}

func TestDecodeClientMessage_Ping(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"Ping"}`))
	require.NoError(t, err)
	assert.Equal(t, TypePing, msg.Type)
}

func TestDecodeClientMessage_Rejects(t *testing.T) {
	cases := []string{
		`not json`,
		`{"type":"Teleport"}`,
		`{"type":"RoomUpdate"}`, // server-only tag
		`{"type":"Join","payload":"nope"}`,
	}
	for _, raw := range cases {
		_, err := DecodeClientMessage([]byte(raw))
		assert.Error(t, err, "input %q", raw)
	}
}

func TestServerMessage_Encode(t *testing.T) {
	assertEncodes := func(m ServerMessage, want string) {
		t.Helper()
		data, err := m.Encode()
		require.NoError(t, err)
		assert.JSONEq(t, want, string(data))
	}

	assertEncodes(Pong(), `{"type":"Pong"}`)
	assertEncodes(Kicked(), `{"type":"Kicked"}`)
	assertEncodes(ErrorMessage("Room not found"),
		`{"type":"Error","payload":{"message":"Room not found"}}`)
}

func TestServerMessage_EncodeRoomUpdate(t *testing.T) {
	r := room.New("Sprint 12")
	data, err := RoomUpdate(r).Encode()
	require.NoError(t, err)

	var env struct {
		Type    string `json:"type"`
		Payload struct {
			Room room.Room `json:"room"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, TypeRoomUpdate, env.Type)
	assert.Equal(t, r.ID, env.Payload.Room.ID)
	assert.Equal(t, r.InviteCode, env.Payload.Room.InviteCode)
}

func TestRelayOutgoing_TagsAndShape(t *testing.T) {
	data, err := json.Marshal(RelayOutgoing{Type: OutHostRegister})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"host_register"}`, string(data))

	data, err = json.Marshal(RelayOutgoing{Type: OutHostCreateRoom, Name: "Sprint 12"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"host_create_room","name":"Sprint 12"}`, string(data))

	data, err = json.Marshal(RelayOutgoing{
		Type:          OutHostKickParticipant,
		RoomID:        "r1",
		ParticipantID: "p1",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"host_kick_participant","room_id":"r1","participant_id":"p1"}`, string(data))
}

func TestRelayIncoming_Decode(t *testing.T) {
	raw := `{"type":"host_registered","rooms":[],"relay_url":"wss://relay.example"}`
	var msg RelayIncoming
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, InHostRegistered, msg.Type)
	assert.Equal(t, "wss://relay.example", msg.RelayURL)

	raw = `{"type":"room_update","room":{"id":"r1","name":"Sprint 12","participants":[],"votes_revealed":false,"created_at":0,"invite_code":"51 58 87 72","current_ticket":null}}`
	msg = RelayIncoming{}
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, InRoomUpdate, msg.Type)
	require.NotNil(t, msg.Room)
	assert.Equal(t, "r1", msg.Room.ID)
}
