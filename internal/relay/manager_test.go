package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scrumdeck/poker-host/internal/protocol"
	"github.com/scrumdeck/poker-host/internal/room"
	"github.com/scrumdeck/poker-host/internal/store"
)

func TestManager_ConnectLifecycle(t *testing.T) {
	f := newFakeRelay(t)
	st := store.New(zap.NewNop())
	m := NewManager(st, 0, zap.NewNop())

	require.False(t, m.Connected())
	_, ok := m.URL()
	assert.False(t, ok)

	url, err := m.Connect(context.Background(), f.url())
	require.NoError(t, err)
	assert.Equal(t, f.url(), url)
	require.True(t, m.Connected())
	f.expect(t, protocol.OutHostRegister)

	// a second connect reuses the live client instead of redialing
	again, err := m.Connect(context.Background(), f.url())
	require.NoError(t, err)
	assert.Equal(t, url, again)

	m.Disconnect()
	assert.False(t, m.Connected())
	// disconnecting twice is harmless
	m.Disconnect()
}

func TestManager_ConnectFailure(t *testing.T) {
	st := store.New(zap.NewNop())
	m := NewManager(st, 0, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := m.Connect(ctx, "ws://127.0.0.1:1")
	require.Error(t, err)
	assert.False(t, m.Connected())
}

func TestManager_PumpMergesRelayUpdates(t *testing.T) {
	f := newFakeRelay(t)
	st := store.New(zap.NewNop())
	m := NewManager(st, 0, zap.NewNop())

	local := st.CreateRoom("Sprint 12")
	ticket := room.Ticket{Key: "POK-1", Summary: "Login flow"}
	st.SetCurrentTicket(local.ID, &ticket)

	_, err := m.Connect(context.Background(), f.url())
	require.NoError(t, err)
	defer m.Disconnect()
	f.expect(t, protocol.OutHostRegister)

	// the relay's view of the same room gains a remote participant
	remote := local.Clone()
	remote.AddParticipant(room.NewParticipant("remote-alice", false))
	remote.VotesRevealed = true
	f.send <- protocol.RelayIncoming{Type: protocol.InRoomCreated, Room: &remote}

	require.Eventually(t, func() bool {
		got, ok := st.GetRoom(local.ID)
		return ok && len(got.Participants) == 1 && got.VotesRevealed
	}, 2*time.Second, 10*time.Millisecond)

	// the merge keeps the host-local ticket
	got, ok := st.GetRoom(local.ID)
	require.True(t, ok)
	require.NotNil(t, got.CurrentTicket)
	assert.Equal(t, "POK-1", got.CurrentTicket.Key)
}

func TestManager_MirrorNoopsWhenDisconnected(t *testing.T) {
	st := store.New(zap.NewNop())
	m := NewManager(st, 0, zap.NewNop())

	r := room.New("Sprint 12")
	m.MirrorSyncRoom(r)
	m.MirrorDeleteRoom(r.ID)
	m.MirrorRevealVotes(r.ID)
	m.MirrorHideVotes(r.ID)
	m.MirrorResetVotes(r.ID)
	m.MirrorKickParticipant(r.ID, "p1")
	m.MirrorSetTicket(r.ID, room.Ticket{Key: "POK-1"})
	m.MirrorClearTicket(r.ID)
}

func TestManager_MirrorForwardsWhenConnected(t *testing.T) {
	f := newFakeRelay(t)
	st := store.New(zap.NewNop())
	m := NewManager(st, 0, zap.NewNop())

	_, err := m.Connect(context.Background(), f.url())
	require.NoError(t, err)
	defer m.Disconnect()
	f.expect(t, protocol.OutHostRegister)

	r := room.New("Sprint 12")
	m.MirrorSyncRoom(r)
	msg := f.expect(t, protocol.OutHostSyncRoom)
	require.NotNil(t, msg.Room)
	assert.Equal(t, r.ID, msg.Room.ID)

	m.MirrorKickParticipant(r.ID, "p1")
	msg = f.expect(t, protocol.OutHostKickParticipant)
	assert.Equal(t, r.ID, msg.RoomID)
	assert.Equal(t, "p1", msg.ParticipantID)
}
