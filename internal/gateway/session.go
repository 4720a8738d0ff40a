// Package gateway runs one session per live participant connection: a
// sequential inbound path feeding the store, and an independent outbound
// path draining a per-connection ordered outbox.
package gateway

import (
	"go.uber.org/zap"

	"github.com/scrumdeck/poker-host/internal/protocol"
	"github.com/scrumdeck/poker-host/internal/room"
	"github.com/scrumdeck/poker-host/internal/store"
)

// outboxSize bounds the per-connection queue. The store drops messages to a
// full outbox rather than blocking the broadcast.
const outboxSize = 32

// Session is the per-connection state machine: Unjoined → Joined → Closed.
// All methods are called from the connection's reader goroutine; the outbox
// is the only piece shared with the writer.
type Session struct {
	store  *store.Store
	logger *zap.Logger
	outbox chan protocol.ServerMessage

	participantID string
	roomID        string
	joined        bool
	closed        bool
}

func NewSession(st *store.Store, logger *zap.Logger) *Session {
	return &Session{
		store:  st,
		logger: logger,
		outbox: make(chan protocol.ServerMessage, outboxSize),
	}
}

// Outbox is drained by the connection's writer goroutine in enqueue order.
func (s *Session) Outbox() <-chan protocol.ServerMessage { return s.outbox }

// HandleFrame processes one inbound frame. Malformed or unrecognized frames
// are dropped; the session stays in its current state.
func (s *Session) HandleFrame(data []byte) {
	if s.closed {
		return
	}

	msg, err := protocol.DecodeClientMessage(data)
	if err != nil {
		s.logger.Debug("dropping malformed frame", zap.Error(err))
		return
	}

	switch msg.Type {
	case protocol.TypeJoin:
		s.handleJoin(msg.RoomID, msg.Name)
	case protocol.TypeVote:
		s.handleVote(msg.Vote)
	case protocol.TypePing:
		s.send(protocol.Pong())
	}
}

func (s *Session) handleJoin(roomID, name string) {
	if s.joined {
		s.logger.Debug("ignoring join on already-joined session",
			zap.String("participant_id", s.participantID))
		return
	}

	p := room.NewParticipant(name, false)
	id, ok := s.store.AddParticipant(roomID, p)
	if !ok {
		s.send(protocol.ErrorMessage("Room not found"))
		return
	}

	s.participantID = id
	s.roomID = roomID
	s.joined = true

	s.store.RegisterConnection(id, roomID, s.outbox)
	s.store.BroadcastRoomUpdate(roomID)

	s.logger.Info("participant joined",
		zap.String("room_id", roomID),
		zap.String("participant_id", id),
		zap.String("name", name))
}

func (s *Session) handleVote(vote *string) {
	if !s.joined {
		return
	}
	s.store.SetVote(s.roomID, s.participantID, vote)
	s.store.BroadcastRoomUpdate(s.roomID)
}

// Close moves the session to its terminal state: unregister, leave the
// room, tell everyone left. Safe to call more than once; the transport
// error path and an external kick can both land here.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if !s.joined {
		return
	}
	// unregister first so the participant removal doesn't echo a Kicked
	// back into our own outbox
	s.store.UnregisterConnection(s.participantID)
	s.store.RemoveParticipant(s.roomID, s.participantID)
	s.store.BroadcastRoomUpdate(s.roomID)

	s.logger.Info("participant left",
		zap.String("room_id", s.roomID),
		zap.String("participant_id", s.participantID))
}

// send queues a message for this connection only.
func (s *Session) send(msg protocol.ServerMessage) {
	select {
	case s.outbox <- msg:
	default:
		s.logger.Warn("session outbox full, dropping message",
			zap.String("type", msg.Type))
	}
}
