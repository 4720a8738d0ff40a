// Package store holds all live room state for the host process. It is the
// single shared registry: rooms, the invite-code index, and the connection
// index. Everything is memory-resident; nothing survives a restart.
package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/scrumdeck/poker-host/internal/protocol"
	"github.com/scrumdeck/poker-host/internal/room"
)

// Connection binds a joined participant to the outbox its gateway drains.
// The store only indexes it for fanout and kick cleanup; the gateway owns
// the underlying transport.
type Connection struct {
	ParticipantID string
	RoomID        string
	outbox        chan<- protocol.ServerMessage
}

// entry wraps a room with its own lock so mutations on different rooms
// never contend.
type entry struct {
	mu   sync.Mutex
	room room.Room
}

// Store is created once at startup and passed by reference to every
// handler. All methods are safe for concurrent use; each operation is
// atomic with respect to a single room's fields.
type Store struct {
	logger *zap.Logger

	mu      sync.RWMutex
	rooms   map[string]*entry
	invites map[string]string // normalized invite code -> room id

	connMu sync.RWMutex
	conns  map[string]*Connection // participant id -> connection
}

func New(logger *zap.Logger) *Store {
	return &Store{
		logger:  logger,
		rooms:   make(map[string]*entry),
		invites: make(map[string]string),
		conns:   make(map[string]*Connection),
	}
}

// CreateRoom registers a new empty room and returns a snapshot of it.
func (s *Store) CreateRoom(name string) room.Room {
	r := room.New(name)

	s.mu.Lock()
	s.rooms[r.ID] = &entry{room: r}
	s.invites[r.InviteCode] = r.ID
	s.mu.Unlock()

	s.logger.Info("room created",
		zap.String("room_id", r.ID),
		zap.String("name", r.Name),
		zap.String("invite_code", r.InviteCode))
	return r.Clone()
}

// GetRoom returns a snapshot of the room, or false if it doesn't exist.
func (s *Store) GetRoom(roomID string) (room.Room, bool) {
	s.mu.RLock()
	e := s.rooms[roomID]
	s.mu.RUnlock()
	if e == nil {
		return room.Room{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.room.Clone(), true
}

// GetRoomByInvite resolves a normalized invite code to a room snapshot.
func (s *Store) GetRoomByInvite(code string) (room.Room, bool) {
	code = room.NormalizeInviteCode(code)

	s.mu.RLock()
	roomID, ok := s.invites[code]
	s.mu.RUnlock()
	if !ok {
		return room.Room{}, false
	}
	return s.GetRoom(roomID)
}

// ListRooms snapshots every room. No ordering guarantee.
func (s *Store) ListRooms() []room.Room {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.rooms))
	for _, e := range s.rooms {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]room.Room, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.room.Clone())
		e.mu.Unlock()
	}
	return out
}

// DeleteRoom removes the room and its invite mapping, then kicks and
// unregisters every connection bound to it. Returns false when the room
// did not exist.
func (s *Store) DeleteRoom(roomID string) bool {
	s.mu.Lock()
	e := s.rooms[roomID]
	if e == nil {
		s.mu.Unlock()
		return false
	}
	delete(s.rooms, roomID)
	delete(s.invites, e.room.InviteCode)
	s.mu.Unlock()

	s.connMu.Lock()
	for pid, conn := range s.conns {
		if conn.RoomID == roomID {
			s.push(conn, protocol.Kicked())
			delete(s.conns, pid)
		}
	}
	s.connMu.Unlock()

	s.logger.Info("room deleted", zap.String("room_id", roomID))
	return true
}

// mutate runs fn under the room's lock. Returns false on unknown ids; the
// caller decides whether that warrants a diagnostic.
func (s *Store) mutate(roomID string, fn func(*room.Room)) bool {
	s.mu.RLock()
	e := s.rooms[roomID]
	s.mu.RUnlock()
	if e == nil {
		return false
	}

	e.mu.Lock()
	fn(&e.room)
	e.mu.Unlock()
	return true
}

// AddParticipant appends the participant and returns its id. Unknown room
// ids are a no-op returning false; a room is never created implicitly.
func (s *Store) AddParticipant(roomID string, p room.Participant) (string, bool) {
	ok := s.mutate(roomID, func(r *room.Room) {
		r.AddParticipant(p)
	})
	if !ok {
		return "", false
	}
	return p.ID, true
}

// RemoveParticipant takes the participant out of the room and, even when
// the room lookup fails, severs and notifies any connection still indexed
// under that participant id.
func (s *Store) RemoveParticipant(roomID, participantID string) {
	s.mutate(roomID, func(r *room.Room) {
		r.RemoveParticipant(participantID)
	})

	s.connMu.Lock()
	if conn, ok := s.conns[participantID]; ok {
		s.push(conn, protocol.Kicked())
		delete(s.conns, participantID)
	}
	s.connMu.Unlock()
}

// SetVote records (or clears, with nil) a participant's vote.
func (s *Store) SetVote(roomID, participantID string, vote *string) {
	s.mutate(roomID, func(r *room.Room) {
		r.SetVote(participantID, vote)
	})
}

func (s *Store) SetVotesRevealed(roomID string, revealed bool) {
	s.mutate(roomID, func(r *room.Room) {
		r.VotesRevealed = revealed
	})
}

func (s *Store) ResetVotes(roomID string) {
	s.mutate(roomID, func(r *room.Room) {
		r.ResetVotes()
	})
}

func (s *Store) SetCurrentTicket(roomID string, ticket *room.Ticket) {
	s.mutate(roomID, func(r *room.Room) {
		r.CurrentTicket = ticket
	})
}

// MergeExternalUpdate reconciles relay-reported state into the local room:
// the participant list and the revealed flag are taken from the relay,
// current_ticket stays host-local.
func (s *Store) MergeExternalUpdate(remote room.Room) {
	ok := s.mutate(remote.ID, func(r *room.Room) {
		r.Participants = make([]room.Participant, len(remote.Participants))
		copy(r.Participants, remote.Participants)
		r.VotesRevealed = remote.VotesRevealed
	})
	if !ok {
		s.logger.Warn("relay update for unknown room", zap.String("room_id", remote.ID))
		return
	}
	s.logger.Debug("merged relay update",
		zap.String("room_id", remote.ID),
		zap.Int("participants", len(remote.Participants)))
}

// RegisterConnection indexes a participant's outbox for fanout. Independent
// of room existence.
func (s *Store) RegisterConnection(participantID, roomID string, outbox chan<- protocol.ServerMessage) {
	s.connMu.Lock()
	s.conns[participantID] = &Connection{
		ParticipantID: participantID,
		RoomID:        roomID,
		outbox:        outbox,
	}
	s.connMu.Unlock()
}

func (s *Store) UnregisterConnection(participantID string) {
	s.connMu.Lock()
	delete(s.conns, participantID)
	s.connMu.Unlock()
}

// BroadcastRoomUpdate re-reads the room and pushes one RoomUpdate to every
// connection bound to it. A full outbox on one connection never blocks or
// aborts delivery to the others.
func (s *Store) BroadcastRoomUpdate(roomID string) {
	r, ok := s.GetRoom(roomID)
	if !ok {
		return
	}
	msg := protocol.RoomUpdate(r)

	s.connMu.RLock()
	for _, conn := range s.conns {
		if conn.RoomID == roomID {
			s.push(conn, msg)
		}
	}
	s.connMu.RUnlock()
}

// push is best-effort: a full outbox means the connection is stalled or
// already dead, and its gateway's close path will clean it up.
func (s *Store) push(conn *Connection, msg protocol.ServerMessage) {
	select {
	case conn.outbox <- msg:
	default:
		s.logger.Warn("dropping message to slow connection",
			zap.String("participant_id", conn.ParticipantID),
			zap.String("room_id", conn.RoomID),
			zap.String("type", msg.Type))
	}
}
