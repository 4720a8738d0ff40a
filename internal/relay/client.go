// Package relay mirrors locally hosted rooms through a public relay
// endpoint so participants without a direct route to this host can still
// join. The client keeps its own mirrored room list, fed only by relay
// events, independent of the local store.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/scrumdeck/poker-host/internal/protocol"
	"github.com/scrumdeck/poker-host/internal/room"
)

// DefaultURL is the fixed public relay endpoint.
const DefaultURL = "wss://scrum-poker-hydra.ngrok.dev"

const (
	defaultHeartbeatInterval = 30 * time.Second

	sendTimeout  = 10 * time.Second
	outboundSize = 64
	updatesSize  = 16
)

// Client is a live connection to the relay. There is no automatic
// reconnection: once the receive loop terminates the client is done and the
// caller connects again for a fresh one.
type Client struct {
	logger            *zap.Logger
	conn              *websocket.Conn
	cancel            context.CancelFunc
	out               chan protocol.RelayOutgoing
	updates           chan room.Room
	heartbeatInterval time.Duration

	mu        sync.RWMutex
	rooms     []room.Room
	relayURL  string
	connected bool
}

func newClient(logger *zap.Logger) *Client {
	return &Client{
		logger:  logger,
		out:     make(chan protocol.RelayOutgoing, outboundSize),
		updates: make(chan room.Room, updatesSize),
	}
}

// Connect dials the relay and registers this process as a host. Dial or
// handshake failure is returned synchronously and leaves no client behind.
// A non-positive heartbeat falls back to the default interval.
func Connect(ctx context.Context, rawURL string, heartbeat time.Duration, logger *zap.Logger) (*Client, error) {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	conn, _, err := websocket.Dial(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to relay %s: %w", rawURL, err)
	}
	logger.Info("connected to relay", zap.String("url", rawURL))

	c := newClient(logger)
	c.conn = conn
	c.relayURL = rawURL
	c.connected = true
	c.heartbeatInterval = heartbeat

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go c.sendLoop(runCtx)
	go c.receiveLoop(runCtx)
	go c.heartbeat(runCtx)

	c.enqueue(protocol.RelayOutgoing{Type: protocol.OutHostRegister})
	return c, nil
}

// Close stops the background loops and closes the transport. Dropping the
// handle without Close leaks the connection, so the manager always pairs
// replacement with Close.
func (c *Client) Close() {
	c.cancel()
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
	c.setConnected(false)
}

func (c *Client) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("encode relay message", zap.Error(err))
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			err = c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.logger.Error("send to relay failed", zap.Error(err))
				return
			}
		}
	}
}

// receiveLoop is the sole writer of the mirrored state; its termination is
// what flips the connected flag.
func (c *Client) receiveLoop(ctx context.Context) {
	defer close(c.updates)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				c.logger.Info("relay connection closed")
			} else {
				c.logger.Error("relay read failed", zap.Error(err))
			}
			c.setConnected(false)
			return
		}

		var msg protocol.RelayIncoming
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Error("parse relay message", zap.Error(err), zap.ByteString("raw", data))
			continue
		}
		c.apply(msg)
	}
}

// apply merges one relay event into the mirrored state.
func (c *Client) apply(msg protocol.RelayIncoming) {
	switch msg.Type {
	case protocol.InHostRegistered:
		c.mu.Lock()
		c.rooms = append([]room.Room(nil), msg.Rooms...)
		if msg.RelayURL != "" {
			c.relayURL = msg.RelayURL
		}
		c.mu.Unlock()
		c.logger.Info("registered with relay",
			zap.Int("existing_rooms", len(msg.Rooms)),
			zap.String("relay_url", msg.RelayURL))

	case protocol.InRoomCreated:
		if msg.Room == nil {
			return
		}
		c.mu.Lock()
		c.rooms = append(c.rooms, *msg.Room)
		c.mu.Unlock()
		c.logger.Info("relay room created", zap.String("room_id", msg.Room.ID))
		c.notify(*msg.Room)

	case protocol.InRoomSynced:
		// acknowledgement only

	case protocol.InRoomDeleted:
		c.mu.Lock()
		kept := c.rooms[:0]
		for _, r := range c.rooms {
			if r.ID != msg.RoomID {
				kept = append(kept, r)
			}
		}
		c.rooms = kept
		c.mu.Unlock()
		c.logger.Info("relay room deleted", zap.String("room_id", msg.RoomID))

	case protocol.InRoomUpdate:
		if msg.Room == nil {
			return
		}
		c.mu.Lock()
		replaced := false
		for i := range c.rooms {
			if c.rooms[i].ID == msg.Room.ID {
				c.rooms[i] = *msg.Room
				replaced = true
				break
			}
		}
		c.mu.Unlock()
		if !replaced {
			// room_created should always precede an update
			c.logger.Warn("relay update for unmirrored room", zap.String("room_id", msg.Room.ID))
			return
		}
		c.notify(*msg.Room)

	case protocol.InError:
		c.logger.Error("relay reported error", zap.String("message", msg.Message))

	case protocol.InPong:
		// heartbeat acknowledgement

	default:
		c.logger.Warn("unknown relay message type", zap.String("type", msg.Type))
	}
}

// heartbeat keeps the transport warm. A failed enqueue means the outbound
// side is wedged, so the task stops; the receive loop stays authoritative
// for the connected flag.
func (c *Client) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.enqueue(protocol.RelayOutgoing{Type: protocol.OutPing}) {
				return
			}
		}
	}
}

// enqueue is best-effort: local room operations never block on relay
// delivery.
func (c *Client) enqueue(msg protocol.RelayOutgoing) bool {
	select {
	case c.out <- msg:
		return true
	default:
		c.logger.Warn("relay outbound queue full, dropping message",
			zap.String("type", msg.Type))
		return false
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// Connected reports whether the receive loop is still running.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// RelayURL is the shareable public address, as reported by the relay.
func (c *Client) RelayURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relayURL
}

// Rooms snapshots the mirrored room list.
func (c *Client) Rooms() []room.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]room.Room, len(c.rooms))
	for i := range c.rooms {
		out[i] = c.rooms[i].Clone()
	}
	return out
}

// Room returns the mirrored entry with the given id.
func (c *Client) Room(roomID string) (room.Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.rooms {
		if c.rooms[i].ID == roomID {
			return c.rooms[i].Clone(), true
		}
	}
	return room.Room{}, false
}

// Updates delivers rooms the relay created or changed. The channel is
// bounded; when the consumer lags, events are dropped. The next update
// carries full state, so convergence is only delayed. Closed when the
// receive loop terminates.
func (c *Client) Updates() <-chan room.Room { return c.updates }

func (c *Client) notify(r room.Room) {
	select {
	case c.updates <- r:
	default:
		c.logger.Warn("relay update channel full, dropping event",
			zap.String("room_id", r.ID))
	}
}

// Host → relay operations. All fire-and-forget.

func (c *Client) CreateRoom(name string) {
	c.enqueue(protocol.RelayOutgoing{Type: protocol.OutHostCreateRoom, Name: name})
}

func (c *Client) SyncRoom(r room.Room) {
	c.enqueue(protocol.RelayOutgoing{Type: protocol.OutHostSyncRoom, Room: &r})
}

func (c *Client) DeleteRoom(roomID string) {
	c.enqueue(protocol.RelayOutgoing{Type: protocol.OutHostDeleteRoom, RoomID: roomID})
}

func (c *Client) RevealVotes(roomID string) {
	c.enqueue(protocol.RelayOutgoing{Type: protocol.OutHostRevealVotes, RoomID: roomID})
}

func (c *Client) HideVotes(roomID string) {
	c.enqueue(protocol.RelayOutgoing{Type: protocol.OutHostHideVotes, RoomID: roomID})
}

func (c *Client) ResetVotes(roomID string) {
	c.enqueue(protocol.RelayOutgoing{Type: protocol.OutHostResetVotes, RoomID: roomID})
}

func (c *Client) KickParticipant(roomID, participantID string) {
	c.enqueue(protocol.RelayOutgoing{
		Type:          protocol.OutHostKickParticipant,
		RoomID:        roomID,
		ParticipantID: participantID,
	})
}

func (c *Client) SetTicket(roomID string, ticket room.Ticket) {
	c.enqueue(protocol.RelayOutgoing{
		Type:   protocol.OutHostSetTicket,
		RoomID: roomID,
		Ticket: &ticket,
	})
}

func (c *Client) ClearTicket(roomID string) {
	c.enqueue(protocol.RelayOutgoing{Type: protocol.OutHostClearTicket, RoomID: roomID})
}
