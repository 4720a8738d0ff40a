package relay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scrumdeck/poker-host/internal/room"
	"github.com/scrumdeck/poker-host/internal/store"
)

// Manager owns the current relay client, if any, and bridges its update
// stream back into the local store: relay-reported rooms are merged and the
// change fanned out to local session connections.
type Manager struct {
	logger    *zap.Logger
	store     *store.Store
	heartbeat time.Duration

	mu     sync.RWMutex
	client *Client
}

// NewManager builds a disconnected manager. A non-positive heartbeat means
// the client's default interval.
func NewManager(st *store.Store, heartbeat time.Duration, logger *zap.Logger) *Manager {
	return &Manager{logger: logger, store: st, heartbeat: heartbeat}
}

// Connect establishes a fresh relay client, replacing (and closing) any
// previous one. Already-connected is not an error; the current URL is
// returned.
func (m *Manager) Connect(ctx context.Context, rawURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil && m.client.Connected() {
		return m.client.RelayURL(), nil
	}

	c, err := Connect(ctx, rawURL, m.heartbeat, m.logger)
	if err != nil {
		return "", err
	}
	if m.client != nil {
		m.client.Close()
	}
	m.client = c
	go m.pump(c)
	return c.RelayURL(), nil
}

// pump runs until the client's receive loop closes its update channel.
func (m *Manager) pump(c *Client) {
	for r := range c.Updates() {
		m.store.MergeExternalUpdate(r)
		m.store.BroadcastRoomUpdate(r.ID)
	}
}

// Disconnect drops the current client. No-op when none is held.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
}

func (m *Manager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil && m.client.Connected()
}

// URL returns the shareable relay address when connected.
func (m *Manager) URL() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil || !m.client.Connected() {
		return "", false
	}
	return m.client.RelayURL(), true
}

// current returns the client only while it is live; mirroring is skipped
// entirely otherwise.
func (m *Manager) current() *Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil || !m.client.Connected() {
		return nil
	}
	return m.client
}

// Mirroring hooks, called after local mutations. All no-ops when no relay
// is connected; none of them can fail the local operation.

func (m *Manager) MirrorSyncRoom(r room.Room) {
	if c := m.current(); c != nil {
		c.SyncRoom(r)
	}
}

func (m *Manager) MirrorDeleteRoom(roomID string) {
	if c := m.current(); c != nil {
		c.DeleteRoom(roomID)
	}
}

func (m *Manager) MirrorRevealVotes(roomID string) {
	if c := m.current(); c != nil {
		c.RevealVotes(roomID)
	}
}

func (m *Manager) MirrorHideVotes(roomID string) {
	if c := m.current(); c != nil {
		c.HideVotes(roomID)
	}
}

func (m *Manager) MirrorResetVotes(roomID string) {
	if c := m.current(); c != nil {
		c.ResetVotes(roomID)
	}
}

func (m *Manager) MirrorKickParticipant(roomID, participantID string) {
	if c := m.current(); c != nil {
		c.KickParticipant(roomID, participantID)
	}
}

func (m *Manager) MirrorSetTicket(roomID string, ticket room.Ticket) {
	if c := m.current(); c != nil {
		c.SetTicket(roomID, ticket)
	}
}

func (m *Manager) MirrorClearTicket(roomID string) {
	if c := m.current(); c != nil {
		c.ClearTicket(roomID)
	}
}
