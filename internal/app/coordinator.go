// Package app implements the monolithic coordinator: one process holds
// every room, keyed by sanitized room name. All registries are fields of
// the Coordinator and are mutated only under its mutex, so handlers run
// to completion without interleaving.
package app

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/softcube/presence/internal/core"
	"github.com/softcube/presence/internal/domain"
	"github.com/softcube/presence/internal/metrics"
	"github.com/softcube/presence/internal/protocol"
)

type Coordinator struct {
	mu      sync.Mutex
	clients map[domain.ClientID]core.SignalConn
	roomOf  map[domain.ClientID]domain.RoomName
	rooms   map[domain.RoomName]*core.RoomState

	ice []webrtc.ICEServer
	m   *metrics.Metrics
}

func NewCoordinator(ice []webrtc.ICEServer, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		clients: make(map[domain.ClientID]core.SignalConn),
		roomOf:  make(map[domain.ClientID]domain.RoomName),
		rooms:   make(map[domain.RoomName]*core.RoomState),
		ice:     ice,
		m:       m,
	}
}

// Register stores the transport handle and greets the connection with its
// assigned identity.
func (c *Coordinator) Register(id domain.ClientID, conn core.SignalConn) {
	c.mu.Lock()
	c.clients[id] = conn
	c.mu.Unlock()
	c.m.ConnOpened()

	c.send(conn, protocol.NewWelcome(id, c.ice))
	log.Info().Str("module", "app.coordinator").Str("id", id.String()).Msg("connection registered")
}

// Disconnect tears the connection down: room membership, share and name
// entries go together, and remaining room members get one peer-left.
// Safe to call for a connection that never joined.
func (c *Coordinator) Disconnect(id domain.ClientID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.clients[id]; !ok {
		return
	}
	delete(c.clients, id)
	c.m.ConnClosed()

	c.leaveLocked(id)
	log.Info().Str("module", "app.coordinator").Str("id", id.String()).Msg("connection closed")
}

// leaveLocked removes id from its room, drops the room when emptied and
// broadcasts peer-left to whoever stays. No-op when id never joined.
func (c *Coordinator) leaveLocked(id domain.ClientID) {
	roomName, ok := c.roomOf[id]
	if !ok {
		return
	}
	delete(c.roomOf, id)

	room := c.rooms[roomName]
	if room == nil {
		return
	}
	room.Remove(id)
	if room.Empty() {
		delete(c.rooms, roomName)
		log.Info().Str("module", "app.coordinator").Str("room", roomName.String()).Msg("room emptied")
		return
	}
	c.broadcastLocked(room, id, protocol.NewPeerLeft(id))
}

// RoomInfo is the read-only room listing for the HTTP API.
type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

func (c *Coordinator) Rooms() []RoomInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RoomInfo, 0, len(c.rooms))
	for name, room := range c.rooms {
		out = append(out, RoomInfo{Name: name, MemberCount: room.Len()})
	}
	return out
}

// send marshals and fire-and-forgets one frame. A full or closed peer
// loses the frame; the failure never reaches the sender's handler.
func (c *Coordinator) send(conn core.SignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("marshal event")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		c.m.Dropped()
	}
}

func (c *Coordinator) broadcastLocked(room *core.RoomState, from domain.ClientID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("marshal broadcast")
		return
	}
	room.Each(from, func(_ domain.ClientID, conn core.SignalConn) {
		if err := conn.TrySend(core.Frame(b)); err != nil {
			c.m.Dropped()
			return
		}
		c.m.Broadcast()
	})
}
