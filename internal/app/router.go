package app

import (
	"github.com/rs/zerolog/log"

	"github.com/softcube/presence/internal/core"
	"github.com/softcube/presence/internal/domain"
	"github.com/softcube/presence/internal/protocol"
)

// Handle routes one inbound frame from the identified connection.
// Malformed or unknown frames are dropped without a reply.
func (c *Coordinator) Handle(id domain.ClientID, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "app.router").Str("id", id.String()).Msg("dropping frame")
		c.m.Dropped()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch m := msg.(type) {
	case protocol.Join:
		c.m.Message(string(protocol.TypeJoin))
		c.handleJoin(id, m)
	case protocol.NameUpdate:
		c.m.Message(string(protocol.TypeNameUpdate))
		c.handleNameUpdate(id, m)
	case protocol.ShareStart:
		c.m.Message(string(protocol.TypeShareStart))
		c.handleShareStart(id, m)
	case protocol.ShareStop:
		c.m.Message(string(protocol.TypeShareStop))
		c.handleShareStop(id)
	case protocol.Pose:
		c.m.Message(string(protocol.TypePose))
		c.handlePose(id, m)
	case protocol.ScreenPose:
		c.m.Message(string(protocol.TypeScreenPose))
		c.handleScreenPose(id, m)
	case protocol.Signal:
		c.m.Message(string(m.Kind))
		c.handleSignal(id, m)
	}
}

// handleJoin registers the connection into the requested room. A repeat
// join is honored permissively but never duplicates membership: the
// connection fully leaves its current room first, peer-left and all.
func (c *Coordinator) handleJoin(id domain.ClientID, m protocol.Join) {
	conn, ok := c.clients[id]
	if !ok {
		return
	}

	roomName := domain.SanitizeRoomName(m.Room)
	if current, joined := c.roomOf[id]; joined {
		log.Info().Str("module", "app.router").Str("id", id.String()).
			Str("from", current.String()).Str("to", roomName.String()).Msg("rejoin")
		c.leaveLocked(id)
	}

	room := c.rooms[roomName]
	if room == nil {
		room = core.NewRoomState()
		c.rooms[roomName] = room
	}

	peers, shares, names := room.Peers(id)
	room.Add(id, conn)
	c.roomOf[id] = roomName

	name := domain.SanitizeDisplayName(m.Name)
	room.SetName(id, name)

	c.send(conn, protocol.NewPeersReply(peers, shares, names))
	c.broadcastLocked(room, id, protocol.NewPeerJoined(id, name))
	log.Info().Str("module", "app.router").Str("id", id.String()).Str("room", roomName.String()).Msg("joined")
}

func (c *Coordinator) handleNameUpdate(id domain.ClientID, m protocol.NameUpdate) {
	room, ok := c.roomStateOf(id)
	if !ok {
		return
	}
	name := domain.SanitizeDisplayName(m.Name)
	room.SetName(id, name)
	c.broadcastLocked(room, id, protocol.NewNameChanged(id, name))
}

func (c *Coordinator) handleShareStart(id domain.ClientID, m protocol.ShareStart) {
	room, ok := c.roomStateOf(id)
	if !ok || m.TrackID == "" {
		return
	}
	share := domain.Share{TrackID: m.TrackID, Position: m.Position}
	room.SetShare(id, share)
	c.broadcastLocked(room, id, protocol.NewShareStarted(id, share))
}

func (c *Coordinator) handleShareStop(id domain.ClientID) {
	room, ok := c.roomStateOf(id)
	if !ok {
		return
	}
	room.ClearShare(id)
	c.broadcastLocked(room, id, protocol.NewShareStopped(id))
}

func (c *Coordinator) handlePose(id domain.ClientID, m protocol.Pose) {
	room, ok := c.roomStateOf(id)
	if !ok {
		return
	}
	c.broadcastLocked(room, id, protocol.NewPoseEvent(id, m))
}

// handleScreenPose moves the sender's floating screen. The broadcast goes
// out even when no share is live, matching the last-write-wins contract
// for out-of-order share-stop/screenpose arrivals.
func (c *Coordinator) handleScreenPose(id domain.ClientID, m protocol.ScreenPose) {
	room, ok := c.roomStateOf(id)
	if !ok {
		return
	}
	if m.Position != nil {
		room.MoveShare(id, *m.Position)
	}
	c.broadcastLocked(room, id, protocol.NewScreenPoseEvent(id, m.Position))
}

// handleSignal relays an offer/answer/ice envelope verbatim to the target
// connection, stamping the sender. Unknown targets are silently dropped.
func (c *Coordinator) handleSignal(id domain.ClientID, m protocol.Signal) {
	target, ok := c.clients[m.To]
	if !ok {
		return
	}
	c.send(target, protocol.NewRelay(id, m))
}

func (c *Coordinator) roomStateOf(id domain.ClientID) (*core.RoomState, bool) {
	roomName, ok := c.roomOf[id]
	if !ok {
		return nil, false
	}
	room := c.rooms[roomName]
	return room, room != nil
}
