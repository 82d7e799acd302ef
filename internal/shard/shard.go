package shard

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/softcube/presence/internal/core"
	"github.com/softcube/presence/internal/domain"
	"github.com/softcube/presence/internal/metrics"
	"github.com/softcube/presence/internal/protocol"
)

// Shard holds exactly one room. All state is confined to the run loop:
// the exported methods only post events to the inbox, so handlers are a
// single logical thread of control and never interleave.
type Shard struct {
	id    ID
	room  domain.RoomName
	inbox chan event

	// Touched only by the run loop.
	conns map[domain.ClientID]core.SignalConn
	state *core.RoomState

	ice []webrtc.ICEServer
	m   *metrics.Metrics
}

type event interface{ isEvent() }

type evConnect struct {
	id   domain.ClientID
	conn core.SignalConn
}

type evFrame struct {
	id   domain.ClientID
	data []byte
}

type evClose struct {
	id domain.ClientID
}

func (evConnect) isEvent() {}
func (evFrame) isEvent()   {}
func (evClose) isEvent()   {}

func newShard(id ID, room domain.RoomName, ice []webrtc.ICEServer, m *metrics.Metrics) *Shard {
	return &Shard{
		id:    id,
		room:  room,
		inbox: make(chan event, 64),
		conns: make(map[domain.ClientID]core.SignalConn),
		state: core.NewRoomState(),
		ice:   ice,
		m:     m,
	}
}

func (s *Shard) ID() ID                { return s.id }
func (s *Shard) Room() domain.RoomName { return s.room }

// Connect hands a freshly upgraded connection to the shard.
func (s *Shard) Connect(id domain.ClientID, conn core.SignalConn) {
	s.inbox <- evConnect{id: id, conn: conn}
}

// Frame posts one inbound frame.
func (s *Shard) Frame(id domain.ClientID, data []byte) {
	s.inbox <- evFrame{id: id, data: data}
}

// Disconnect posts the teardown for id. Must be the connection's last
// event; the pool release that follows may stop the shard.
func (s *Shard) Disconnect(id domain.ClientID) {
	s.inbox <- evClose{id: id}
}

// run drains the inbox until the pool closes it.
func (s *Shard) run() {
	log.Info().Str("module", "shard").Str("shard", s.id.String()).Str("room", s.room.String()).Msg("shard started")
	for ev := range s.inbox {
		switch ev := ev.(type) {
		case evConnect:
			s.handleConnect(ev.id, ev.conn)
		case evFrame:
			s.handleFrame(ev.id, ev.data)
		case evClose:
			s.handleClose(ev.id)
		}
	}
	log.Info().Str("module", "shard").Str("shard", s.id.String()).Msg("shard stopped")
}

func (s *Shard) handleConnect(id domain.ClientID, conn core.SignalConn) {
	s.conns[id] = conn
	s.m.ConnOpened()
	s.send(conn, protocol.NewWelcome(id, s.ice))
}

// handleClose is the teardown path: registry deletion always, peer-left
// only if the connection had joined.
func (s *Shard) handleClose(id domain.ClientID) {
	if _, ok := s.conns[id]; !ok {
		return
	}
	delete(s.conns, id)
	s.m.ConnClosed()
	if s.state.Remove(id) {
		s.broadcast(id, protocol.NewPeerLeft(id))
	}
}

func (s *Shard) handleFrame(id domain.ClientID, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "shard").Str("id", id.String()).Msg("dropping frame")
		s.m.Dropped()
		return
	}

	switch m := msg.(type) {
	case protocol.Join:
		s.m.Message(string(protocol.TypeJoin))
		s.handleJoin(id, m)
	case protocol.NameUpdate:
		s.m.Message(string(protocol.TypeNameUpdate))
		s.handleNameUpdate(id, m)
	case protocol.ShareStart:
		s.m.Message(string(protocol.TypeShareStart))
		s.handleShareStart(id, m)
	case protocol.ShareStop:
		s.m.Message(string(protocol.TypeShareStop))
		s.handleShareStop(id)
	case protocol.Pose:
		s.m.Message(string(protocol.TypePose))
		s.handlePose(id, m)
	case protocol.ScreenPose:
		s.m.Message(string(protocol.TypeScreenPose))
		s.handleScreenPose(id, m)
	case protocol.Signal:
		s.m.Message(string(m.Kind))
		s.handleSignal(id, m)
	}
}

// handleJoin adds the connection to the room. The shard guards single
// join: a repeat join from a member is a no-op. The room name itself was
// already fixed by the edge layer; the payload's room field is ignored.
func (s *Shard) handleJoin(id domain.ClientID, m protocol.Join) {
	conn, ok := s.conns[id]
	if !ok || s.state.Has(id) {
		return
	}

	peers, shares, names := s.state.Peers(id)
	s.state.Add(id, conn)

	name := domain.SanitizeDisplayName(m.Name)
	s.state.SetName(id, name)

	s.send(conn, protocol.NewPeersReply(peers, shares, names))
	s.broadcast(id, protocol.NewPeerJoined(id, name))
}

func (s *Shard) handleNameUpdate(id domain.ClientID, m protocol.NameUpdate) {
	if !s.state.Has(id) {
		return
	}
	name := domain.SanitizeDisplayName(m.Name)
	s.state.SetName(id, name)
	s.broadcast(id, protocol.NewNameChanged(id, name))
}

func (s *Shard) handleShareStart(id domain.ClientID, m protocol.ShareStart) {
	if !s.state.Has(id) || m.TrackID == "" {
		return
	}
	share := domain.Share{TrackID: m.TrackID, Position: m.Position}
	s.state.SetShare(id, share)
	s.broadcast(id, protocol.NewShareStarted(id, share))
}

func (s *Shard) handleShareStop(id domain.ClientID) {
	if !s.state.Has(id) {
		return
	}
	s.state.ClearShare(id)
	s.broadcast(id, protocol.NewShareStopped(id))
}

func (s *Shard) handlePose(id domain.ClientID, m protocol.Pose) {
	if !s.state.Has(id) {
		return
	}
	s.broadcast(id, protocol.NewPoseEvent(id, m))
}

func (s *Shard) handleScreenPose(id domain.ClientID, m protocol.ScreenPose) {
	if !s.state.Has(id) {
		return
	}
	if m.Position != nil {
		s.state.MoveShare(id, *m.Position)
	}
	s.broadcast(id, protocol.NewScreenPoseEvent(id, m.Position))
}

// handleSignal relays within this shard only; there is no cross-room
// signaling in the sharded variant.
func (s *Shard) handleSignal(id domain.ClientID, m protocol.Signal) {
	target, ok := s.conns[m.To]
	if !ok {
		return
	}
	s.send(target, protocol.NewRelay(id, m))
}

func (s *Shard) send(conn core.SignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "shard").Msg("marshal event")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		s.m.Dropped()
	}
}

func (s *Shard) broadcast(from domain.ClientID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "shard").Msg("marshal broadcast")
		return
	}
	s.state.Each(from, func(_ domain.ClientID, conn core.SignalConn) {
		if err := conn.TrySend(core.Frame(b)); err != nil {
			s.m.Dropped()
			return
		}
		s.m.Broadcast()
	})
}
