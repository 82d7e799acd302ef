package protocol

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/softcube/presence/internal/domain"
)

// Welcome is the first frame on every connection: the assigned identity
// plus the ICE servers peers should use for their direct connections.
type Welcome struct {
	Type       Type               `json:"type"`
	ID         domain.ClientID    `json:"id"`
	ICEServers []webrtc.ICEServer `json:"iceServers,omitempty"`
}

func NewWelcome(id domain.ClientID, ice []webrtc.ICEServer) Welcome {
	return Welcome{Type: TypeWelcome, ID: id, ICEServers: ice}
}

// ShareInfo describes one member's active screen-share in a peers reply.
type ShareInfo struct {
	ID       domain.ClientID `json:"id"`
	TrackID  string          `json:"trackId"`
	Position domain.Position `json:"position"`
}

// PeersReply is the room snapshot sent to a joining connection. The
// joiner itself is excluded from all three fields.
type PeersReply struct {
	Type   Type                       `json:"type"`
	Peers  []domain.ClientID          `json:"peers"`
	Shares []ShareInfo                `json:"shares"`
	Names  map[domain.ClientID]string `json:"names,omitempty"`
}

func NewPeersReply(peers []domain.ClientID, shares []ShareInfo, names map[domain.ClientID]string) PeersReply {
	if peers == nil {
		peers = []domain.ClientID{}
	}
	if shares == nil {
		shares = []ShareInfo{}
	}
	return PeersReply{Type: TypePeers, Peers: peers, Shares: shares, Names: names}
}

type PeerJoined struct {
	Type Type            `json:"type"`
	ID   domain.ClientID `json:"id"`
	Name string          `json:"name,omitempty"`
}

func NewPeerJoined(id domain.ClientID, name string) PeerJoined {
	return PeerJoined{Type: TypePeerJoined, ID: id, Name: name}
}

type PeerLeft struct {
	Type Type            `json:"type"`
	ID   domain.ClientID `json:"id"`
}

func NewPeerLeft(id domain.ClientID) PeerLeft {
	return PeerLeft{Type: TypePeerLeft, ID: id}
}

type NameChanged struct {
	Type Type            `json:"type"`
	ID   domain.ClientID `json:"id"`
	Name string          `json:"name"`
}

func NewNameChanged(id domain.ClientID, name string) NameChanged {
	return NameChanged{Type: TypeNameUpdate, ID: id, Name: name}
}

type ShareStarted struct {
	Type     Type            `json:"type"`
	ID       domain.ClientID `json:"id"`
	TrackID  string          `json:"trackId"`
	Position domain.Position `json:"position"`
}

func NewShareStarted(id domain.ClientID, share domain.Share) ShareStarted {
	return ShareStarted{Type: TypeShareStart, ID: id, TrackID: share.TrackID, Position: share.Position}
}

type ShareStopped struct {
	Type Type            `json:"type"`
	ID   domain.ClientID `json:"id"`
}

func NewShareStopped(id domain.ClientID) ShareStopped {
	return ShareStopped{Type: TypeShareStop, ID: id}
}

type PoseEvent struct {
	Type     Type            `json:"type"`
	ID       domain.ClientID `json:"id"`
	Position json.RawMessage `json:"position,omitempty"`
	Rotation json.RawMessage `json:"rotation,omitempty"`
}

func NewPoseEvent(id domain.ClientID, m Pose) PoseEvent {
	return PoseEvent{Type: TypePose, ID: id, Position: m.Position, Rotation: m.Rotation}
}

type ScreenPoseEvent struct {
	Type     Type             `json:"type"`
	ID       domain.ClientID  `json:"id"`
	Position *domain.Position `json:"position,omitempty"`
}

func NewScreenPoseEvent(id domain.ClientID, pos *domain.Position) ScreenPoseEvent {
	return ScreenPoseEvent{Type: TypeScreenPose, ID: id, Position: pos}
}

// Relay is the forwarded form of a Signal: same opaque payload with the
// sender's identity stamped in.
type Relay struct {
	Type      Type            `json:"type"`
	From      domain.ClientID `json:"from"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

func NewRelay(from domain.ClientID, m Signal) Relay {
	return Relay{Type: m.Kind, From: from, SDP: m.SDP, Candidate: m.Candidate}
}
