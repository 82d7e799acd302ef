// Package protocol defines the JSON signaling vocabulary exchanged with
// clients. Inbound frames decode into a closed set of message types so
// routing is an exhaustive type switch; outbound events are plain structs
// marshaled as-is.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/softcube/presence/internal/domain"
)

type Type string

const (
	TypeJoin       Type = "join"
	TypeNameUpdate Type = "name-update"
	TypeShareStart Type = "share-start"
	TypeShareStop  Type = "share-stop"
	TypePose       Type = "pose"
	TypeScreenPose Type = "screenpose"
	TypeOffer      Type = "offer"
	TypeAnswer     Type = "answer"
	TypeICE        Type = "ice"

	// Outbound only.
	TypeWelcome    Type = "welcome"
	TypePeers      Type = "peers"
	TypePeerJoined Type = "peer-joined"
	TypePeerLeft   Type = "peer-left"
)

var ErrUnknownType = errors.New("unknown message type")

// Message is the closed set of inbound signaling messages.
type Message interface {
	isMessage()
}

// Join registers the connection into a room, optionally with a display name.
type Join struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// NameUpdate sets or clears the sender's display name.
type NameUpdate struct {
	Name string `json:"name"`
}

// ShareStart announces a screen-share track and its initial position.
type ShareStart struct {
	TrackID  string          `json:"trackId"`
	Position domain.Position `json:"position"`
}

// ShareStop withdraws the sender's screen-share.
type ShareStop struct{}

// Pose is an avatar pose broadcast. The coordinator never inspects the
// payload, it only stamps the sender and fans it out.
type Pose struct {
	Position json.RawMessage `json:"position"`
	Rotation json.RawMessage `json:"rotation"`
}

// ScreenPose moves the sender's floating screen.
type ScreenPose struct {
	Position *domain.Position `json:"position"`
}

// Signal is a targeted session-negotiation envelope (offer, answer or
// ICE candidate). SDP and Candidate are relayed verbatim, never parsed.
type Signal struct {
	Kind      Type            `json:"-"`
	To        domain.ClientID `json:"to"`
	SDP       json.RawMessage `json:"sdp"`
	Candidate json.RawMessage `json:"candidate"`
}

func (Join) isMessage()       {}
func (NameUpdate) isMessage() {}
func (ShareStart) isMessage() {}
func (ShareStop) isMessage()  {}
func (Pose) isMessage()       {}
func (ScreenPose) isMessage() {}
func (Signal) isMessage()     {}

// Decode parses one inbound frame. The caller drops the frame on any
// error; no reply is ever produced for malformed input.
func Decode(data []byte) (Message, error) {
	var env struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case TypeJoin:
		var m Join
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode join: %w", err)
		}
		return m, nil
	case TypeNameUpdate:
		var m NameUpdate
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode name-update: %w", err)
		}
		return m, nil
	case TypeShareStart:
		var m ShareStart
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode share-start: %w", err)
		}
		return m, nil
	case TypeShareStop:
		return ShareStop{}, nil
	case TypePose:
		var m Pose
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode pose: %w", err)
		}
		return m, nil
	case TypeScreenPose:
		var m ScreenPose
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode screenpose: %w", err)
		}
		return m, nil
	case TypeOffer, TypeAnswer, TypeICE:
		var m Signal
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		m.Kind = env.Type
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}
