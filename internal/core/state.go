package core

import (
	"github.com/softcube/presence/internal/domain"
	"github.com/softcube/presence/internal/protocol"
)

// RoomState is the in-memory state of one room: who is present, who is
// sharing what, under what display name. It is not locked itself — the
// monolithic coordinator guards it with its own mutex and each shard
// confines its state to one event loop, so mutations are always atomic
// with respect to each other.
type RoomState struct {
	members map[domain.ClientID]SignalConn
	shares  map[domain.ClientID]domain.Share
	names   map[domain.ClientID]string
}

func NewRoomState() *RoomState {
	return &RoomState{
		members: make(map[domain.ClientID]SignalConn),
		shares:  make(map[domain.ClientID]domain.Share),
		names:   make(map[domain.ClientID]string),
	}
}

func (s *RoomState) Add(id domain.ClientID, conn SignalConn) {
	s.members[id] = conn
}

// Remove deletes the member together with its share and name entries, so
// a torn-down identity is never left referenced anywhere. Reports whether
// the identity was a member.
func (s *RoomState) Remove(id domain.ClientID) bool {
	_, ok := s.members[id]
	delete(s.members, id)
	delete(s.shares, id)
	delete(s.names, id)
	return ok
}

func (s *RoomState) Has(id domain.ClientID) bool {
	_, ok := s.members[id]
	return ok
}

func (s *RoomState) Len() int    { return len(s.members) }
func (s *RoomState) Empty() bool { return len(s.members) == 0 }

func (s *RoomState) Conn(id domain.ClientID) (SignalConn, bool) {
	c, ok := s.members[id]
	return c, ok
}

func (s *RoomState) SetShare(id domain.ClientID, share domain.Share) {
	s.shares[id] = share
}

func (s *RoomState) ClearShare(id domain.ClientID) {
	delete(s.shares, id)
}

// MoveShare updates the position of an existing share. A no-op when the
// member is not sharing (a lagging screenpose after share-stop).
func (s *RoomState) MoveShare(id domain.ClientID, pos domain.Position) bool {
	share, ok := s.shares[id]
	if !ok {
		return false
	}
	share.Position = pos
	s.shares[id] = share
	return true
}

// SetName stores the sanitized display name; an empty name clears the
// entry ("no name" is absence, not an empty string).
func (s *RoomState) SetName(id domain.ClientID, name string) {
	if name == "" {
		delete(s.names, id)
		return
	}
	s.names[id] = name
}

// Peers snapshots the room for a joining connection, excluding the joiner.
func (s *RoomState) Peers(exclude domain.ClientID) ([]domain.ClientID, []protocol.ShareInfo, map[domain.ClientID]string) {
	peers := make([]domain.ClientID, 0, len(s.members))
	shares := make([]protocol.ShareInfo, 0)
	var names map[domain.ClientID]string
	for id := range s.members {
		if id == exclude {
			continue
		}
		peers = append(peers, id)
		if share, ok := s.shares[id]; ok {
			shares = append(shares, protocol.ShareInfo{ID: id, TrackID: share.TrackID, Position: share.Position})
		}
		if name, ok := s.names[id]; ok {
			if names == nil {
				names = make(map[domain.ClientID]string)
			}
			names[id] = name
		}
	}
	return peers, shares, names
}

// Each visits every member but the sender. Callers snapshot or hold their
// instance's lock around the call, so a teardown cannot corrupt the walk.
func (s *RoomState) Each(exclude domain.ClientID, fn func(domain.ClientID, SignalConn)) {
	for id, conn := range s.members {
		if id == exclude {
			continue
		}
		fn(id, conn)
	}
}
