// Package shard implements the sharded coordinator: every room is one
// independently addressable stateful unit with a single event loop, and a
// stateless edge layer maps upgrade requests to shards by room name.
package shard

import (
	"hash/fnv"
	"strconv"

	"github.com/softcube/presence/internal/domain"
)

// ID addresses one shard. Derivation is a pure function of the sanitized
// room name: same input, same shard, always.
type ID string

func FromRoomName(name domain.RoomName) ID {
	h := fnv.New64a()
	h.Write([]byte(name))
	return ID(strconv.FormatUint(h.Sum64(), 16))
}

func (id ID) String() string { return string(id) }
