package shard

import (
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/softcube/presence/internal/domain"
	"github.com/softcube/presence/internal/metrics"
)

// Pool owns shard lifecycles. Each live shard is pinned by the number of
// connections handed out for it; the pool stops and forgets a shard when
// the last connection releases it, so an abandoned room costs nothing.
type Pool struct {
	mu     sync.Mutex
	shards map[ID]*Shard
	refs   map[ID]int

	ice []webrtc.ICEServer
	m   *metrics.Metrics
}

func NewPool(ice []webrtc.ICEServer, m *metrics.Metrics) *Pool {
	return &Pool{
		shards: make(map[ID]*Shard),
		refs:   make(map[ID]int),
		ice:    ice,
		m:      m,
	}
}

// Acquire resolves the shard for a sanitized room name, starting it on
// first use. The caller must pair every Acquire with one Release, after
// its connection's final event has been posted.
func (p *Pool) Acquire(room domain.RoomName) *Shard {
	id := FromRoomName(room)

	p.mu.Lock()
	defer p.mu.Unlock()

	sh, ok := p.shards[id]
	if !ok {
		sh = newShard(id, room, p.ice, p.m)
		p.shards[id] = sh
		go sh.run()
	}
	p.refs[id]++
	return sh
}

// Release drops one connection's pin. When the count reaches zero the
// shard's inbox is closed: its loop drains whatever is queued and exits.
// By then no goroutine may post to it, which Acquire/Release ordering
// guarantees.
func (p *Pool) Release(sh *Shard) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := sh.ID()
	if p.shards[id] != sh {
		return
	}
	p.refs[id]--
	if p.refs[id] > 0 {
		return
	}
	delete(p.shards, id)
	delete(p.refs, id)
	close(sh.inbox)
	log.Info().Str("module", "shard.pool").Str("shard", id.String()).Str("room", sh.Room().String()).Msg("shard released")
}

// Len reports the number of live shards.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shards)
}
