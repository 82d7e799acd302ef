// Package core holds the coordinator's transport abstraction and the
// per-room state shared by both deployment variants. It owns membership,
// shares and names but never touches transport resources.
package core

import "errors"

// Frame is one raw outbound payload (a marshaled JSON event).
type Frame []byte

var ErrBackpressure = errors.New("backpressure")

// SignalConn is a transport endpoint for one connection.
// Owned by the adapter; the adapter must Close() it.
type SignalConn interface {
	// TrySend queues a frame without blocking. It fails on a full or
	// closed peer, and the caller is expected to ignore the failure:
	// delivery is fire-and-forget.
	TrySend(Frame) error
	Close()
}
