// Package ws adapts a gorilla websocket into the coordinator's
// core.SignalConn: a buffered send channel drained by a write pump, a
// read pump feeding frames to the router, and an idempotent Close.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/softcube/presence/internal/core"
)

const writeWait = 5 * time.Second

// Conn is one client transport session. It implements core.SignalConn.
type Conn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func NewConn(conn *websocket.Conn, sendBuf int) *Conn {
	return &Conn{
		conn: conn,
		send: make(chan core.Frame, sendBuf),
	}
}

// TrySend queues a frame without blocking. Delivery is fire-and-forget:
// a full buffer or a closed connection loses the frame.
func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrBackpressure
	}
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// WriteLoop pumps frames to the network and keeps the transport alive
// with periodic pings. It owns the websocket for writing and closes the
// connection on exit.
func (c *Conn) WriteLoop(ctx context.Context, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadLoop reads frames and hands them to onFrame until the transport
// reports close or error. It runs in the caller's goroutine; the caller
// performs teardown when it returns.
func (c *Conn) ReadLoop(ctx context.Context, readLimit int64, pingPeriod time.Duration, onFrame func([]byte)) {
	pongWait := pingPeriod * 10 / 9
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			onFrame(data)
		}
	}
}
