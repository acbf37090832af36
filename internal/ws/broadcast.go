package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// sendBuffer bounds how many undelivered messages a session may queue
// before it is considered dead. Status transitions are rare, so a small
// buffer already means the peer stopped reading long ago.
const sendBuffer = 16

// shutdownGrace bounds how long a session's final writes may take once
// shutdown begins.
const shutdownGrace = 2 * time.Second

var ErrTooManyConnections = errors.New("ws: connection limit reached")

// client is one live outbound session. The broadcaster owns it from
// AddClient until removal; the connection's read loop only holds it to
// detect peer closure.
type client struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
	b    *Broadcaster
}

// writePump drains the send channel onto the wire. It is the only
// writer to the connection, so per-session delivery order matches
// publish order. When the channel is closed it attempts a normal
// closure handshake and releases the transport.
func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
	deadline := time.Now().Add(shutdownGrace)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

// Broadcaster is the process-wide session registry plus the fan-out
// path. All map mutation happens under mu; a broadcast pass holds the
// lock for its whole iteration, which is fine at this load profile
// (one message per status transition, tens of sessions).
type Broadcaster struct {
	mu       sync.Mutex
	clients  map[uint64]*client
	nextID   uint64
	maxConns int
}

// NewBroadcaster creates an empty registry. maxConns of 0 means
// unlimited.
func NewBroadcaster(maxConns int) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[uint64]*client),
		maxConns: maxConns,
	}
}

// AddClient registers an upgraded connection as a live session and
// starts its write pump. Ownership of conn transfers to the registry.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	b.nextID++
	c := &client{
		id:   b.nextID,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		b:    b,
	}
	b.clients[c.id] = c
	b.mu.Unlock()

	go c.writePump()
	return c, nil
}

// RemoveClient unregisters the session. Safe to call from both the
// read loop and the write pump regardless of which noticed the failure
// first.
func (b *Broadcaster) RemoveClient(c *client) {
	b.Remove(c.id)
}

// Remove unregisters a session by id. Removal is idempotent: the map
// membership check guarantees the send channel is closed exactly once,
// and removing an unknown id is a no-op.
func (b *Broadcaster) Remove(id uint64) {
	b.mu.Lock()
	if c, ok := b.clients[id]; ok {
		delete(b.clients, id)
		close(c.send)
	}
	b.mu.Unlock()
}

// Publish serializes the event once and fans it out to every live
// session.
func (b *Broadcaster) Publish(ev StatusEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("status event marshal error: %v", err)
		return
	}
	b.Broadcast(data)
}

// Broadcast queues payload on every live session. A session whose
// buffer is full has stopped reading; it is pruned in the same pass
// without affecting delivery to the rest. Sends and channel closes are
// both serialized by mu, so a concurrent Remove cannot race a send.
func (b *Broadcaster) Broadcast(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("ws session %d not keeping up, dropping", id)
			delete(b.clients, id)
			close(c.send)
		}
	}
}

// ClientCount returns the number of live sessions. Diagnostics only.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Shutdown closes every live session with a best-effort normal-closure
// signal. WriteControl and Close are the only connection methods safe
// to call while a write pump is mid-frame; the shared absolute deadline
// bounds the close frames as a group, and Close unblocks any pump still
// stuck writing to a peer that stopped reading.
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	clients := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.clients = make(map[uint64]*client)
	for _, c := range clients {
		close(c.send)
	}
	b.mu.Unlock()

	deadline := time.Now().Add(shutdownGrace)
	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.conn.Close()
	}
}
