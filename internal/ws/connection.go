package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"liveboard/pkg/types"
)

const writeTimeout = 5 * time.Second

// Connection wraps a WebSocket connection behind the interfaces.Connection
// contract. All writes funnel through a single writer goroutine so concurrent
// fan-out never interleaves frames.
type Connection struct {
	id      string
	conn    *websocket.Conn
	writeCh chan []byte
	ctx     context.Context
	cancel  context.CancelFunc

	closeOnce sync.Once

	mu   sync.RWMutex // protects role and room association
	role types.Role
	room string
}

// NewConnection wraps an upgraded WebSocket connection and starts its writer
// goroutine. The id must be unique for the lifetime of the process.
func NewConnection(id string, conn *websocket.Conn, bufferSize int) *Connection {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:      id,
		conn:    conn,
		writeCh: make(chan []byte, bufferSize),
		ctx:     ctx,
		cancel:  cancel,
		role:    types.RoleUnknown,
	}

	go c.writeLoop()

	return c
}

// writeLoop is the single writer for the underlying connection.
func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string {
	return c.id
}

// Role returns the connection's current role.
func (c *Connection) Role() types.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// SetRole promotes the connection's role.
func (c *Connection) SetRole(role types.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = role
}

// Room returns the teacher room this connection is associated with.
func (c *Connection) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

// SetRoom updates the room association.
func (c *Connection) SetRoom(teacherID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = teacherID
}

// Send encodes an event and enqueues it on the outbound buffer. It never
// blocks on delivery: a full buffer or closed connection returns an error
// and the caller moves on.
func (c *Connection) Send(ev types.Event) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := types.Encode(ev)
	if err != nil {
		return err
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrWriteBufferFull
	}
}

// Close tears down the connection. Safe to call multiple times.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Done exposes the connection's lifetime context for goroutines tied to it.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}
