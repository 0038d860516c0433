package client

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"liveboard/pkg/types"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	clientWriteTimeout = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// Client maintains a student's WebSocket connection to the relay server. It
// reconnects automatically with exponential backoff and replays the minimal
// catch-up sequence after each (re)connect: checkTeacherStatus, then rejoin
// of the room being observed.
type Client struct {
	url        string
	controller *Controller

	mu      sync.Mutex
	writeMu sync.Mutex // serializes all conn writes
	conn    *websocket.Conn
	joined  string // teacher room to rejoin after reconnect
}

// NewClient creates a client that connects to the given WebSocket URL and
// feeds received events into the controller.
func NewClient(url string, controller *Controller) *Client {
	return &Client{
		url:        url,
		controller: controller,
	}
}

// Run connects and processes events until ctx is cancelled. Dial failures
// and dropped connections retry with exponential backoff.
func (c *Client) Run(ctx context.Context) error {
	delay := reconnectBaseDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			log.Printf("Dial failed: %v (retry in %v)", err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}
		delay = reconnectBaseDelay

		c.mu.Lock()
		c.conn = conn
		joined := c.joined
		c.mu.Unlock()

		// Catch up on the live slot before processing the stream; the
		// server replies with a synthetic teacherOnline if one is live.
		if err := c.send(types.CheckTeacherStatus{}); err != nil {
			log.Printf("Status check failed: %v", err)
		}
		if joined != "" {
			if err := c.send(types.JoinTeacherRoom{TeacherID: joined}); err != nil {
				log.Printf("Room rejoin failed: teacher=%s err=%v", joined, err)
			}
		}

		if err := c.readLoop(ctx, conn); err != nil {
			log.Printf("Connection lost: %v", err)
		}

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		_ = conn.Close()
	}
}

// readLoop reads events from one connection until it fails or ctx ends.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	if err := conn.SetReadDeadline(time.Now().Add(pongTimeout)); err != nil {
		return err
	}

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go c.pingLoop(pingCtx, conn)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		ev, err := types.Decode(data)
		if err != nil {
			log.Printf("Dropping malformed server event: %v", err)
			continue
		}
		c.controller.HandleEvent(ev)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(clientWriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Join subscribes to a teacher's room. The subscription survives reconnects
// until Leave is called.
func (c *Client) Join(teacherID string) error {
	if !types.IsValidTeacherID(teacherID) {
		return types.ErrInvalidTeacherID
	}

	c.mu.Lock()
	c.joined = teacherID
	c.mu.Unlock()

	return c.send(types.JoinTeacherRoom{TeacherID: teacherID})
}

// Leave unsubscribes from a teacher's room.
func (c *Client) Leave(teacherID string) error {
	c.mu.Lock()
	if c.joined == teacherID {
		c.joined = ""
	}
	c.mu.Unlock()

	return c.send(types.LeaveTeacherRoom{TeacherID: teacherID})
}

// send encodes and writes one event on the current connection.
func (c *Client) send(ev types.Event) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := types.Encode(ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(clientWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
