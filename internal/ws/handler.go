package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the deployment's reverse proxy.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Hub is the subset of the relay hub the handler drives. Local interface
// keeps the transport layer decoupled from hub internals.
type Hub interface {
	Register(conn interfaces.Connection) error
	Unregister(conn interfaces.Connection) error
	Dispatch(conn interfaces.Connection, ev types.Event) error
}

// Options tunes per-connection transport behavior.
type Options struct {
	PingInterval time.Duration
	ReadTimeout  time.Duration
	BufferSize   int
}

// DefaultOptions returns transport settings suitable for classroom scale.
func DefaultOptions() Options {
	return Options{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		BufferSize:   100,
	}
}

// Handler upgrades HTTP requests to WebSocket connections and pumps decoded
// events into the hub.
type Handler struct {
	hub  Hub
	opts Options
}

// NewHandler creates a WebSocket handler bound to a hub.
func NewHandler(hub Hub, opts Options) *Handler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultOptions().PingInterval
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultOptions().ReadTimeout
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	return &Handler{hub: hub, opts: opts}
}

// HandleWebSocket upgrades the request and registers the connection. Every
// accepted connection starts with role unknown; the first start/join event
// it sends classifies it.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn := NewConnection(uuid.New().String(), raw, h.opts.BufferSize)

	if err := h.hub.Register(conn); err != nil {
		log.Printf("Failed to register connection: %v", err)
		_ = conn.Close()
		return
	}

	go h.readPump(conn)
}

// readPump reads, decodes and validates inbound frames, forwarding them to
// the hub. It owns connection teardown: on any read error the connection is
// unregistered, which the hub treats as an implicit stop or leave.
func (h *Handler) readPump(conn *Connection) {
	defer func() {
		if err := h.hub.Unregister(conn); err != nil {
			// Hub already stopped; close directly so the socket is released.
			_ = conn.Close()
		}
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
		log.Printf("Failed to set read deadline: %v", err)
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-conn.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: conn=%s err=%v", conn.ID(), err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		ev, err := types.Decode(data)
		if err != nil {
			log.Printf("Dropping malformed event: conn=%s err=%v", conn.ID(), err)
			continue
		}
		if err := ev.Validate(); err != nil {
			log.Printf("Dropping invalid event: conn=%s type=%s err=%v", conn.ID(), ev.Type(), err)
			continue
		}

		if err := h.hub.Dispatch(conn, ev); err != nil {
			log.Printf("Event dispatch failed: conn=%s type=%s err=%v", conn.ID(), ev.Type(), err)
		}
	}
}
