package hub

import (
	"context"
	"log"
	"sync"

	"liveboard/internal/live"
	"liveboard/internal/relay"
	"liveboard/internal/room"
	"liveboard/internal/ws"
	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

// Hub is the relay server core. The connection registry, room table and live
// slot are mutated only from the hub's single run goroutine, so each inbound
// event is handled to completion before the next.
type Hub struct {
	eventCh      chan *inboundEvent
	registerCh   chan interfaces.Connection
	unregisterCh chan interfaces.Connection
	shutdownCh   chan struct{}

	registry *ws.Registry
	rooms    *room.Table
	state    *live.State
	relay    *relay.Relay

	running bool
	mu      sync.RWMutex
}

// inboundEvent pairs a decoded event with its originating connection.
type inboundEvent struct {
	conn  interfaces.Connection
	event types.Event
}

// NewHub creates a hub over the given registry, room table and live state.
func NewHub(registry *ws.Registry, rooms *room.Table, state *live.State) *Hub {
	return &Hub{
		eventCh:      make(chan *inboundEvent, 1000),
		registerCh:   make(chan interfaces.Connection, 100),
		unregisterCh: make(chan interfaces.Connection, 100),
		shutdownCh:   make(chan struct{}),
		registry:     registry,
		rooms:        rooms,
		state:        state,
		relay:        relay.NewRelay(registry, rooms),
	}
}

// Start begins hub processing.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrHubAlreadyRunning
	}
	h.running = true
	h.mu.Unlock()

	log.Println("Starting relay hub...")

	go h.run(ctx)

	return nil
}

// Stop gracefully shuts down the hub.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return ErrHubNotRunning
	}
	h.running = false

	log.Println("Stopping relay hub...")

	select {
	case <-h.shutdownCh:
		// already closed
	default:
		close(h.shutdownCh)
	}

	return nil
}

// Register queues a connection for registration.
func (h *Hub) Register(conn interfaces.Connection) error {
	if err := h.checkRunning(); err != nil {
		return err
	}

	select {
	case h.registerCh <- conn:
		return nil
	default:
		return ErrRegisterChannelFull
	}
}

// Unregister queues a connection for teardown. Disconnect is never an error
// condition: a live teacher's disconnect triggers the same teardown as an
// explicit stop, a student's disconnect is an implicit leave.
func (h *Hub) Unregister(conn interfaces.Connection) error {
	if err := h.checkRunning(); err != nil {
		return err
	}

	select {
	case h.unregisterCh <- conn:
		return nil
	default:
		return ErrUnregisterChannelFull
	}
}

// Dispatch queues a decoded event from a connection for processing.
func (h *Hub) Dispatch(conn interfaces.Connection, ev types.Event) error {
	if err := h.checkRunning(); err != nil {
		return err
	}

	select {
	case h.eventCh <- &inboundEvent{conn: conn, event: ev}:
		return nil
	default:
		return ErrEventChannelFull
	}
}

func (h *Hub) checkRunning() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.running {
		return ErrHubNotRunning
	}
	return nil
}

// run is the single event-handling goroutine.
func (h *Hub) run(ctx context.Context) {
	defer log.Println("Hub processing stopped")

	for {
		select {
		case in := <-h.eventCh:
			h.handleEvent(in.conn, in.event)

		case conn := <-h.registerCh:
			h.handleRegister(conn)

		case conn := <-h.unregisterCh:
			h.handleUnregister(conn)

		case <-h.shutdownCh:
			log.Println("Hub shutdown requested")
			return

		case <-ctx.Done():
			log.Println("Hub context cancelled")
			return
		}
	}
}

// handleEvent dispatches one inbound event. Events that name a teacher who
// does not hold the live slot are dropped silently; stale and duplicate
// signals are idempotent no-ops by construction.
func (h *Hub) handleEvent(conn interfaces.Connection, ev types.Event) {
	if conn == nil || ev == nil {
		return
	}

	switch e := ev.(type) {
	case types.CheckTeacherStatus:
		h.handleCheckStatus(conn)
	case types.StartLive:
		h.handleStartLive(conn, e)
	case types.StopLive:
		h.handleStopLive(conn, e)
	case types.JoinTeacherRoom:
		h.handleJoin(conn, e)
	case types.LeaveTeacherRoom:
		h.handleLeave(conn, e)
	case types.WhiteboardUpdate:
		h.handleWhiteboard(conn, e)
	case types.AudioToggle:
		h.handleAudioToggle(conn, e)
	case types.AudioData:
		h.handleAudioData(conn, e)
	case types.SessionEnded:
		h.handleSessionEnded(conn, e)
	default:
		log.Printf("Dropping unroutable event type=%s conn=%s", ev.Type(), conn.ID())
	}
}

// handleCheckStatus replays the current live state to one connection so late
// joiners discover an already-live teacher.
func (h *Hub) handleCheckStatus(conn interfaces.Connection) {
	teacherID, ok := h.state.Current()
	if !ok {
		return
	}
	h.relay.ToConn(conn, types.TeacherOnline{TeacherID: teacherID, Timestamp: h.state.NextTimestamp()})
	if h.state.Audio(teacherID) {
		h.relay.ToConn(conn, types.AudioToggle{TeacherID: teacherID, Enabled: true})
	}
}

func (h *Hub) handleStartLive(conn interfaces.Connection, ev types.StartLive) {
	conn.SetRole(types.RoleTeacher)

	started, err := h.state.Start(ev.TeacherID)
	if err != nil {
		current, _ := h.state.Current()
		log.Printf("Rejected start: teacher=%s slot held by %s", ev.TeacherID, current)
		h.relay.ToConn(conn, types.LiveError{Message: "another teacher is currently live"})
		return
	}

	conn.SetRoom(ev.TeacherID)

	if !started {
		// Same teacher restarting (reconnect). Re-confirm to the requester
		// only; room membership and audio flag stay untouched.
		h.relay.ToConn(conn, types.TeacherOnline{TeacherID: ev.TeacherID, Timestamp: h.state.NextTimestamp()})
		return
	}

	h.rooms.Create(ev.TeacherID)
	log.Printf("Teacher live: teacher=%s conn=%s", ev.TeacherID, conn.ID())

	// Global broadcast: students must discover a newly-live teacher without
	// having joined the room yet.
	h.relay.Broadcast(types.TeacherOnline{TeacherID: ev.TeacherID, Timestamp: h.state.NextTimestamp()})
}

func (h *Hub) handleStopLive(conn interfaces.Connection, ev types.StopLive) {
	h.teardown(ev.TeacherID)
}

// teardown releases the slot, evicts and notifies room members, and fans out
// the terminal offline event. No-op unless teacherID holds the slot, which
// absorbs stale stops racing a disconnect.
func (h *Hub) teardown(teacherID string) {
	if !h.state.Stop(teacherID) {
		return
	}

	evicted := h.rooms.Destroy(teacherID)
	for _, member := range evicted {
		member.SetRoom("")
	}

	log.Printf("Teacher offline: teacher=%s evicted=%d", teacherID, len(evicted))
	h.relay.Broadcast(types.TeacherOffline{TeacherID: teacherID, Timestamp: h.state.NextTimestamp()})
}

// handleJoin adds a student to a live teacher's room. Joining a teacher who
// is not live does nothing but does not error. The joiner immediately gets a
// synthetic online catch-up, plus the audio flag if set.
func (h *Hub) handleJoin(conn interfaces.Connection, ev types.JoinTeacherRoom) {
	conn.SetRole(types.RoleStudent)

	if !h.rooms.Join(ev.TeacherID, conn) {
		return
	}
	conn.SetRoom(ev.TeacherID)

	h.relay.ToConn(conn, types.TeacherOnline{TeacherID: ev.TeacherID, Timestamp: h.state.NextTimestamp()})
	if h.state.Audio(ev.TeacherID) {
		h.relay.ToConn(conn, types.AudioToggle{TeacherID: ev.TeacherID, Enabled: true})
	}

	log.Printf("Student joined: teacher=%s conn=%s members=%d",
		ev.TeacherID, conn.ID(), h.rooms.MemberCount(ev.TeacherID))
}

func (h *Hub) handleLeave(conn interfaces.Connection, ev types.LeaveTeacherRoom) {
	h.rooms.Leave(ev.TeacherID, conn)
	if conn.Room() == ev.TeacherID {
		conn.SetRoom("")
	}
}

func (h *Hub) handleWhiteboard(conn interfaces.Connection, ev types.WhiteboardUpdate) {
	if !h.state.Holds(ev.TeacherID) {
		return
	}
	h.relay.ToRoomExcept(ev.TeacherID, conn, ev)
}

func (h *Hub) handleAudioToggle(conn interfaces.Connection, ev types.AudioToggle) {
	if !h.state.SetAudio(ev.TeacherID, ev.Enabled) {
		return
	}
	h.relay.ToRoom(ev.TeacherID, ev)
}

// handleAudioData signals audio availability to the room. The chunk itself
// is stored externally and never broadcast.
func (h *Hub) handleAudioData(conn interfaces.Connection, ev types.AudioData) {
	if !h.state.Holds(ev.TeacherID) {
		return
	}
	h.relay.ToRoom(ev.TeacherID, types.AudioAvailable{TeacherID: ev.TeacherID})
}

func (h *Hub) handleSessionEnded(conn interfaces.Connection, ev types.SessionEnded) {
	if !h.state.Holds(ev.TeacherID) {
		return
	}
	h.relay.ToRoom(ev.TeacherID, ev)
}

func (h *Hub) handleRegister(conn interfaces.Connection) {
	if conn == nil {
		log.Printf("Attempted to register nil connection")
		return
	}

	if err := h.registry.Register(conn); err != nil {
		log.Printf("Connection registration failed: conn=%s err=%v", conn.ID(), err)
		if closeErr := conn.Close(); closeErr != nil {
			log.Printf("Failed to close connection after registration failure: %v", closeErr)
		}
		return
	}
	log.Printf("Connection registered: conn=%s", conn.ID())
}

// handleUnregister processes a transport disconnect. Missing room membership
// is a no-op, not a fault.
func (h *Hub) handleUnregister(conn interfaces.Connection) {
	if conn == nil {
		return
	}

	h.registry.Unregister(conn)

	if conn.Role() == types.RoleTeacher && h.state.Holds(conn.Room()) {
		h.teardown(conn.Room())
	} else {
		h.rooms.LeaveAll(conn)
	}

	if err := conn.Close(); err != nil {
		log.Printf("Connection close on unregister: conn=%s err=%v", conn.ID(), err)
	}
	log.Printf("Connection deregistered: conn=%s", conn.ID())
}
