package relay

import (
	"log"

	"liveboard/internal/room"
	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

// ConnectionLister is the slice of the registry the relay needs for global
// broadcasts. Local interface avoids coupling to the registry implementation.
type ConnectionLister interface {
	All() []interfaces.Connection
}

// Relay is the stateless fan-out half of the core: it takes one inbound
// event and delivers it to a target set of connections. Fire and forget:
// per-target write failures are logged and never retried, delivery rides on
// the transport's own ordering guarantees.
type Relay struct {
	registry ConnectionLister
	rooms    *room.Table
}

// NewRelay creates a relay over the given registry and room table.
func NewRelay(registry ConnectionLister, rooms *room.Table) *Relay {
	return &Relay{
		registry: registry,
		rooms:    rooms,
	}
}

// Broadcast delivers an event to every open connection. Used for the global
// teacherOnline/teacherOffline transitions that students must observe before
// joining any room.
func (r *Relay) Broadcast(ev types.Event) {
	for _, conn := range r.registry.All() {
		r.deliver(conn, ev)
	}
}

// ToRoom delivers an event to every member of a teacher's room.
func (r *Relay) ToRoom(teacherID string, ev types.Event) {
	for _, conn := range r.rooms.Members(teacherID) {
		r.deliver(conn, ev)
	}
}

// ToRoomExcept delivers an event to every room member except the sender, so
// a teacher never receives its own whiteboard echo.
func (r *Relay) ToRoomExcept(teacherID string, sender interfaces.Connection, ev types.Event) {
	senderID := ""
	if sender != nil {
		senderID = sender.ID()
	}
	for _, conn := range r.rooms.Members(teacherID) {
		if conn.ID() == senderID {
			continue
		}
		r.deliver(conn, ev)
	}
}

// ToConn delivers an event point-to-point: liveError rejections and the
// synthetic catch-up events sent on join and checkTeacherStatus.
func (r *Relay) ToConn(conn interfaces.Connection, ev types.Event) {
	if conn == nil {
		return
	}
	r.deliver(conn, ev)
}

func (r *Relay) deliver(conn interfaces.Connection, ev types.Event) {
	if err := conn.Send(ev); err != nil {
		log.Printf("Failed to deliver %s to connection %s: %v", ev.Type(), conn.ID(), err)
	}
}
