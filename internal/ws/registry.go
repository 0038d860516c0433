package ws

import (
	"sync"

	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

// Registry owns every open connection, independent of any session. The room
// table and relay hold only non-owning references obtained from here.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]interfaces.Connection // connID -> conn
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]interfaces.Connection),
	}
}

// Register adds a connection. A second registration under the same id
// replaces the old entry; the stale connection is closed asynchronously to
// avoid blocking the caller.
func (r *Registry) Register(conn interfaces.Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.conns[conn.ID()]; ok && existing != conn {
		go existing.Close()
	}
	r.conns[conn.ID()] = conn
	return nil
}

// Unregister removes a connection. Idempotent, and guarded by connection
// identity so a stale connection's cleanup never evicts its replacement.
func (r *Registry) Unregister(conn interfaces.Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if registered, ok := r.conns[conn.ID()]; ok && registered == conn {
		delete(r.conns, conn.ID())
	}
}

// Get returns the connection registered under id.
func (r *Registry) Get(id string) (interfaces.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	return conn, ok
}

// All returns a snapshot of every registered connection.
func (r *Registry) All() []interfaces.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]interfaces.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

// Stats returns registry counters for the status API.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := map[string]int{
		"total_connections": len(r.conns),
	}
	for _, conn := range r.conns {
		switch conn.Role() {
		case types.RoleTeacher:
			stats["teacher_connections"]++
		case types.RoleStudent:
			stats["student_connections"]++
		}
	}
	return stats
}
