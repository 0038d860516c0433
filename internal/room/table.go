package room

import (
	"sync"

	"liveboard/pkg/interfaces"
)

// Table is the room membership table: teacherID -> set of observing student
// connections. A room exists only while its teacher is live; the table holds
// non-owning references, membership never extends connection lifetime.
type Table struct {
	mu    sync.RWMutex
	rooms map[string]map[string]interfaces.Connection // teacherID -> connID -> conn
}

// NewTable creates an empty membership table.
func NewTable() *Table {
	return &Table{
		rooms: make(map[string]map[string]interfaces.Connection),
	}
}

// Create opens a room for a teacher. Creating an existing room is a no-op so
// an idempotent teacher restart never disturbs current members.
func (t *Table) Create(teacherID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.rooms[teacherID]; !exists {
		t.rooms[teacherID] = make(map[string]interfaces.Connection)
	}
}

// Exists reports whether a room is open for the teacher.
func (t *Table) Exists(teacherID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, exists := t.rooms[teacherID]
	return exists
}

// Join adds a connection to a teacher's room. Joining a teacher who is not
// live is a no-op and returns false; the connection stays outside any room.
func (t *Table) Join(teacherID string, conn interfaces.Connection) bool {
	if conn == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	members, exists := t.rooms[teacherID]
	if !exists {
		return false
	}
	members[conn.ID()] = conn
	return true
}

// Leave removes a connection from a teacher's room. Safe to call for
// connections that were never members.
func (t *Table) Leave(teacherID string, conn interfaces.Connection) {
	if conn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if members, exists := t.rooms[teacherID]; exists {
		delete(members, conn.ID())
	}
}

// LeaveAll removes a connection from every room it belongs to. Used on
// disconnect where the room association may already be stale.
func (t *Table) LeaveAll(conn interfaces.Connection) {
	if conn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, members := range t.rooms {
		delete(members, conn.ID())
	}
}

// Members returns the current member connections of a teacher's room. The
// slice is a snapshot; callers may iterate without holding table locks.
func (t *Table) Members(teacherID string) []interfaces.Connection {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members, exists := t.rooms[teacherID]
	if !exists {
		return nil
	}

	conns := make([]interfaces.Connection, 0, len(members))
	for _, conn := range members {
		conns = append(conns, conn)
	}
	return conns
}

// MemberCount returns the size of a teacher's room, zero when no room exists.
func (t *Table) MemberCount(teacherID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rooms[teacherID])
}

// Destroy closes a teacher's room and returns the evicted members so the
// caller can notify them. Destroying a missing room returns nil.
func (t *Table) Destroy(teacherID string) []interfaces.Connection {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, exists := t.rooms[teacherID]
	if !exists {
		return nil
	}
	delete(t.rooms, teacherID)

	evicted := make([]interfaces.Connection, 0, len(members))
	for _, conn := range members {
		evicted = append(evicted, conn)
	}
	return evicted
}
