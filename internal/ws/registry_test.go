package ws

import (
	"sync"
	"testing"

	"liveboard/pkg/types"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	role   types.Role
	room   string
	closed bool
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Role() types.Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

func (c *fakeConn) SetRole(role types.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = role
}

func (c *fakeConn) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *fakeConn) SetRoom(teacherID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = teacherID
}

func (c *fakeConn) Send(ev types.Event) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{id: "c1"}

	if err := r.Register(conn); err != nil {
		t.Fatalf("Expected no error registering, got %v", err)
	}

	got, ok := r.Get("c1")
	if !ok {
		t.Fatal("Expected connection to be registered")
	}
	if got.ID() != "c1" {
		t.Errorf("Expected c1, got %s", got.ID())
	}
}

func TestRegistry_RegisterNil(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); err != ErrNilConnection {
		t.Errorf("Expected ErrNilConnection, got %v", err)
	}
}

func TestRegistry_UnregisterIdentityGuard(t *testing.T) {
	r := NewRegistry()
	old := &fakeConn{id: "c1"}
	replacement := &fakeConn{id: "c1"}

	if err := r.Register(old); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if err := r.Register(replacement); err != nil {
		t.Fatalf("Failed to register replacement: %v", err)
	}

	// The stale connection's cleanup must not evict its replacement.
	r.Unregister(old)

	got, ok := r.Get("c1")
	if !ok {
		t.Fatal("Expected replacement to remain registered")
	}
	if got.(*fakeConn) != replacement {
		t.Error("Expected registered connection to be the replacement")
	}

	r.Unregister(replacement)
	if _, ok := r.Get("c1"); ok {
		t.Error("Expected connection removed after matching unregister")
	}

	// Idempotent: unregistering again is safe.
	r.Unregister(replacement)
	r.Unregister(nil)
}

func TestRegistry_All(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		if err := r.Register(&fakeConn{id: id}); err != nil {
			t.Fatalf("Failed to register %s: %v", id, err)
		}
	}

	if got := len(r.All()); got != 3 {
		t.Errorf("Expected 3 connections, got %d", got)
	}
}

func TestRegistry_Stats(t *testing.T) {
	r := NewRegistry()
	teacher := &fakeConn{id: "t", role: types.RoleTeacher}
	student := &fakeConn{id: "s", role: types.RoleStudent}
	unknown := &fakeConn{id: "u", role: types.RoleUnknown}
	for _, c := range []*fakeConn{teacher, student, unknown} {
		if err := r.Register(c); err != nil {
			t.Fatalf("Failed to register: %v", err)
		}
	}

	stats := r.Stats()
	if stats["total_connections"] != 3 {
		t.Errorf("Expected 3 total connections, got %d", stats["total_connections"])
	}
	if stats["teacher_connections"] != 1 {
		t.Errorf("Expected 1 teacher connection, got %d", stats["teacher_connections"])
	}
	if stats["student_connections"] != 1 {
		t.Errorf("Expected 1 student connection, got %d", stats["student_connections"])
	}
}
