package interfaces

import (
	"liveboard/pkg/types"
)

// Connection is a transport-level duplex channel as seen by the relay core.
// Send must be safe for concurrent use; implementations serialize writes
// through a single writer to prevent interleaved frames.
type Connection interface {
	// ID returns the unique connection identifier assigned at accept time.
	ID() string

	// Role returns the connection's current role classification.
	Role() types.Role

	// SetRole promotes the connection; promotion is sticky for the lifetime
	// of the connection.
	SetRole(role types.Role)

	// Room returns the teacher room this connection is associated with, or
	// empty when outside any room. A live teacher's connection is associated
	// with its own room.
	Room() string

	// SetRoom updates the room association.
	SetRoom(teacherID string)

	// Send enqueues an event onto the connection's outbound buffer. It does
	// not block on delivery.
	Send(ev types.Event) error

	// Close tears down the transport and releases resources. Idempotent.
	Close() error
}
