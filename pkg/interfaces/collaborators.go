package interfaces

import (
	"context"

	"liveboard/pkg/types"
)

// RecordStore persists session records. Writes are best effort; the caller
// never retries a failed save.
type RecordStore interface {
	// SaveRecord persists a record and returns its server-assigned id.
	SaveRecord(ctx context.Context, record *types.SessionRecord) (string, error)

	// ListRecordsByTeacher returns persisted records for a teacher, newest
	// first.
	ListRecordsByTeacher(ctx context.Context, teacherID string) ([]*types.SessionRecord, error)

	// Close releases the underlying storage resources.
	Close() error
}

// Uploader turns a recorded artifact blob into a durable URL. Implemented
// externally (object storage, CDN); only the contract lives here.
type Uploader interface {
	Upload(ctx context.Context, artifact []byte) (string, error)
}

// Renderer produces a recorded artifact from accumulated whiteboard data.
// Canvas rendering itself is an external concern.
type Renderer interface {
	Render(ctx context.Context, whiteboardData string, hasAudio bool) ([]byte, error)
}
