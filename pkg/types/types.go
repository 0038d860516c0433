package types

import (
	"time"
)

// Payload size limits enforced at the transport boundary.
const (
	MaxWhiteboardPayload = 64 * 1024
	MaxAudioPayload      = 256 * 1024
)

// Role classifies a connection. Connections start unknown and are promoted
// by the first start/join event they send.
type Role string

const (
	RoleUnknown Role = "unknown"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// SessionRecord is the persisted artifact of one live-session instance,
// written at most once per instance by a student-side controller.
type SessionRecord struct {
	ID             string    `json:"id" db:"id"`
	TeacherID      string    `json:"teacherId" db:"teacher_id"`
	StudentID      string    `json:"studentId" db:"student_id"`
	ArtifactURL    string    `json:"artifactUrl" db:"artifact_url"`
	WhiteboardData string    `json:"whiteboardData" db:"whiteboard_data"`
	HasAudio       bool      `json:"hasAudio" db:"has_audio"`
	EndTime        time.Time `json:"endTime" db:"end_time"`
}

// LiveStatus is the API snapshot of the live slot.
type LiveStatus struct {
	Live         bool   `json:"live"`
	TeacherID    string `json:"teacherId,omitempty"`
	AudioEnabled bool   `json:"audioEnabled,omitempty"`
	RoomSize     int    `json:"roomSize"`
}
