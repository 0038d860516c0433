package types

import (
	"encoding/json"
	"fmt"
)

// Event type discriminators as they appear on the wire.
const (
	EventCheckTeacherStatus = "checkTeacherStatus"
	EventStartLive          = "startLive"
	EventStopLive           = "stopLive"
	EventJoinTeacherRoom    = "joinTeacherRoom"
	EventLeaveTeacherRoom   = "leaveTeacherRoom"
	EventWhiteboardUpdate   = "whiteboardUpdate"
	EventAudioToggle        = "audioToggle"
	EventAudioData          = "audioData"
	EventAudioAvailable     = "audioAvailable"
	EventSessionEnded       = "sessionEnded"
	EventTeacherOnline      = "teacherOnline"
	EventTeacherOffline     = "teacherOffline"
	EventLiveError          = "liveError"
)

// Event is a decoded wire event. Each variant carries a fixed schema and is
// validated at the transport boundary before it reaches the hub.
type Event interface {
	Type() string
	Validate() error
}

// CheckTeacherStatus asks the server whether a teacher is currently live.
type CheckTeacherStatus struct{}

func (CheckTeacherStatus) Type() string    { return EventCheckTeacherStatus }
func (CheckTeacherStatus) Validate() error { return nil }

// StartLive claims the live slot for a teacher.
type StartLive struct {
	TeacherID string `json:"teacherId"`
}

func (StartLive) Type() string      { return EventStartLive }
func (e StartLive) Validate() error { return validateTeacherID(e.TeacherID) }

// StopLive releases the live slot held by a teacher.
type StopLive struct {
	TeacherID string `json:"teacherId"`
}

func (StopLive) Type() string      { return EventStopLive }
func (e StopLive) Validate() error { return validateTeacherID(e.TeacherID) }

// JoinTeacherRoom subscribes a student connection to a teacher's room.
type JoinTeacherRoom struct {
	TeacherID string `json:"teacherId"`
}

func (JoinTeacherRoom) Type() string      { return EventJoinTeacherRoom }
func (e JoinTeacherRoom) Validate() error { return validateTeacherID(e.TeacherID) }

// LeaveTeacherRoom unsubscribes a student connection from a teacher's room.
type LeaveTeacherRoom struct {
	TeacherID string `json:"teacherId"`
}

func (LeaveTeacherRoom) Type() string      { return EventLeaveTeacherRoom }
func (e LeaveTeacherRoom) Validate() error { return validateTeacherID(e.TeacherID) }

// WhiteboardUpdate carries serialized stroke data. The payload is opaque to
// the relay; only arrival order per sender is preserved.
type WhiteboardUpdate struct {
	TeacherID      string `json:"teacherId"`
	WhiteboardData string `json:"whiteboardData"`
}

func (WhiteboardUpdate) Type() string { return EventWhiteboardUpdate }
func (e WhiteboardUpdate) Validate() error {
	if err := validateTeacherID(e.TeacherID); err != nil {
		return err
	}
	if len(e.WhiteboardData) > MaxWhiteboardPayload {
		return ErrPayloadTooLarge
	}
	return nil
}

// AudioToggle flips the per-teacher audio flag for the current live session.
type AudioToggle struct {
	TeacherID string `json:"teacherId"`
	Enabled   bool   `json:"enabled"`
}

func (AudioToggle) Type() string      { return EventAudioToggle }
func (e AudioToggle) Validate() error { return validateTeacherID(e.TeacherID) }

// AudioData carries a recorded audio chunk. The chunk itself is stored
// externally; the room only learns that audio exists via AudioAvailable.
type AudioData struct {
	TeacherID string `json:"teacherId"`
	AudioData string `json:"audioData"`
}

func (AudioData) Type() string { return EventAudioData }
func (e AudioData) Validate() error {
	if err := validateTeacherID(e.TeacherID); err != nil {
		return err
	}
	if len(e.AudioData) > MaxAudioPayload {
		return ErrPayloadTooLarge
	}
	return nil
}

// AudioAvailable signals room members that audio exists for the session.
type AudioAvailable struct {
	TeacherID string `json:"teacherId"`
}

func (AudioAvailable) Type() string      { return EventAudioAvailable }
func (e AudioAvailable) Validate() error { return validateTeacherID(e.TeacherID) }

// SessionEnded tells room members the teacher finished a session, with a
// hint about whether audio was recorded.
type SessionEnded struct {
	TeacherID string `json:"teacherId"`
	HasAudio  bool   `json:"hasAudio"`
}

func (SessionEnded) Type() string      { return EventSessionEnded }
func (e SessionEnded) Validate() error { return validateTeacherID(e.TeacherID) }

// TeacherOnline is server-originated. Timestamp is strictly monotonic per
// server process so clients can discard stale transitions.
type TeacherOnline struct {
	TeacherID string `json:"teacherId"`
	Timestamp int64  `json:"timestamp"`
}

func (TeacherOnline) Type() string      { return EventTeacherOnline }
func (e TeacherOnline) Validate() error { return validateTeacherID(e.TeacherID) }

// TeacherOffline is server-originated, carries the same monotonic timestamp
// discipline as TeacherOnline.
type TeacherOffline struct {
	TeacherID string `json:"teacherId"`
	Timestamp int64  `json:"timestamp"`
}

func (TeacherOffline) Type() string      { return EventTeacherOffline }
func (e TeacherOffline) Validate() error { return validateTeacherID(e.TeacherID) }

// LiveError is sent point-to-point to a teacher whose start attempt was
// rejected because another teacher holds the live slot.
type LiveError struct {
	Message string `json:"message"`
}

func (LiveError) Type() string    { return EventLiveError }
func (LiveError) Validate() error { return nil }

// Decode parses a wire message into its typed event variant. Unknown or
// missing discriminators are rejected before dispatch.
func Decode(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var ev Event
	switch head.Type {
	case EventCheckTeacherStatus:
		ev = &CheckTeacherStatus{}
	case EventStartLive:
		ev = &StartLive{}
	case EventStopLive:
		ev = &StopLive{}
	case EventJoinTeacherRoom:
		ev = &JoinTeacherRoom{}
	case EventLeaveTeacherRoom:
		ev = &LeaveTeacherRoom{}
	case EventWhiteboardUpdate:
		ev = &WhiteboardUpdate{}
	case EventAudioToggle:
		ev = &AudioToggle{}
	case EventAudioData:
		ev = &AudioData{}
	case EventAudioAvailable:
		ev = &AudioAvailable{}
	case EventSessionEnded:
		ev = &SessionEnded{}
	case EventTeacherOnline:
		ev = &TeacherOnline{}
	case EventTeacherOffline:
		ev = &TeacherOffline{}
	case EventLiveError:
		ev = &LiveError{}
	case "":
		return nil, ErrMissingEventType
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, head.Type)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return deref(ev), nil
}

// Encode serializes an event with its type discriminator injected.
func Encode(ev Event) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(ev.Type())
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// deref returns the pointed-to event so decoded values compare cleanly in
// switches and tests.
func deref(ev Event) Event {
	switch e := ev.(type) {
	case *CheckTeacherStatus:
		return *e
	case *StartLive:
		return *e
	case *StopLive:
		return *e
	case *JoinTeacherRoom:
		return *e
	case *LeaveTeacherRoom:
		return *e
	case *WhiteboardUpdate:
		return *e
	case *AudioToggle:
		return *e
	case *AudioData:
		return *e
	case *AudioAvailable:
		return *e
	case *SessionEnded:
		return *e
	case *TeacherOnline:
		return *e
	case *TeacherOffline:
		return *e
	case *LiveError:
		return *e
	}
	return ev
}
