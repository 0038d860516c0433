package live

import (
	"sync"
	"time"
)

// State is the single-slot live session register: at most one teacher is
// live at any time. The audio flag is valid only while its teacher occupies
// the slot and is cleared with it.
type State struct {
	mu        sync.RWMutex
	teacherID string // empty when idle
	audio     bool
	startedAt time.Time
	lastTS    int64
}

// NewState creates an idle live session register.
func NewState() *State {
	return &State{}
}

// Start claims the slot for a teacher. A repeated start by the occupying
// teacher is an idempotent re-confirmation: no error, started=false, and no
// auxiliary state is disturbed. A start while a different teacher holds the
// slot fails with ErrSlotOccupied and changes nothing.
func (s *State) Start(teacherID string) (started bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.teacherID {
	case "":
		s.teacherID = teacherID
		s.audio = false
		s.startedAt = time.Now()
		return true, nil
	case teacherID:
		return false, nil
	default:
		return false, ErrSlotOccupied
	}
}

// Stop releases the slot if teacherID is the current occupant and reports
// whether a release happened. Stale stops (wrong or no occupant) are no-ops,
// which absorbs a disconnect racing an explicit stop.
func (s *State) Stop(teacherID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.teacherID != teacherID || teacherID == "" {
		return false
	}
	s.teacherID = ""
	s.audio = false
	s.startedAt = time.Time{}
	return true
}

// Current returns the occupying teacher, if any.
func (s *State) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.teacherID, s.teacherID != ""
}

// Holds reports whether teacherID currently occupies the slot. Relay-only
// events are dropped unless this holds for their named teacher.
func (s *State) Holds(teacherID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return teacherID != "" && s.teacherID == teacherID
}

// SetAudio updates the audio flag, only while teacherID occupies the slot.
func (s *State) SetAudio(teacherID string, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.teacherID != teacherID || teacherID == "" {
		return false
	}
	s.audio = enabled
	return true
}

// Audio reports the audio flag for teacherID, false unless that teacher is
// the current occupant.
func (s *State) Audio(teacherID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.teacherID == teacherID && teacherID != "" && s.audio
}

// StartedAt returns when the current occupancy began, zero when idle.
func (s *State) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.startedAt
}

// NextTimestamp returns a strictly monotonic millisecond timestamp for
// online/offline transitions. Wall clock ties and regressions bump by one so
// clients can order transitions reliably.
func (s *State) NextTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UnixMilli()
	if ts <= s.lastTS {
		ts = s.lastTS + 1
	}
	s.lastTS = ts
	return ts
}
