package client

import (
	"context"
	"log"
	"sync"
	"time"

	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

// DefaultGraceWindow is how long a received offline signal is held
// unconfirmed. The transport can deliver duplicate or transient offline
// events (teacher reconnect, brush-tool hiccups); 1.5 seconds absorbs those
// without delaying a genuine teardown noticeably.
const DefaultGraceWindow = 1500 * time.Millisecond

// Controller is the student-side session lifecycle controller. It reconciles
// online/offline transitions against real teacher intent and triggers
// persistence of the session's artifacts exactly once per live-session
// instance.
//
// Invariants:
//   - sessionSaved re-arms only on a genuine online transition for a new
//     occupancy, never on duplicate online events for a still-active session
//   - an offline signal is confirmed only after a grace window with no
//     contradicting activity; fresh activity cancels the pending confirmation
//   - a save in progress blocks re-entrant saves from duplicate offline
//     signals
//   - online/offline events older than the last applied timestamp for their
//     teacher are discarded
type Controller struct {
	studentID string
	grace     time.Duration

	renderer interfaces.Renderer
	uploader interfaces.Uploader
	store    interfaces.RecordStore

	mu           sync.Mutex
	teacher      string
	online       bool
	lastApplied  map[string]int64 // teacherID -> last applied transition timestamp
	sessionSaved bool
	saving       bool
	hasAudio     bool
	whiteboard   string // latest full whiteboard payload
	offlineTimer *time.Timer
	offlineGen   uint64 // invalidates late-firing confirmations

	saveWG sync.WaitGroup
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithGraceWindow overrides the offline confirmation window.
func WithGraceWindow(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.grace = d
		}
	}
}

// NewController creates a lifecycle controller for one student. Collaborators
// may be nil; persistence is best effort and degrades to "no save".
func NewController(studentID string, renderer interfaces.Renderer, uploader interfaces.Uploader, store interfaces.RecordStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		studentID:   studentID,
		grace:       DefaultGraceWindow,
		renderer:    renderer,
		uploader:    uploader,
		store:       store,
		lastApplied: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleEvent feeds one server event into the controller.
func (c *Controller) HandleEvent(ev types.Event) {
	switch e := ev.(type) {
	case types.TeacherOnline:
		c.handleOnline(e.TeacherID, e.Timestamp)
	case types.TeacherOffline:
		c.handleOffline(e.TeacherID, e.Timestamp)
	case types.WhiteboardUpdate:
		c.handleWhiteboard(e.TeacherID, e.WhiteboardData)
	case types.AudioToggle:
		c.handleAudioToggle(e.TeacherID, e.Enabled)
	case types.AudioAvailable:
		c.handleAudioAvailable(e.TeacherID)
	case types.SessionEnded:
		c.handleSessionEnded(e.TeacherID, e.HasAudio)
	case types.LiveError:
		log.Printf("Live error from server: %s", e.Message)
	}
}

// CurrentTeacher returns the teacher whose session is currently observed.
func (c *Controller) CurrentTeacher() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teacher, c.online
}

func (c *Controller) handleOnline(teacherID string, ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale(teacherID, ts) {
		return
	}
	c.apply(teacherID, ts)

	// Any online signal contradicts a pending offline confirmation.
	if c.teacher == teacherID {
		c.cancelOfflineTimerLocked()
	}

	if c.online && c.teacher == teacherID {
		// Duplicate online for the same still-active occupancy. Must not
		// re-arm the save.
		return
	}

	c.teacher = teacherID
	c.online = true
	c.sessionSaved = false
	c.hasAudio = false
	c.whiteboard = ""
}

func (c *Controller) handleOffline(teacherID string, ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale(teacherID, ts) {
		return
	}
	c.apply(teacherID, ts)

	if !c.online || c.teacher != teacherID {
		return
	}

	if c.offlineTimer != nil {
		// Duplicate offline inside the grace window; the pending
		// confirmation already covers it.
		return
	}

	c.offlineGen++
	gen := c.offlineGen
	c.offlineTimer = time.AfterFunc(c.grace, func() {
		c.confirmOffline(teacherID, gen)
	})
}

// handleWhiteboard treats a stroke update from the observed teacher as proof
// of life: a pending offline confirmation was transient noise.
func (c *Controller) handleWhiteboard(teacherID, data string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.teacher != teacherID {
		return
	}
	c.whiteboard = data
	c.cancelOfflineTimerLocked()
}

func (c *Controller) handleAudioToggle(teacherID string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.teacher != teacherID {
		return
	}
	c.hasAudio = enabled
}

func (c *Controller) handleAudioAvailable(teacherID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.teacher != teacherID {
		return
	}
	c.hasAudio = true
}

func (c *Controller) handleSessionEnded(teacherID string, hasAudio bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.teacher != teacherID {
		return
	}
	c.hasAudio = hasAudio
}

// confirmOffline runs when the grace window expires without contradicting
// activity. It commits to teardown and triggers at most one save.
func (c *Controller) confirmOffline(teacherID string, gen uint64) {
	c.mu.Lock()

	if gen != c.offlineGen || c.offlineTimer == nil {
		// Cancelled by activity, or superseded by a newer offline cycle,
		// after the timer fired but before we took the lock.
		c.mu.Unlock()
		return
	}
	c.offlineTimer = nil

	if !c.online || c.teacher != teacherID {
		c.mu.Unlock()
		return
	}
	c.online = false

	if c.sessionSaved || c.saving {
		c.mu.Unlock()
		return
	}
	c.saving = true

	record := &types.SessionRecord{
		TeacherID:      teacherID,
		StudentID:      c.studentID,
		WhiteboardData: c.whiteboard,
		HasAudio:       c.hasAudio,
		EndTime:        time.Now(),
	}
	c.mu.Unlock()

	c.saveWG.Add(1)
	go c.save(record)
}

// save persists one session instance. Failures are logged and the save is
// abandoned; there is no retry and the instance is still marked saved so
// duplicate offline signals cannot re-trigger it.
func (c *Controller) save(record *types.SessionRecord) {
	defer c.saveWG.Done()
	defer func() {
		c.mu.Lock()
		c.saving = false
		c.sessionSaved = true
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if c.renderer != nil && c.uploader != nil {
		artifact, err := c.renderer.Render(ctx, record.WhiteboardData, record.HasAudio)
		if err != nil {
			log.Printf("Artifact render failed, save abandoned: teacher=%s err=%v", record.TeacherID, err)
			return
		}
		url, err := c.uploader.Upload(ctx, artifact)
		if err != nil {
			log.Printf("Artifact upload failed, save abandoned: teacher=%s err=%v", record.TeacherID, err)
			return
		}
		record.ArtifactURL = url
	}

	if c.store == nil {
		return
	}
	id, err := c.store.SaveRecord(ctx, record)
	if err != nil {
		log.Printf("Session record save failed: teacher=%s err=%v", record.TeacherID, err)
		return
	}
	log.Printf("Session saved: record=%s teacher=%s hasAudio=%v", id, record.TeacherID, record.HasAudio)
}

// stale reports whether ts is older than (or equal to) the last applied
// transition for teacherID. Equal timestamps are duplicates.
func (c *Controller) stale(teacherID string, ts int64) bool {
	last, ok := c.lastApplied[teacherID]
	return ok && ts <= last
}

func (c *Controller) apply(teacherID string, ts int64) {
	c.lastApplied[teacherID] = ts
}

func (c *Controller) cancelOfflineTimerLocked() {
	if c.offlineTimer != nil {
		c.offlineTimer.Stop()
		c.offlineTimer = nil
		c.offlineGen++
	}
}
