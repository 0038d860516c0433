package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"liveboard/internal/live"
	"liveboard/internal/room"
	"liveboard/pkg/interfaces"
	"liveboard/pkg/types"
)

// Stats is the registry surface the API reads. Local interface avoids a
// dependency on the transport package.
type Stats interface {
	Stats() map[string]int
}

// Server exposes read-only HTTP endpoints over the relay state: health,
// live-slot status and persisted session records. It never mutates core
// state; all mutation flows through the hub.
type Server struct {
	state    *live.State
	rooms    *room.Table
	registry Stats
	store    interfaces.RecordStore
	router   *http.ServeMux
	started  time.Time
}

// NewServer creates the API server.
func NewServer(state *live.State, rooms *room.Table, registry Stats, store interfaces.RecordStore) *Server {
	s := &Server{
		state:    state,
		rooms:    rooms,
		registry: registry,
		store:    store,
		router:   http.NewServeMux(),
		started:  time.Now(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/api/status", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleStatus))))
	s.router.Handle("/api/records", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleRecords))))
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.healthCheck))))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleStatus reports the live slot snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := types.LiveStatus{}
	if teacherID, ok := s.state.Current(); ok {
		status.Live = true
		status.TeacherID = teacherID
		status.AudioEnabled = s.state.Audio(teacherID)
		status.RoomSize = s.rooms.MemberCount(teacherID)
	}

	s.sendJSON(w, status, http.StatusOK)
}

// handleRecords lists persisted session records for a teacher.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	teacherID := r.URL.Query().Get("teacher_id")
	if !types.IsValidTeacherID(teacherID) {
		s.sendError(w, "Invalid or missing teacher_id", http.StatusBadRequest)
		return
	}

	records, err := s.store.ListRecordsByTeacher(r.Context(), teacherID)
	if err != nil {
		log.Printf("Record listing failed: teacher=%s err=%v", teacherID, err)
		s.sendError(w, "Failed to list records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*types.SessionRecord{}
	}

	s.sendJSON(w, records, http.StatusOK)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload := map[string]interface{}{
		"status":      "ok",
		"uptime":      time.Since(s.started).String(),
		"connections": s.registry.Stats(),
	}

	s.sendJSON(w, payload, http.StatusOK)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, v interface{}, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, status int) {
	s.sendJSON(w, map[string]string{"error": message}, status)
}
