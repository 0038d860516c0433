package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"liveboard/pkg/types"
)

// Store persists session records in SQLite. All writes funnel through a
// single writer goroutine; SQLite handles concurrent reads but serialized
// writes avoid busy contention under record bursts at session end.
type Store struct {
	db           *sql.DB
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex // protects closed status
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// Config holds the SQLite connection settings.
type Config struct {
	Path            string
	MaxConnections  int
	ConnMaxLifetime time.Duration
}

// Open opens (creating if needed) the record database and ensures the schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	s := &Store{
		db:           db,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.writeLoop()

	return s, nil
}

// writeLoop processes all write operations in a single goroutine, retrying
// each failed write exactly once.
func (s *Store) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeChannel:
			err := op.operation(s.db)
			if err != nil {
				log.Printf("Record write failed, retrying in 1 second: %v", err)
				time.Sleep(time.Second)
				err = op.operation(s.db)
				if err != nil {
					log.Printf("Record write failed after retry: %v", err)
				}
			}
			op.result <- err

		case <-s.shutdown:
			return
		}
	}
}

func (s *Store) executeWrite(ctx context.Context, operation func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case s.writeChannel <- writeOperation{operation: operation, result: result}:
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-s.shutdown:
		return ErrStoreClosed
	}
}

// SaveRecord persists a session record and returns its server-assigned id.
// Any client-provided id is ignored.
func (s *Store) SaveRecord(ctx context.Context, record *types.SessionRecord) (string, error) {
	if record == nil {
		return "", ErrNilRecord
	}
	if !types.IsValidTeacherID(record.TeacherID) {
		return "", types.ErrInvalidTeacherID
	}

	id := uuid.New().String()
	endTime := record.EndTime
	if endTime.IsZero() {
		endTime = time.Now()
	}

	err := s.executeWrite(ctx, func(db *sql.DB) error {
		query := `
			INSERT INTO session_records (id, teacher_id, student_id, artifact_url, whiteboard_data, has_audio, end_time)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
		_, err := db.ExecContext(ctx, query,
			id, record.TeacherID, record.StudentID, record.ArtifactURL,
			record.WhiteboardData, record.HasAudio, endTime)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to save session record: %w", err)
	}

	record.ID = id
	record.EndTime = endTime
	return id, nil
}

// ListRecordsByTeacher returns the persisted records for a teacher, newest
// first.
func (s *Store) ListRecordsByTeacher(ctx context.Context, teacherID string) ([]*types.SessionRecord, error) {
	query := `
		SELECT id, teacher_id, student_id, artifact_url, whiteboard_data, has_audio, end_time
		FROM session_records
		WHERE teacher_id = ?
		ORDER BY end_time DESC`

	rows, err := s.db.QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.SessionRecord
	for rows.Next() {
		record := &types.SessionRecord{}
		if err := rows.Scan(&record.ID, &record.TeacherID, &record.StudentID,
			&record.ArtifactURL, &record.WhiteboardData, &record.HasAudio, &record.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan session record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session records: %w", err)
	}

	return records, nil
}

// CountRecords returns the total number of persisted session records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count session records: %w", err)
	}
	return count, nil
}

// Close stops the writer goroutine and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	return s.db.Close()
}
