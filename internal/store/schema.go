package store

import (
	"database/sql"
	"fmt"
)

// schema is applied idempotently on open. end_time is stored as DATETIME so
// record listings order correctly without parsing.
const schema = `
CREATE TABLE IF NOT EXISTS session_records (
	id              TEXT PRIMARY KEY,
	teacher_id      TEXT NOT NULL,
	student_id      TEXT NOT NULL,
	artifact_url    TEXT NOT NULL DEFAULT '',
	whiteboard_data TEXT NOT NULL DEFAULT '',
	has_audio       BOOLEAN NOT NULL DEFAULT 0,
	end_time        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_records_teacher
	ON session_records(teacher_id, end_time);
`

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
