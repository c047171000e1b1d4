package conversation

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// Archive persists conversation transcripts to sqlite. It is strictly
// best-effort: writes that fail are logged and dropped, and the in-memory
// store never waits on it for correctness.
type Archive struct {
	mu sync.Mutex
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	workflow TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, id);
`

// OpenArchive opens or creates the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	// sqlite tolerates one writer; serialize at the pool level too.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}

	logging.Conversation("transcript archive open at %s", path)
	return &Archive{db: db}, nil
}

// RecordTurns appends turns to the transcript. Failures are logged, never
// returned.
func (a *Archive) RecordTurns(conversationID string, turns []types.Turn) {
	if a == nil || len(turns) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.Begin()
	if err != nil {
		logging.Get(logging.CategoryConversation).Warn("archive begin failed: %v", err)
		return
	}
	stmt, err := tx.Prepare(`INSERT INTO turns (conversation_id, role, content, workflow, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		logging.Get(logging.CategoryConversation).Warn("archive prepare failed: %v", err)
		return
	}
	defer stmt.Close()

	for _, t := range turns {
		if _, err := stmt.Exec(conversationID, string(t.Role), t.Content, string(t.Workflow), t.Timestamp); err != nil {
			tx.Rollback()
			logging.Get(logging.CategoryConversation).Warn("archive insert failed for %s: %v", conversationID, err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		logging.Get(logging.CategoryConversation).Warn("archive commit failed for %s: %v", conversationID, err)
	}
}

// Transcript loads the archived turns for one conversation, oldest first.
func (a *Archive) Transcript(conversationID string) ([]types.Turn, error) {
	if a == nil {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.Query(
		`SELECT role, content, workflow, created_at FROM turns WHERE conversation_id = ? ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript %s: %w", conversationID, err)
	}
	defer rows.Close()

	var turns []types.Turn
	for rows.Next() {
		var t types.Turn
		var role, workflow string
		if err := rows.Scan(&role, &t.Content, &workflow, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		t.Role = types.Role(role)
		t.Workflow = types.Workflow(workflow)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close releases the database handle.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}
