package storage

import (
	"database/sql"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// New opens a SQLite database connection at the given path.
// Every pooled connection gets foreign keys, a busy timeout and WAL journaling
// through DSN pragmas, and transactions start with BEGIN IMMEDIATE so that
// concurrent uploads queue on the writer lock instead of failing mid-batch.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
//
// notes_fts is an external-content FTS5 table over notes.content keyed by the
// notes rowid. It has no triggers: NoteRepo keeps it in step inside the same
// transaction as every write to notes.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			created_at TEXT,
			updated_at TEXT,
			content_hash TEXT,
			summary TEXT,
			tags TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_type TEXT,
			file_path TEXT NOT NULL,
			FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE,
			UNIQUE (note_id, file_name, file_path)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_note_id ON attachments(note_id);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			content,
			content='notes',
			content_rowid='rowid'
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
