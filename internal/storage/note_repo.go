package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks huginn/internal/storage NoteStore

import (
	"context"
	"database/sql"
	"errors"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DefaultSearchLimit caps search results when the caller passes no limit.
const DefaultSearchLimit = 20

// NoteStore defines the interface for note storage operations.
type NoteStore interface {
	// UpsertNote inserts a note or overwrites content and created_at of an existing one.
	// The full-text index is updated in the same transaction.
	UpsertNote(ctx context.Context, note *NoteRecord) error
	// AddAttachment inserts an attachment row. It reports false when an attachment
	// with the same (note_id, file_name, file_path) already exists.
	AddAttachment(ctx context.Context, att *AttachmentRecord) (bool, error)
	// Search runs a ranked full-text query over note content, best match first.
	Search(ctx context.Context, query string, limit int) ([]NoteRecord, error)
	// GetByID gets a note by its identifier. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*NoteRecord, error)
	// Delete removes a note, its index entry and (by cascade) its attachments.
	Delete(ctx context.Context, id string) error
	// ListAttachments returns the attachments of a note ordered by id.
	ListAttachments(ctx context.Context, noteID string) ([]AttachmentRecord, error)
	// Stats returns row counts.
	Stats(ctx context.Context) (Stats, error)
	// WithTx runs fn against a store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(NoteStore) error) error
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NoteRepo provides methods for note and attachment operations.
// It implements the NoteStore interface.
type NoteRepo struct {
	db *sql.DB
	tx *sql.Tx
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) conn() dbtx {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// WithTx runs fn inside a transaction. Calls on a repo that is already bound
// to a transaction join it.
func (r *NoteRepo) WithTx(ctx context.Context, fn func(NoteStore) error) error {
	return r.withTx(ctx, func(txRepo *NoteRepo) error {
		return fn(txRepo)
	})
}

func (r *NoteRepo) withTx(ctx context.Context, fn func(*NoteRepo) error) error {
	if r.tx != nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}

	if err := fn(&NoteRepo{db: r.db, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

// UpsertNote inserts a new note or replaces content and created_at of an existing one.
// Other columns (updated_at, content_hash, summary, tags) keep their values.
// The stale index entry is removed with the FTS5 'delete' command before the
// new content is indexed under the same rowid.
func (r *NoteRepo) UpsertNote(ctx context.Context, note *NoteRecord) error {
	return r.withTx(ctx, func(txRepo *NoteRepo) error {
		q := txRepo.tx

		var rowID int64
		var oldContent string
		err := q.QueryRowContext(ctx,
			"SELECT rowid, content FROM notes WHERE id = ?", note.ID,
		).Scan(&rowID, &oldContent)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := q.ExecContext(ctx,
				"INSERT INTO notes (id, content, created_at) VALUES (?, ?, ?)",
				note.ID, note.Content, note.CreatedAt,
			)
			if err != nil {
				return storeErr("insert note", err)
			}
			rowID, err = res.LastInsertId()
			if err != nil {
				return storeErr("read note rowid", err)
			}
		case err != nil:
			return storeErr("query note", err)
		default:
			if _, err := q.ExecContext(ctx,
				"INSERT INTO notes_fts (notes_fts, rowid, content) VALUES ('delete', ?, ?)",
				rowID, oldContent,
			); err != nil {
				return storeErr("remove stale index entry", err)
			}
			if _, err := q.ExecContext(ctx,
				"UPDATE notes SET content = ?, created_at = ? WHERE id = ?",
				note.Content, note.CreatedAt, note.ID,
			); err != nil {
				return storeErr("update note", err)
			}
		}

		if _, err := q.ExecContext(ctx,
			"INSERT INTO notes_fts (rowid, content) VALUES (?, ?)",
			rowID, note.Content,
		); err != nil {
			return storeErr("index note", err)
		}
		return nil
	})
}

// AddAttachment inserts an attachment, ignoring exact duplicates of the
// (note_id, file_name, file_path) triple.
func (r *NoteRepo) AddAttachment(ctx context.Context, att *AttachmentRecord) (bool, error) {
	res, err := r.conn().ExecContext(ctx,
		`INSERT INTO attachments (note_id, file_name, file_type, file_path)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (note_id, file_name, file_path) DO NOTHING`,
		att.NoteID, att.FileName, att.FileType, att.FilePath,
	)
	if err != nil {
		return false, storeErr("insert attachment", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("read affected rows", err)
	}
	if n == 0 {
		return false, nil
	}

	if id, err := res.LastInsertId(); err == nil {
		att.ID = id
	}
	return true, nil
}

// Search runs query against notes_fts and returns matching notes ordered by
// bm25 rank. Equal ranks fall back to insertion order (rowid ascending).
func (r *NoteRepo) Search(ctx context.Context, query string, limit int) ([]NoteRecord, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	match := SanitizeQuery(query)
	if match == "" {
		return []NoteRecord{}, nil
	}

	rows, err := r.conn().QueryContext(ctx,
		`SELECT n.id, n.content, n.created_at, n.updated_at
		 FROM notes_fts
		 JOIN notes n ON n.rowid = notes_fts.rowid
		 WHERE notes_fts MATCH ?
		 ORDER BY notes_fts.rank, n.rowid
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, storeErr("search notes", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	notes := []NoteRecord{}
	for rows.Next() {
		var note NoteRecord
		var createdAt, updatedAt sql.NullString
		if err := rows.Scan(&note.ID, &note.Content, &createdAt, &updatedAt); err != nil {
			return nil, storeErr("scan search result", err)
		}
		note.CreatedAt = nullableString(createdAt)
		note.UpdatedAt = nullableString(updatedAt)
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate search results", err)
	}

	return notes, nil
}

// GetByID gets a note by its identifier. Returns ErrNotFound if not found.
func (r *NoteRepo) GetByID(ctx context.Context, id string) (*NoteRecord, error) {
	var note NoteRecord
	var createdAt, updatedAt, contentHash, summary, tags sql.NullString

	err := r.conn().QueryRowContext(ctx,
		"SELECT id, content, created_at, updated_at, content_hash, summary, tags FROM notes WHERE id = ?",
		id,
	).Scan(&note.ID, &note.Content, &createdAt, &updatedAt, &contentHash, &summary, &tags)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("query note", err)
	}

	note.CreatedAt = nullableString(createdAt)
	note.UpdatedAt = nullableString(updatedAt)
	note.ContentHash = nullableString(contentHash)
	note.Summary = nullableString(summary)
	note.Tags = nullableString(tags)
	return &note, nil
}

// Delete removes a note and its index entry. Attachments go with it through
// the ON DELETE CASCADE foreign key. Returns ErrNotFound if the note does not exist.
func (r *NoteRepo) Delete(ctx context.Context, id string) error {
	return r.withTx(ctx, func(txRepo *NoteRepo) error {
		q := txRepo.tx

		var rowID int64
		var content string
		err := q.QueryRowContext(ctx,
			"SELECT rowid, content FROM notes WHERE id = ?", id,
		).Scan(&rowID, &content)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return storeErr("query note", err)
		}

		if _, err := q.ExecContext(ctx,
			"INSERT INTO notes_fts (notes_fts, rowid, content) VALUES ('delete', ?, ?)",
			rowID, content,
		); err != nil {
			return storeErr("remove index entry", err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
			return storeErr("delete note", err)
		}
		return nil
	})
}

// ListAttachments returns all attachments for a note ordered by id.
// Returns an empty slice if there are none (not an error).
func (r *NoteRepo) ListAttachments(ctx context.Context, noteID string) ([]AttachmentRecord, error) {
	rows, err := r.conn().QueryContext(ctx,
		"SELECT id, note_id, file_name, file_type, file_path FROM attachments WHERE note_id = ? ORDER BY id",
		noteID,
	)
	if err != nil {
		return nil, storeErr("query attachments", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	atts := []AttachmentRecord{}
	for rows.Next() {
		var att AttachmentRecord
		var fileType sql.NullString
		if err := rows.Scan(&att.ID, &att.NoteID, &att.FileName, &fileType, &att.FilePath); err != nil {
			return nil, storeErr("scan attachment", err)
		}
		att.FileType = nullableString(fileType)
		atts = append(atts, att)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate attachments", err)
	}

	return atts, nil
}

// Stats returns the number of notes and attachments.
func (r *NoteRepo) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.conn().QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM notes), (SELECT COUNT(*) FROM attachments)",
	).Scan(&stats.Notes, &stats.Attachments)
	if err != nil {
		return Stats{}, storeErr("count rows", err)
	}
	return stats, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
