// Package manifest parses the notes.json manifest shipped inside an upload archive.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Note is one entry of the manifest.
type Note struct {
	ID          string
	Text        string
	Timestamp   *string
	Attachments []Attachment
}

// Attachment describes a file shipped alongside a note.
type Attachment struct {
	FileName string
	FileType *string
	FilePath string // Relative to the archive root
}

// ParseError reports a manifest that is not a list of well-formed note objects.
// Index is -1 when the failure is not tied to a single note.
type ParseError struct {
	Index int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("parse manifest: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("parse manifest note %d: %v", e.Index, e.Err)
	default:
		return fmt.Sprintf("parse manifest note %d field %s: %v", e.Index, e.Field, e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type rawNote struct {
	ID          *string         `json:"id"`
	Text        *string         `json:"text"`
	Timestamp   json.RawMessage `json:"timestamp"`
	Attachments []rawAttachment `json:"attachments"`
}

type rawAttachment struct {
	FileName *string `json:"fileName"`
	FileType *string `json:"fileType"`
	FilePath *string `json:"filePath"`
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) ([]Note, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Parse(f)
}

// Parse decodes a manifest: a JSON array of note objects, kept in order.
func Parse(r io.Reader) ([]Note, error) {
	var items []json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&items); err != nil {
		return nil, &ParseError{Index: -1, Err: err}
	}
	if items == nil {
		return nil, &ParseError{Index: -1, Err: errors.New("expected a JSON array of notes")}
	}
	if dec.More() {
		return nil, &ParseError{Index: -1, Err: errors.New("unexpected data after notes array")}
	}

	notes := make([]Note, 0, len(items))
	for i, item := range items {
		note, err := parseNote(i, item)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func parseNote(i int, item json.RawMessage) (Note, error) {
	if !isObject(item) {
		return Note{}, &ParseError{Index: i, Err: errors.New("expected a JSON object")}
	}

	var raw rawNote
	if err := json.Unmarshal(item, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Note{}, &ParseError{Index: i, Field: typeErr.Field, Err: err}
		}
		return Note{}, &ParseError{Index: i, Err: err}
	}

	if raw.ID == nil || *raw.ID == "" {
		return Note{}, &ParseError{Index: i, Field: "id", Err: errors.New("id is required")}
	}

	timestamp, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return Note{}, &ParseError{Index: i, Field: "timestamp", Err: err}
	}

	note := Note{
		ID:          *raw.ID,
		Timestamp:   timestamp,
		Attachments: make([]Attachment, 0, len(raw.Attachments)),
	}
	if raw.Text != nil {
		note.Text = *raw.Text
	}

	for j, att := range raw.Attachments {
		if att.FileName == nil || *att.FileName == "" {
			return Note{}, &ParseError{Index: i, Field: fmt.Sprintf("attachments[%d].fileName", j), Err: errors.New("fileName is required")}
		}
		if att.FilePath == nil || *att.FilePath == "" {
			return Note{}, &ParseError{Index: i, Field: fmt.Sprintf("attachments[%d].filePath", j), Err: errors.New("filePath is required")}
		}
		note.Attachments = append(note.Attachments, Attachment{
			FileName: *att.FileName,
			FileType: att.FileType,
			FilePath: *att.FilePath,
		})
	}

	return note, nil
}

// parseTimestamp accepts a string, a number (kept as its literal text) or null.
func parseTimestamp(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		s := n.String()
		return &s, nil
	default:
		return nil, errors.New("timestamp must be a string or a number")
	}
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
