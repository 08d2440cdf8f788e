// Package memo implements filesystem-backed freeform notes with no
// status or branch lifecycle, identified by a ULID rather than a
// caller-chosen name. Storage follows internal/issue's idiom (one body
// file per record plus a single JSON index, write-temp-then-rename),
// trimmed to what a memo actually needs.
package memo

import "time"

// Memo is a single freeform note.
type Memo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
