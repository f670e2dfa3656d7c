package domain

import "time"

// Version is an immutable snapshot of a note's content. Versions of a note are
// numbered 1, 2, 3, ... with no gaps; number 1 is the empty snapshot written
// when the note is created.
type Version struct {
	NoteID  string `json:"note_id"`
	Number  int64  `json:"number"`
	Content string `json:"content"`

	// ContentHash is advisory display/dedup metadata, never an identity proof.
	ContentHash string `json:"content_hash"`

	CreatedAt time.Time `json:"created_at"`
}

type SnapshotRequest struct {
	Content string `json:"content"`
}

type SnapshotResponse struct {
	NoteID      string    `json:"note_id"`
	Number      int64     `json:"number"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

type VersionResponse struct {
	Number      int64     `json:"number"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}
