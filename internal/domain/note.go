package domain

import "time"

// Note is the live, mutable document addressed by an opaque identifier. The
// identifier doubles as the capability to read and edit the note; there are no
// user accounts.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`

	// PasswordHash is a salted one-way hash, never the plaintext. Empty when
	// the note is unprotected.
	PasswordHash string `json:"password_hash,omitempty"`
	Protected    bool   `json:"protected"`
}

// NewNote returns an empty note at version 1, the shape every note starts
// life in.
func NewNote(id string) *Note {
	now := time.Now()
	return &Note{
		ID:        id,
		Content:   "",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OpenResult is what a caller gets back from opening an identifier.
type OpenResult struct {
	NoteID string `json:"note_id"`

	// Redirect is set when no identifier was supplied: the caller should
	// navigate to NoteID. Nothing has been stored yet.
	Redirect bool `json:"redirect,omitempty"`

	// Locked is set for a protected note opened without verification; no
	// content is carried.
	Locked bool `json:"locked,omitempty"`

	// Created is set when this open brought the note into existence.
	Created bool `json:"created,omitempty"`

	Content   string    `json:"content"`
	Version   int64     `json:"version,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type SaveContentRequest struct {
	Content string `json:"content"`
}

type SetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type UnlockRequest struct {
	Password string `json:"password" validate:"required"`
}

type UnlockResponse struct {
	NoteID      string `json:"note_id"`
	UnlockToken string `json:"unlock_token"`
}

type NoteResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Protected bool      `json:"protected"`
}
