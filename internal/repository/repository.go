package repository

import (
	"context"
	"errors"

	"padsync-server/internal/domain"
)

// ErrNotFound is returned when no note or version exists for the key.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by InsertIfAbsent when another writer created
// the note first. Callers recover by re-reading, never by overwriting.
var ErrAlreadyExists = errors.New("already exists")

// NoteRepository is the store adapter for live notes. Implementations must
// make InsertIfAbsent atomic: two concurrent inserts for the same id yield
// exactly one row, and the loser sees ErrAlreadyExists.
type NoteRepository interface {
	Get(ctx context.Context, id string) (*domain.Note, error)
	InsertIfAbsent(ctx context.Context, note *domain.Note) error
	UpsertContent(ctx context.Context, id, content string) error
	UpdateVersionCounter(ctx context.Context, id string, version int64) error

	// UpdateAccessCredential stores the password hash and protected flag. A
	// nil hash clears protection.
	UpdateAccessCredential(ctx context.Context, id string, passwordHash *string, protected bool) error
}

// VersionRepository is the store adapter for immutable version snapshots.
type VersionRepository interface {
	Insert(ctx context.Context, version *domain.Version) error
	List(ctx context.Context, noteID string, limit int) ([]*domain.Version, error)
	Get(ctx context.Context, noteID string, number int64) (*domain.Version, error)
}
