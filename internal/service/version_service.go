package service

import (
	"context"
	"fmt"
	"time"

	"padsync-server/internal/domain"
	"padsync-server/internal/repository"
	"padsync-server/pkg/fingerprint"
)

// DefaultHistoryLimit caps how many versions a listing returns.
const DefaultHistoryLimit = 50

// VersionService owns the immutable snapshot history of notes. It is the only
// writer of version records and of the per-note version counter.
type VersionService struct {
	noteRepo     repository.NoteRepository
	versionRepo  repository.VersionRepository
	historyLimit int
}

func NewVersionService(noteRepo repository.NoteRepository, versionRepo repository.VersionRepository, historyLimit int) *VersionService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &VersionService{
		noteRepo:     noteRepo,
		versionRepo:  versionRepo,
		historyLimit: historyLimit,
	}
}

// RecordInitial writes version 1 for a freshly created note. The fingerprint
// is computed from the actual (empty) content, not a placeholder.
func (s *VersionService) RecordInitial(ctx context.Context, noteID string) error {
	version := &domain.Version{
		NoteID:      noteID,
		Number:      1,
		Content:     "",
		ContentHash: fingerprint.Sum(""),
		CreatedAt:   time.Now(),
	}

	if err := s.versionRepo.Insert(ctx, version); err != nil {
		return fmt.Errorf("failed to record initial version: %w", err)
	}

	return nil
}

// Snapshot creates the next version of the note with the given content and
// advances the note's version counter. It is deliberately non-idempotent:
// snapshotting identical content twice yields two distinct, time-stamped
// checkpoints. Storage failures are surfaced — a snapshot is a user-requested
// action with an expected confirmation, and is only retried by the user
// re-invoking it.
func (s *VersionService) Snapshot(ctx context.Context, noteID, content string) (*domain.Version, error) {
	note, err := s.noteRepo.Get(ctx, noteID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to load note for snapshot: %w", err)
	}

	version := &domain.Version{
		NoteID:      noteID,
		Number:      note.Version + 1,
		Content:     content,
		ContentHash: fingerprint.Sum(content),
		CreatedAt:   time.Now(),
	}

	if err := s.versionRepo.Insert(ctx, version); err != nil {
		return nil, fmt.Errorf("failed to create version %d: %w", version.Number, err)
	}

	if err := s.noteRepo.UpdateVersionCounter(ctx, noteID, version.Number); err != nil {
		return nil, fmt.Errorf("failed to advance version counter: %w", err)
	}

	return version, nil
}

// List returns the note's versions newest first, capped at the history limit.
func (s *VersionService) List(ctx context.Context, noteID string) ([]*domain.Version, error) {
	versions, err := s.versionRepo.List(ctx, noteID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

// Restore returns the immutable content of the requested version, byte for
// byte. It records nothing: whether the restored text becomes the live note is
// the caller's decision, via the normal edit path.
func (s *VersionService) Restore(ctx context.Context, noteID string, number int64) (string, error) {
	version, err := s.versionRepo.Get(ctx, noteID, number)
	if err != nil {
		if err == repository.ErrNotFound {
			return "", ErrVersionNotFound
		}
		return "", fmt.Errorf("failed to load version %d: %w", number, err)
	}

	return version.Content, nil
}
