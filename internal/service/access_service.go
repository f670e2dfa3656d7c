package service

import (
	"context"
	"fmt"
	"time"

	"padsync-server/internal/repository"
	"padsync-server/pkg/hash"
	"padsync-server/pkg/token"
)

// AccessService manages optional password protection for notes. Only the
// bcrypt hash is ever stored; the plaintext lives no longer than the call that
// carries it. There is no recovery path — that is a product decision, not a
// gap.
type AccessService struct {
	repo        repository.NoteRepository
	bcryptCost  int
	tokenSecret string
	tokenTTL    time.Duration
}

func NewAccessService(repo repository.NoteRepository, bcryptCost int, tokenSecret string, tokenTTL time.Duration) *AccessService {
	return &AccessService{
		repo:        repo,
		bcryptCost:  bcryptCost,
		tokenSecret: tokenSecret,
		tokenTTL:    tokenTTL,
	}
}

// SetPassword protects the note with plaintext. Plaintexts shorter than the
// minimum are rejected before anything touches storage.
func (s *AccessService) SetPassword(ctx context.Context, noteID, plaintext string) error {
	if len(plaintext) < hash.MinPasswordLength {
		return validationErr(fmt.Sprintf("password must be at least %d characters", hash.MinPasswordLength))
	}

	hashed, err := hash.Password(plaintext, s.bcryptCost)
	if err != nil {
		return validationErr(err.Error())
	}

	if err := s.repo.UpdateAccessCredential(ctx, noteID, &hashed, true); err != nil {
		if err == repository.ErrNotFound {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to store access credential: %w", err)
	}

	return nil
}

// Verify checks plaintext against the stored hash and, on success, returns an
// unlock token the session presents on later opens. A note with no password
// set yields ErrAccessDenied — callers should not be probing unprotected
// notes. Nothing about the note beyond the denial itself is disclosed.
func (s *AccessService) Verify(ctx context.Context, noteID, plaintext string) (string, error) {
	note, err := s.repo.Get(ctx, noteID)
	if err != nil {
		if err == repository.ErrNotFound {
			return "", ErrAccessDenied
		}
		return "", fmt.Errorf("failed to load note for verification: %w", err)
	}

	if note.PasswordHash == "" {
		return "", ErrAccessDenied
	}

	if err := hash.Compare(note.PasswordHash, plaintext); err != nil {
		return "", ErrAccessDenied
	}

	unlockToken, err := token.Generate(noteID, s.tokenSecret, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue unlock token: %w", err)
	}

	return unlockToken, nil
}

// RemovePassword clears the hash and protected flag; subsequent opens need no
// verification. Anyone holding the note open and unlocked can do this — the
// note URL is the capability, there is no secondary credential.
func (s *AccessService) RemovePassword(ctx context.Context, noteID string) error {
	if err := s.repo.UpdateAccessCredential(ctx, noteID, nil, false); err != nil {
		if err == repository.ErrNotFound {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to clear access credential: %w", err)
	}

	return nil
}

// Unlocked reports whether unlockToken grants access to noteID.
func (s *AccessService) Unlocked(unlockToken, noteID string) bool {
	return token.Unlocks(unlockToken, noteID, s.tokenSecret)
}
