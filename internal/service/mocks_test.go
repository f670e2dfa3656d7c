package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"padsync-server/internal/domain"
	"padsync-server/internal/repository"
)

// mockNoteRepo is an in-memory NoteRepository with the same atomicity
// guarantees as the real backends: InsertIfAbsent either creates the row or
// reports ErrAlreadyExists, under a single lock.
type mockNoteRepo struct {
	mu      sync.Mutex
	notes   map[string]*domain.Note
	upserts []string

	failUpserts bool
	getCalls    int
	insertCalls int
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{
		notes: make(map[string]*domain.Note),
	}
}

func (m *mockNoteRepo) Get(ctx context.Context, id string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++
	if n, ok := m.notes[id]; ok {
		copied := *n
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockNoteRepo) InsertIfAbsent(ctx context.Context, note *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertCalls++
	if _, ok := m.notes[note.ID]; ok {
		return repository.ErrAlreadyExists
	}
	copied := *note
	m.notes[note.ID] = &copied
	return nil
}

func (m *mockNoteRepo) UpsertContent(ctx context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpserts {
		return errors.New("store unavailable")
	}

	n, ok := m.notes[id]
	if !ok {
		n = domain.NewNote(id)
		m.notes[id] = n
	}
	n.Content = content
	m.upserts = append(m.upserts, content)
	return nil
}

func (m *mockNoteRepo) UpdateVersionCounter(ctx context.Context, id string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Version = version
	return nil
}

func (m *mockNoteRepo) UpdateAccessCredential(ctx context.Context, id string, passwordHash *string, protected bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[id]
	if !ok {
		return repository.ErrNotFound
	}
	if passwordHash != nil {
		n.PasswordHash = *passwordHash
	} else {
		n.PasswordHash = ""
	}
	n.Protected = protected
	return nil
}

func (m *mockNoteRepo) upsertedContents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.upserts...)
}

// mockVersionRepo stores versions in memory keyed by (note, number).
type mockVersionRepo struct {
	mu       sync.Mutex
	versions map[string][]*domain.Version

	failInserts bool
}

func newMockVersionRepo() *mockVersionRepo {
	return &mockVersionRepo{
		versions: make(map[string][]*domain.Version),
	}
}

func (m *mockVersionRepo) Insert(ctx context.Context, version *domain.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInserts {
		return errors.New("store unavailable")
	}

	for _, v := range m.versions[version.NoteID] {
		if v.Number == version.Number {
			return repository.ErrAlreadyExists
		}
	}

	copied := *version
	m.versions[version.NoteID] = append(m.versions[version.NoteID], &copied)
	return nil
}

func (m *mockVersionRepo) List(ctx context.Context, noteID string, limit int) ([]*domain.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]*domain.Version(nil), m.versions[noteID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockVersionRepo) Get(ctx context.Context, noteID string, number int64) (*domain.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.versions[noteID] {
		if v.Number == number {
			copied := *v
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockVersionRepo) count(noteID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.versions[noteID])
}
