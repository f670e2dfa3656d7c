package service

import (
	"context"
	"sync"
	"time"

	"padsync-server/internal/domain"
	"padsync-server/internal/repository"
	"padsync-server/pkg/noteid"
)

// SaveState is the persistence state machine of a session:
// Idle -> Saving -> {Saved, Failed}. The UI observes transitions; it never
// drives them.
type SaveState string

const (
	StateIdle   SaveState = "idle"
	StateSaving SaveState = "saving"
	StateSaved  SaveState = "saved"
	StateFailed SaveState = "failed"
)

// StateChange is delivered to a session observer on every transition.
type StateChange struct {
	State   SaveState
	Content string
	SavedAt time.Time
	Err     error
}

// SessionService orchestrates load-or-create for note identifiers and hands
// out edit sessions that debounce persistence.
type SessionService struct {
	repo           repository.NoteRepository
	versionService *VersionService
	debounce       time.Duration
}

func NewSessionService(repo repository.NoteRepository, versionService *VersionService, debounce time.Duration) *SessionService {
	return &SessionService{
		repo:           repo,
		versionService: versionService,
		debounce:       debounce,
	}
}

// Open resolves an identifier to note content.
//
// An absent id yields a redirect-pending result carrying a fresh identifier;
// nothing is stored until the redirected open arrives. A present id is read,
// created empty if missing, and reported locked (without content) when the
// note is protected and unlocked is false.
//
// Two sessions can race to create the same fresh identifier. The store's
// insert-if-absent is the only arbiter: the loser re-reads and proceeds as if
// the note had always existed.
func (s *SessionService) Open(ctx context.Context, id string, unlocked bool) (*domain.OpenResult, error) {
	if id == "" {
		return &domain.OpenResult{NoteID: noteid.New(), Redirect: true}, nil
	}

	if err := noteid.Validate(id); err != nil {
		return nil, validationErr(err.Error())
	}

	note, err := s.repo.Get(ctx, id)
	created := false

	if err == repository.ErrNotFound {
		note, err = s.create(ctx, id)
		created = err == nil
	}
	if err != nil {
		return nil, err
	}

	if note.Protected && !unlocked {
		return &domain.OpenResult{NoteID: id, Locked: true}, nil
	}

	return &domain.OpenResult{
		NoteID:    id,
		Created:   created,
		Content:   note.Content,
		Version:   note.Version,
		UpdatedAt: note.UpdatedAt,
	}, nil
}

func (s *SessionService) create(ctx context.Context, id string) (*domain.Note, error) {
	note := domain.NewNote(id)

	err := s.repo.InsertIfAbsent(ctx, note)
	if err == repository.ErrAlreadyExists {
		// Lost the race to another opener; their row is ours to use.
		return s.repo.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	// Only the race winner records the initial empty snapshot, so exactly one
	// version 1 exists per note.
	if err := s.versionService.RecordInitial(ctx, id); err != nil {
		return nil, err
	}

	return note, nil
}

// SaveNow persists content immediately, bypassing any debounce. It exists for
// stateless callers; interactive sessions go through Session.RecordEdit.
func (s *SessionService) SaveNow(ctx context.Context, id, content string) error {
	return s.repo.UpsertContent(ctx, id, content)
}

// NewSession starts an edit session for an already-opened note. onChange may
// be nil; otherwise it is invoked after every state transition, outside the
// session lock.
func (s *SessionService) NewSession(id string, onChange func(StateChange)) *Session {
	return &Session{
		id:       id,
		repo:     s.repo,
		debounce: s.debounce,
		state:    StateIdle,
		onChange: onChange,
	}
}

// Session owns the debounced persistence of one open note. Edits apply to the
// in-memory working copy immediately; only the content present at the end of a
// quiet period reaches the store. A failed save is not retried — the next
// debounce cycle supersedes it.
type Session struct {
	id       string
	repo     repository.NoteRepository
	debounce time.Duration
	onChange func(StateChange)

	mu      sync.Mutex
	timer   *time.Timer
	content string
	gen     uint64
	state   SaveState
	savedAt time.Time
	closed  bool
}

// NoteID returns the identifier this session edits.
func (s *Session) NoteID() string {
	return s.id
}

// Content returns the current working copy.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// State returns the current save state and, when saved, the commit timestamp.
func (s *Session) State() (SaveState, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.savedAt
}

// SetBaseline seeds the working copy from an open result without arming the
// debounce timer.
func (s *Session) SetBaseline(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
}

// RecordEdit replaces the working copy and (re)arms the debounce timer. The
// call returns immediately; persistence happens after the quiet period.
func (s *Session) RecordEdit(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.content = content
	s.gen++

	if s.timer != nil {
		s.timer.Stop()
	}

	gen := s.gen
	s.timer = time.AfterFunc(s.debounce, func() {
		s.save(gen)
	})
}

// Flush persists the working copy immediately, cancelling any pending timer.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.save(gen)
}

func (s *Session) save(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		// Superseded by a newer edit or by teardown.
		s.mu.Unlock()
		return
	}
	content := s.content
	s.state = StateSaving
	s.mu.Unlock()

	s.notify(StateChange{State: StateSaving, Content: content})

	err := s.repo.UpsertContent(context.Background(), s.id, content)

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}

	var change StateChange
	if err != nil {
		s.state = StateFailed
		change = StateChange{State: StateFailed, Content: content, Err: err}
	} else {
		s.state = StateSaved
		s.savedAt = time.Now()
		change = StateChange{State: StateSaved, Content: content, SavedAt: s.savedAt}
	}
	s.mu.Unlock()

	s.notify(change)
}

func (s *Session) notify(change StateChange) {
	if s.onChange != nil {
		s.onChange(change)
	}
}

// Close tears the session down. Pending timers are cancelled and in-flight
// save completions are discarded; the observer sees no further transitions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
