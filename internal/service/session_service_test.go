package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"padsync-server/pkg/fingerprint"
	"padsync-server/pkg/noteid"
)

const testDebounce = 50 * time.Millisecond

func newTestServices() (*SessionService, *mockNoteRepo, *mockVersionRepo) {
	noteRepo := newMockNoteRepo()
	versionRepo := newMockVersionRepo()
	versionService := NewVersionService(noteRepo, versionRepo, DefaultHistoryLimit)
	return NewSessionService(noteRepo, versionService, testDebounce), noteRepo, versionRepo
}

func TestOpenAbsentIDRedirects(t *testing.T) {
	service, noteRepo, _ := newTestServices()

	result, err := service.Open(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if !result.Redirect {
		t.Error("expected redirect-pending result")
	}
	if result.NoteID == "" {
		t.Error("expected a generated identifier")
	}
	if err := noteid.Validate(result.NoteID); err != nil {
		t.Errorf("generated identifier invalid: %v", err)
	}

	// Redirect-pending opens never touch storage.
	if noteRepo.getCalls != 0 || noteRepo.insertCalls != 0 {
		t.Errorf("storage touched: %d gets, %d inserts", noteRepo.getCalls, noteRepo.insertCalls)
	}
}

func TestOpenCreatesMissingNote(t *testing.T) {
	service, _, versionRepo := newTestServices()

	result, err := service.Open(context.Background(), "abc123", false)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if !result.Created {
		t.Error("expected created result")
	}
	if result.Content != "" {
		t.Errorf("content = %q, want empty", result.Content)
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}

	v, err := versionRepo.Get(context.Background(), "abc123", 1)
	if err != nil {
		t.Fatalf("initial version missing: %v", err)
	}
	if v.Content != "" {
		t.Errorf("initial version content = %q, want empty", v.Content)
	}
	if v.ContentHash != fingerprint.Sum("") {
		t.Errorf("initial fingerprint = %s, want hash of empty content", v.ContentHash)
	}
}

func TestOpenExistingNote(t *testing.T) {
	service, noteRepo, _ := newTestServices()
	ctx := context.Background()

	if _, err := service.Open(ctx, "abc123", false); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := noteRepo.UpsertContent(ctx, "abc123", "Hello"); err != nil {
		t.Fatalf("UpsertContent() error = %v", err)
	}

	result, err := service.Open(ctx, "abc123", false)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if result.Created {
		t.Error("second open must not report created")
	}
	if result.Content != "Hello" {
		t.Errorf("content = %q, want Hello", result.Content)
	}
}

func TestOpenInvalidCustomID(t *testing.T) {
	service, _, _ := newTestServices()

	_, err := service.Open(context.Background(), "not/a/valid/id", false)
	if !IsValidation(err) {
		t.Errorf("Open() error = %v, want ValidationError", err)
	}
}

func TestOpenLostInsertRaceTreatedAsFound(t *testing.T) {
	service, noteRepo, versionRepo := newTestServices()
	ctx := context.Background()

	// All openers race read-then-insert on the same fresh identifier. Losers
	// must recover by re-reading, and only the winner records version 1.
	const openers = 8

	var wg sync.WaitGroup
	errs := make(chan error, openers)
	for i := 0; i < openers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Open(ctx, "abc123", false)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Open() error = %v", err)
		}
	}

	note, err := noteRepo.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("note missing after concurrent opens: %v", err)
	}
	if note.Version != 1 {
		t.Errorf("version = %d, want 1", note.Version)
	}

	if got := versionRepo.count("abc123"); got != 1 {
		t.Errorf("initial version records = %d, want exactly 1", got)
	}
}

func TestOpenLockedWithoutVerification(t *testing.T) {
	service, noteRepo, _ := newTestServices()
	ctx := context.Background()

	if _, err := service.Open(ctx, "abc123", false); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := noteRepo.UpsertContent(ctx, "abc123", "secret text"); err != nil {
		t.Fatalf("UpsertContent() error = %v", err)
	}
	hashed := "$2a$12$hash"
	if err := noteRepo.UpdateAccessCredential(ctx, "abc123", &hashed, true); err != nil {
		t.Fatalf("UpdateAccessCredential() error = %v", err)
	}

	result, err := service.Open(ctx, "abc123", false)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !result.Locked {
		t.Error("expected locked result")
	}
	if result.Content != "" {
		t.Error("locked result must carry no content")
	}

	unlocked, err := service.Open(ctx, "abc123", true)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if unlocked.Locked {
		t.Error("verified open must not be locked")
	}
	if unlocked.Content != "secret text" {
		t.Errorf("content = %q, want secret text", unlocked.Content)
	}
}

func waitForState(t *testing.T, s *Session, want SaveState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if state, _ := s.State(); state == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	state, _ := s.State()
	t.Fatalf("state = %s, want %s", state, want)
}

func TestSessionDebounceCoalesces(t *testing.T) {
	service, noteRepo, _ := newTestServices()

	session := service.NewSession("abc123", nil)
	defer session.Close()

	// Edits fired faster than the debounce window collapse into one save of
	// the final content.
	session.RecordEdit("a")
	time.Sleep(5 * time.Millisecond)
	session.RecordEdit("ab")
	time.Sleep(5 * time.Millisecond)
	session.RecordEdit("abc")

	waitForState(t, session, StateSaved)

	upserts := noteRepo.upsertedContents()
	if len(upserts) != 1 {
		t.Fatalf("upsert calls = %d, want 1 (%v)", len(upserts), upserts)
	}
	if upserts[0] != "abc" {
		t.Errorf("persisted content = %q, want abc", upserts[0])
	}
}

func TestSessionEditVisibleImmediately(t *testing.T) {
	service, _, _ := newTestServices()

	session := service.NewSession("abc123", nil)
	defer session.Close()

	session.RecordEdit("typing")

	if session.Content() != "typing" {
		t.Errorf("Content() = %q, want typing before any save", session.Content())
	}
}

func TestSessionFailedSaveSupersededByNextEdit(t *testing.T) {
	service, noteRepo, _ := newTestServices()

	var mu sync.Mutex
	var transitions []SaveState

	session := service.NewSession("abc123", func(c StateChange) {
		mu.Lock()
		transitions = append(transitions, c.State)
		mu.Unlock()
	})
	defer session.Close()

	noteRepo.mu.Lock()
	noteRepo.failUpserts = true
	noteRepo.mu.Unlock()

	session.RecordEdit("doomed")
	waitForState(t, session, StateFailed)

	// No automatic retry: the session sits in Failed until the next edit.
	time.Sleep(3 * testDebounce)
	if state, _ := session.State(); state != StateFailed {
		t.Fatalf("state = %s, want still %s", state, StateFailed)
	}
	if len(noteRepo.upsertedContents()) != 0 {
		t.Fatal("failed save must not be retried automatically")
	}

	noteRepo.mu.Lock()
	noteRepo.failUpserts = false
	noteRepo.mu.Unlock()

	session.RecordEdit("recovered")
	waitForState(t, session, StateSaved)

	upserts := noteRepo.upsertedContents()
	if len(upserts) != 1 || upserts[0] != "recovered" {
		t.Errorf("upserts = %v, want [recovered]", upserts)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []SaveState{StateSaving, StateFailed, StateSaving, StateSaved}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestSessionCloseCancelsPendingSave(t *testing.T) {
	service, noteRepo, _ := newTestServices()

	session := service.NewSession("abc123", func(c StateChange) {
		t.Errorf("observer notified after close: %+v", c)
	})

	session.RecordEdit("never persisted")
	session.Close()

	time.Sleep(3 * testDebounce)

	if len(noteRepo.upsertedContents()) != 0 {
		t.Error("pending save ran after teardown")
	}
}

func TestSessionFlush(t *testing.T) {
	service, noteRepo, _ := newTestServices()

	session := service.NewSession("abc123", nil)
	defer session.Close()

	session.RecordEdit("now")
	session.Flush()

	waitForState(t, session, StateSaved)

	upserts := noteRepo.upsertedContents()
	if len(upserts) != 1 || upserts[0] != "now" {
		t.Errorf("upserts = %v, want [now]", upserts)
	}
}
