package repository

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"padsync-server/internal/domain"

	bolt "go.etcd.io/bbolt"
)

var (
	notesBucket    = []byte("notes")
	versionsBucket = []byte("versions")
)

// BoltStore backs both repositories with an embedded bbolt file, for
// single-node deployments and tests. bbolt's serialized write transactions
// give insert-if-absent its atomicity.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(notesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(versionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Notes returns the NoteRepository view of the store.
func (s *BoltStore) Notes() NoteRepository {
	return &boltNoteRepository{store: s}
}

// Versions returns the VersionRepository view of the store.
func (s *BoltStore) Versions() VersionRepository {
	return &boltVersionRepository{store: s}
}

type boltNoteRepository struct {
	store *BoltStore
}

func (r *boltNoteRepository) Get(ctx context.Context, id string) (*domain.Note, error) {
	var note *domain.Note

	err := r.store.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(notesBucket).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		var n domain.Note
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}

		note = &n
		return nil
	})
	if err != nil {
		return nil, err
	}

	return note, nil
}

func (r *boltNoteRepository) InsertIfAbsent(ctx context.Context, note *domain.Note) error {
	return r.store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(notesBucket)

		if bucket.Get([]byte(note.ID)) != nil {
			return ErrAlreadyExists
		}

		data, err := json.Marshal(note)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(note.ID), data)
	})
}

// mutate rewrites the stored note inside a single write transaction.
func (r *boltNoteRepository) mutate(id string, fn func(note *domain.Note)) error {
	return r.store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(notesBucket)

		data := bucket.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		var note domain.Note
		if err := json.Unmarshal(data, &note); err != nil {
			return err
		}

		fn(&note)

		updated, err := json.Marshal(&note)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(id), updated)
	})
}

func (r *boltNoteRepository) UpsertContent(ctx context.Context, id, content string) error {
	write := func(note *domain.Note) {
		note.Content = content
		note.UpdatedAt = time.Now()
	}

	err := r.mutate(id, write)
	if err == ErrNotFound {
		note := domain.NewNote(id)
		note.Content = content

		switch insertErr := r.InsertIfAbsent(ctx, note); insertErr {
		case nil:
			return nil
		case ErrAlreadyExists:
			return r.mutate(id, write)
		default:
			return insertErr
		}
	}
	return err
}

func (r *boltNoteRepository) UpdateVersionCounter(ctx context.Context, id string, version int64) error {
	return r.mutate(id, func(note *domain.Note) {
		note.Version = version
	})
}

func (r *boltNoteRepository) UpdateAccessCredential(ctx context.Context, id string, passwordHash *string, protected bool) error {
	return r.mutate(id, func(note *domain.Note) {
		if passwordHash != nil {
			note.PasswordHash = *passwordHash
		} else {
			note.PasswordHash = ""
		}
		note.Protected = protected
	})
}

type boltVersionRepository struct {
	store *BoltStore
}

// versionKey orders versions of a note consecutively: note id, a zero
// separator no identifier can contain, then the big-endian number.
func versionKey(noteID string, number int64) []byte {
	key := make([]byte, 0, len(noteID)+9)
	key = append(key, noteID...)
	key = append(key, 0)

	var num [8]byte
	binary.BigEndian.PutUint64(num[:], uint64(number))
	return append(key, num[:]...)
}

func versionPrefix(noteID string) []byte {
	return append([]byte(noteID), 0)
}

func (r *boltVersionRepository) Insert(ctx context.Context, version *domain.Version) error {
	return r.store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(versionsBucket)
		key := versionKey(version.NoteID, version.Number)

		if bucket.Get(key) != nil {
			return ErrAlreadyExists
		}

		data, err := json.Marshal(version)
		if err != nil {
			return err
		}

		return bucket.Put(key, data)
	})
}

func (r *boltVersionRepository) List(ctx context.Context, noteID string, limit int) ([]*domain.Version, error) {
	var versions []*domain.Version

	prefix := versionPrefix(noteID)

	err := r.store.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(versionsBucket).Cursor()

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var version domain.Version
			if err := json.Unmarshal(v, &version); err != nil {
				return err
			}
			versions = append(versions, &version)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Keys sort oldest first; callers want newest first.
	for i, j := 0, len(versions)-1; i < j; i, j = i+1, j-1 {
		versions[i], versions[j] = versions[j], versions[i]
	}

	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}

	return versions, nil
}

func (r *boltVersionRepository) Get(ctx context.Context, noteID string, number int64) (*domain.Version, error) {
	var version *domain.Version

	err := r.store.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(versionsBucket).Get(versionKey(noteID, number))
		if data == nil {
			return ErrNotFound
		}

		var v domain.Version
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}

		version = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	return version, nil
}
