package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"padsync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type couchNoteRepository struct {
	client *kivik.Client
	dbName string
}

// NewCouchNoteRepository returns a NoteRepository backed by CouchDB. Atomicity
// of InsertIfAbsent comes from CouchDB's document revision model: a Put of a
// fresh document against an existing id fails with a conflict.
func NewCouchNoteRepository(client *kivik.Client, dbName string) NoteRepository {
	return &couchNoteRepository{
		client: client,
		dbName: dbName,
	}
}

func noteDocID(id string) string {
	return fmt.Sprintf("note:%s", id)
}

func (r *couchNoteRepository) Get(ctx context.Context, id string) (*domain.Note, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(ctx, noteDocID(id))

	var note domain.Note
	if err := row.ScanDoc(&note); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return &note, nil
}

func (r *couchNoteRepository) InsertIfAbsent(ctx context.Context, note *domain.Note) error {
	db := r.client.DB(r.dbName)

	_, err := db.Put(ctx, noteDocID(note.ID), note)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert note: %w", err)
	}

	return nil
}

// mutate fetches the current revision of the note document, applies fn and
// writes it back.
func (r *couchNoteRepository) mutate(ctx context.Context, id string, fn func(doc map[string]interface{})) error {
	db := r.client.DB(r.dbName)
	docID := noteDocID(id)

	var doc map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch note for update: %w", err)
	}

	fn(doc)

	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	return nil
}

func (r *couchNoteRepository) UpsertContent(ctx context.Context, id, content string) error {
	err := r.mutate(ctx, id, func(doc map[string]interface{}) {
		doc["content"] = content
		doc["updated_at"] = time.Now()
	})
	if err == ErrNotFound {
		// Upsert creates the row when the open that normally precedes it has
		// not landed yet.
		note := domain.NewNote(id)
		note.Content = content
		if insertErr := r.InsertIfAbsent(ctx, note); insertErr == nil || insertErr == ErrAlreadyExists {
			if insertErr == ErrAlreadyExists {
				return r.mutate(ctx, id, func(doc map[string]interface{}) {
					doc["content"] = content
					doc["updated_at"] = time.Now()
				})
			}
			return nil
		}
		return fmt.Errorf("failed to upsert note content: %w", err)
	}
	return err
}

func (r *couchNoteRepository) UpdateVersionCounter(ctx context.Context, id string, version int64) error {
	return r.mutate(ctx, id, func(doc map[string]interface{}) {
		doc["version"] = version
	})
}

func (r *couchNoteRepository) UpdateAccessCredential(ctx context.Context, id string, passwordHash *string, protected bool) error {
	return r.mutate(ctx, id, func(doc map[string]interface{}) {
		if passwordHash != nil {
			doc["password_hash"] = *passwordHash
		} else {
			delete(doc, "password_hash")
		}
		doc["protected"] = protected
	})
}
