package repository

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"padsync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type couchVersionRepository struct {
	client *kivik.Client
	dbName string
}

// NewCouchVersionRepository returns a VersionRepository backed by CouchDB.
// Versions live as immutable documents keyed version:<note>:<number>; the key
// doubles as a guard against writing the same number twice.
func NewCouchVersionRepository(client *kivik.Client, dbName string) VersionRepository {
	return &couchVersionRepository{
		client: client,
		dbName: dbName,
	}
}

func versionDocID(noteID string, number int64) string {
	return fmt.Sprintf("version:%s:%d", noteID, number)
}

type couchVersionDoc struct {
	Kind string `json:"kind"`
	domain.Version
}

func (r *couchVersionRepository) Insert(ctx context.Context, version *domain.Version) error {
	db := r.client.DB(r.dbName)

	doc := couchVersionDoc{Kind: "version", Version: *version}

	_, err := db.Put(ctx, versionDocID(version.NoteID, version.Number), doc)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert version: %w", err)
	}

	return nil
}

func (r *couchVersionRepository) List(ctx context.Context, noteID string, limit int) ([]*domain.Version, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"kind":    "version",
			"note_id": noteID,
		},
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []*domain.Version
	for rows.Next() {
		var doc couchVersionDoc
		if err := rows.ScanDoc(&doc); err != nil {
			continue
		}
		v := doc.Version
		versions = append(versions, &v)
	}

	// Newest first; Find has no ordering without a server-side index.
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Number > versions[j].Number
	})

	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}

	return versions, nil
}

func (r *couchVersionRepository) Get(ctx context.Context, noteID string, number int64) (*domain.Version, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(ctx, versionDocID(noteID, number))

	var doc couchVersionDoc
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	v := doc.Version
	return &v, nil
}
