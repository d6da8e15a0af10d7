package testsupport

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lessoncut/internal/config"
	"lessoncut/internal/exportstore"
)

// MustOpenStore opens an exportstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *exportstore.Store {
	t.Helper()

	store, err := exportstore.Open(cfg)
	if err != nil {
		t.Fatalf("exportstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveRecord inserts a record for tests using the provided store.
func SaveRecord(t testing.TB, store *exportstore.Store, id, projectID, path string, created time.Time) exportstore.Record {
	t.Helper()

	rec := exportstore.Record{
		ID:        id,
		ProjectID: projectID,
		Filename:  filepath.Base(path),
		Path:      path,
		CreatedAt: created,
	}
	if err := store.SaveRecord(context.Background(), rec); err != nil {
		t.Fatalf("store.SaveRecord: %v", err)
	}
	return rec
}
