// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
	"github.com/nerrad567/vidhub-core/migrations"
)

// NewDB opens a temp-file SQLite database with every migration applied.
// The database is closed when the test completes.
func NewDB(t testing.TB) *database.DB {
	t.Helper()

	// A temp file so WAL mode works (in-memory doesn't support it)
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "vidhub-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if _, err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

// InsertAccount writes a bare account row and returns its ID.
// Resource package tests use it to satisfy owner foreign keys without
// going through registration.
func InsertAccount(t testing.TB, db *database.DB, username string) string {
	t.Helper()

	id := "acc-" + uuid.NewString()
	now := database.FormatTime(time.Now())
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO accounts (id, username, email, full_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, username, username+"@example.com", username, "x", now, now,
	)
	if err != nil {
		t.Fatalf("inserting account %s: %v", username, err)
	}
	return id
}

// InsertVideo writes a bare video row owned by ownerID and returns its ID.
func InsertVideo(t testing.TB, db *database.DB, ownerID, title string, published bool) string {
	t.Helper()

	id := "vid-" + uuid.NewString()
	now := database.FormatTime(time.Now())
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO videos (id, owner_id, title, video_url, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, title, "https://cdn.test/"+id+".mp4", published, now, now,
	)
	if err != nil {
		t.Fatalf("inserting video %s: %v", title, err)
	}
	return id
}
