// Package testutil provides test helpers shared across packages.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/storage"
)

// SetupTestDB creates a migrated in-memory history database that is closed
// when the test ends.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedChecks stores the checks, failing the test on error. Checks with a
// zero CheckedAt are stamped one second apart, oldest first.
func SeedChecks(t *testing.T, store *storage.SQLiteStorage, checks ...model.Check) {
	t.Helper()

	base := time.Now().Add(-time.Duration(len(checks)) * time.Second)
	for i, c := range checks {
		if c.CheckedAt.IsZero() {
			c.CheckedAt = base.Add(time.Duration(i) * time.Second)
		}
		if err := store.SaveCheck(context.Background(), c); err != nil {
			t.Fatalf("failed to seed check %q: %v", c.ID, err)
		}
	}
}
