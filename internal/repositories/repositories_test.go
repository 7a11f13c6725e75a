package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/tvbf/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestKVRepository(t *testing.T) {
	t.Run("Get Missing Key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		value, ok, err := repo.Get("missing")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok || value != "" {
			t.Errorf("expected absent key, got %q (ok=%v)", value, ok)
		}
	})

	t.Run("Set And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		if err := repo.Set("a", "1"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		value, ok, err := repo.Get("a")
		if err != nil || !ok || value != "1" {
			t.Errorf("expected a=1, got %q ok=%v err=%v", value, ok, err)
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		repo.Set("a", "1")
		if err := repo.Set("a", "2"); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		value, _, _ := repo.Get("a")
		if value != "2" {
			t.Errorf("expected overwritten value 2, got %q", value)
		}
	})

	t.Run("SetMany And Keys", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		if err := repo.SetMany(map[string]string{"b": "2", "a": "1"}); err != nil {
			t.Fatalf("failed to set many: %v", err)
		}

		keys, err := repo.Keys()
		if err != nil {
			t.Fatalf("failed to list keys: %v", err)
		}
		if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
			t.Errorf("expected [a b], got %v", keys)
		}
	})

	t.Run("SetMany Empty Is No-op", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewKVRepository(db).SetMany(nil); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		repo.SetMany(map[string]string{"a": "1", "b": "2", "c": "3"})

		if err := repo.Delete("a", "b", "missing"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}

		keys, _ := repo.Keys()
		if len(keys) != 1 || keys[0] != "c" {
			t.Errorf("expected only c to remain, got %v", keys)
		}

		if err := repo.Delete(); err != nil {
			t.Errorf("deleting no keys should be a no-op, got %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewKVRepository(db)
		db.Close()

		if _, _, err := repo.Get("a"); err == nil {
			t.Error("expected error from closed database")
		}
		if err := repo.Set("a", "1"); err == nil {
			t.Error("expected error from closed database")
		}
		if err := repo.Delete("a"); err == nil {
			t.Error("expected error from closed database")
		}
		if _, err := repo.Keys(); err == nil {
			t.Error("expected error from closed database")
		}
	})
}
