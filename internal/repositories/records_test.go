package repositories

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/stemhub/internal/shared"
)

// setupTestDB creates a temporary SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordRepository(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewRecordRepository(setupTestDB(t))

			_, err := repo.Get("auth_user")
			if !errors.Is(err, shared.ErrRecordNotFound) {
				t.Fatalf("expected ErrRecordNotFound, got %v", err)
			}
		})

		t.Run("RoundTrip", func(t *testing.T) {
			repo := NewRecordRepository(setupTestDB(t))

			if err := repo.Set("auth_user", []byte(`{"api_key":"k1"}`)); err != nil {
				t.Fatalf("failed to set record: %v", err)
			}

			got, err := repo.Get("auth_user")
			if err != nil {
				t.Fatalf("failed to get record: %v", err)
			}
			if string(got) != `{"api_key":"k1"}` {
				t.Errorf("unexpected value %s", got)
			}
		})
	})

	t.Run("Set", func(t *testing.T) {
		t.Run("Overwrites", func(t *testing.T) {
			repo := NewRecordRepository(setupTestDB(t))

			repo.Set("auth_user", []byte("first"))
			before, err := repo.UpdatedAt("auth_user")
			if err != nil {
				t.Fatalf("failed to read updated_at: %v", err)
			}

			time.Sleep(5 * time.Millisecond)
			if err := repo.Set("auth_user", []byte("second")); err != nil {
				t.Fatalf("failed to overwrite record: %v", err)
			}

			got, _ := repo.Get("auth_user")
			if string(got) != "second" {
				t.Errorf("expected overwrite, got %s", got)
			}

			after, _ := repo.UpdatedAt("auth_user")
			if !after.After(before) {
				t.Errorf("expected updated_at to advance: %v -> %v", before, after)
			}

			keys, _ := repo.Keys()
			if len(keys) != 1 {
				t.Errorf("expected a single record, got %v", keys)
			}
		})

		t.Run("EmptyKey", func(t *testing.T) {
			repo := NewRecordRepository(setupTestDB(t))

			if err := repo.Set("", []byte("x")); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("NilValue", func(t *testing.T) {
			repo := NewRecordRepository(setupTestDB(t))

			if err := repo.Set("empty", nil); err != nil {
				t.Fatalf("expected nil value to be stored, got %v", err)
			}
			got, err := repo.Get("empty")
			if err != nil || len(got) != 0 {
				t.Errorf("expected empty value, got %q (%v)", got, err)
			}
		})
	})

	t.Run("Remove", func(t *testing.T) {
		repo := NewRecordRepository(setupTestDB(t))

		repo.Set("auth_user", []byte("x"))
		if err := repo.Remove("auth_user"); err != nil {
			t.Fatalf("failed to remove record: %v", err)
		}
		if _, err := repo.Get("auth_user"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected record to be gone, got %v", err)
		}
		if err := repo.Remove("auth_user"); err != nil {
			t.Errorf("removing an absent record should succeed, got %v", err)
		}
	})

	t.Run("Keys", func(t *testing.T) {
		repo := NewRecordRepository(setupTestDB(t))

		for _, k := range []string{"b", "a", "c"} {
			repo.Set(k, []byte(k))
		}

		keys, err := repo.Keys()
		if err != nil {
			t.Fatalf("failed to list keys: %v", err)
		}
		if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
			t.Errorf("unexpected keys %v", keys)
		}
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRecordRepository(db)
		db.Close()

		if _, err := repo.Get("x"); err == nil || errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected query error, got %v", err)
		}
		if err := repo.Set("x", []byte("y")); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.Keys(); err == nil {
			t.Error("expected error on closed database")
		}
	})
}
