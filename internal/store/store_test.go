package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/database"
)

// testStore opens a fresh store over a temporary database.
func testStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	_, err = db.ExecContext(context.Background(), `
		CREATE TABLE client_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("creating client_store table: %v", err)
	}

	return NewSQLiteStore(db.DB)
}

func TestStore_SetGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyUserToken, "t1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := s.Get(ctx, KeyUserToken)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if value != "t1" {
		t.Errorf("Get() = %q, want %q", value, "t1")
	}
}

func TestStore_GetAbsent(t *testing.T) {
	s := testStore(t)

	value, ok, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true for absent key")
	}
	if value != "" {
		t.Errorf("Get() = %q for absent key, want empty", value)
	}
}

func TestStore_SetOverwrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyUserToken, "t1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, KeyUserToken, "t2"); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	value, _, err := s.Get(ctx, KeyUserToken)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "t2" {
		t.Errorf("Get() = %q, want %q", value, "t2")
	}
}

func TestStore_Remove(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyUser, `{"id":1}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Remove(ctx, KeyUser); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	_, ok, err := s.Get(ctx, KeyUser)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("key still present after Remove()")
	}

	// Removing an absent key is not an error
	if err := s.Remove(ctx, KeyUser); err != nil {
		t.Errorf("Remove() of absent key error = %v", err)
	}
}

func TestInstallID_StableAcrossCalls(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := InstallID(ctx, s)
	if err != nil {
		t.Fatalf("InstallID() error = %v", err)
	}
	if first == "" {
		t.Fatal("InstallID() returned empty id")
	}

	second, err := InstallID(ctx, s)
	if err != nil {
		t.Fatalf("second InstallID() error = %v", err)
	}
	if second != first {
		t.Errorf("InstallID() = %q on second call, want %q", second, first)
	}
}
