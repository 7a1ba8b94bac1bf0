package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/okgraph/okgraph/internal/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	pragmas := map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"busy_timeout": "5000",
	}
	for name, expected := range pragmas {
		if err := s.verifyPragma(name, expected); err != nil {
			t.Errorf("pragma check failed: %v", err)
		}
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inst := record.New("User")
	inst.StorageID = "stor-1"
	inst.Set("id", int64(42))
	inst.Set("name", "Alice")

	if err := s.Save(ctx, inst, map[string]any{"id": int64(42)}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, found, err := s.Get(ctx, "stor-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !found {
		t.Fatal("record not found after save")
	}
	if got.Entity != "User" {
		t.Errorf("entity = %q, expected User", got.Entity)
	}
	// Stored values come back JSON-typed.
	if name := got.Fields["name"]; name != "Alice" {
		t.Errorf("name = %v, expected Alice", name)
	}
	if id := got.Fields["id"]; id != float64(42) {
		t.Errorf("id = %v (%T), expected float64(42)", id, id)
	}
}

func TestSaveRequiresStorageID(t *testing.T) {
	s := openTestStore(t)

	inst := record.New("User")
	if err := s.Save(context.Background(), inst, nil); err == nil {
		t.Error("Save() without storage id should fail")
	}
}

func TestLookupByRemoteKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inst := record.New("User")
	inst.StorageID = "stor-1"
	inst.Set("id", int64(42))
	if err := s.Save(ctx, inst, map[string]any{"id": int64(42)}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, found, err := s.LookupByRemoteKeys(ctx, "User", map[string]any{"id": int64(42)})
	if err != nil {
		t.Fatalf("LookupByRemoteKeys() failed: %v", err)
	}
	if !found {
		t.Fatal("expected a match")
	}
	if got.StorageID != "stor-1" {
		t.Errorf("storage id = %q, expected stor-1", got.StorageID)
	}

	// Same identity under a different entity type is a different record.
	_, found, err = s.LookupByRemoteKeys(ctx, "Group", map[string]any{"id": int64(42)})
	if err != nil {
		t.Fatalf("LookupByRemoteKeys() failed: %v", err)
	}
	if found {
		t.Error("identity must be scoped per entity type")
	}
}

func TestLookupByRemoteKeysEmptyIdentity(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.LookupByRemoteKeys(context.Background(), "User", nil)
	if err != nil {
		t.Fatalf("LookupByRemoteKeys() failed: %v", err)
	}
	if found {
		t.Error("empty identity must never match")
	}
}

func TestSaveUpsertKeepsOneRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inst := record.New("User")
	inst.StorageID = "stor-1"
	inst.Set("id", int64(42))
	inst.Set("name", "Alice")
	identity := map[string]any{"id": int64(42)}

	if err := s.Save(ctx, inst, identity); err != nil {
		t.Fatalf("first Save() failed: %v", err)
	}

	inst.Set("name", "Alicia")
	if err := s.Save(ctx, inst, identity); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	all, err := s.List(ctx, "User")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
	if name := all[0].Fields["name"]; name != "Alicia" {
		t.Errorf("name = %v, expected Alicia", name)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Tx) error {
		inst := record.New("User")
		inst.StorageID = "stor-1"
		inst.Set("id", int64(1))
		if err := tx.Save(ctx, inst, map[string]any{"id": int64(1)}); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatal("expected error from WithTx")
	}

	_, found, err := s.Get(ctx, "stor-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if found {
		t.Error("partial write visible after rollback")
	}
}

func TestWithTxCommits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Tx) error {
		for i := 1; i <= 3; i++ {
			inst := record.New("User")
			inst.StorageID = fmt.Sprintf("stor-%d", i)
			inst.Set("id", int64(i))
			if err := tx.Save(ctx, inst, map[string]any{"id": int64(i)}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() failed: %v", err)
	}

	all, err := s.List(ctx, "User")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 records, got %d", len(all))
	}
}

func TestListEmptyReturnsEmptySlice(t *testing.T) {
	s := openTestStore(t)

	all, err := s.List(context.Background(), "User")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if all == nil {
		t.Error("List() should return an empty slice, not nil")
	}
	if len(all) != 0 {
		t.Errorf("expected 0 records, got %d", len(all))
	}
}
