package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer kv.Close()

	if _, found, err := kv.Get(ctx, "nutrition_ledger"); err != nil || found {
		t.Fatalf("expected absent key, got found=%v err=%v", found, err)
	}

	if err := kv.Put(ctx, "nutrition_ledger", []byte(`[{"date":"05.03.2024"}]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := kv.Put(ctx, "nutrition_ledger", []byte(`[]`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, found, err := kv.Get(ctx, "nutrition_ledger")
	if err != nil || !found || string(got) != "[]" {
		t.Fatalf("Get: %q found=%v err=%v", got, found, err)
	}
}

func TestKVStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	kv, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := kv.Put(ctx, "nutrition_targets", []byte(`{"calories_kcal":1800}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	kv.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, found, err := reopened.Get(ctx, "nutrition_targets")
	if err != nil || !found || string(got) != `{"calories_kcal":1800}` {
		t.Fatalf("Get after reopen: %q found=%v err=%v", got, found, err)
	}
}
