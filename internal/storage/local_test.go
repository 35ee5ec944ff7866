package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ignite/polite-popup/internal/popup"
)

func TestLocalStoreRoundtrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	want := popup.ExposureRecord{
		Status:     popup.StatusUnsubscribed,
		SeenCount:  2,
		LastSeenAt: 1700000000000,
	}
	if err := store.Write(context.Background(), "v1", want); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := store.Read(context.Background(), "v1")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}
}

func TestLocalStoreReadMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	rec, err := store.Read(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if rec != popup.DefaultExposureRecord() {
		t.Errorf("Read() = %+v, want default record", rec)
	}
}

func TestLocalStoreCorruptFileFailsSoft(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "v1.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	rec, err := store.Read(context.Background(), "v1")
	if err != nil {
		t.Fatalf("Read() error on corrupt file: %v", err)
	}
	if rec != popup.DefaultExposureRecord() {
		t.Errorf("Read() = %+v, want default record", rec)
	}
}

func TestLocalStoreSanitizesVisitorID(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	if err := store.Write(context.Background(), "../../escape", popup.DefaultExposureRecord()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("wrote %d files outside or inside dir, want 1 inside", len(entries))
	}
}
