package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/polite-popup/internal/popup"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return mr, client, func() {
		client.Close()
		mr.Close()
	}
}

func TestRedisStoreReadMissing(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisStore(client, "")
	rec, err := store.Read(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if rec != popup.DefaultExposureRecord() {
		t.Errorf("Read() = %+v, want default record", rec)
	}
}

func TestRedisStoreRoundtrip(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisStore(client, "polite-popup")
	want := popup.ExposureRecord{
		Status:     popup.StatusSubscribed,
		SeenCount:  4,
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

func TestRedisStoreKeyLayout(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisStore(client, "polite-popup")
	if err := store.Write(context.Background(), "v1", popup.DefaultExposureRecord()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !mr.Exists("polite-popup:v1") {
		t.Fatal("record not stored under polite-popup:<vid>")
	}
}

func TestRedisStoreCorruptRecordFailsSoft(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set("polite-popup:v1", "{not json")

	store := NewRedisStore(client, "polite-popup")
	rec, err := store.Read(context.Background(), "v1")
	if err != nil {
		t.Fatalf("Read() error on corrupt record: %v", err)
	}
	if rec != popup.DefaultExposureRecord() {
		t.Errorf("Read() = %+v, want default record", rec)
	}
}

func TestRedisStoreBackendDownReturnsDefault(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()
	mr.Close()

	store := NewRedisStore(client, "")
	rec, err := store.Read(context.Background(), "v1")
	if err == nil {
		t.Fatal("Read() expected error with backend down")
	}
	if rec != popup.DefaultExposureRecord() {
		t.Errorf("Read() = %+v, want default record alongside error", rec)
	}
}
