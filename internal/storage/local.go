package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ignite/polite-popup/internal/popup"
)

// LocalStore keeps one JSON file per visitor under a data directory. Meant
// for development and single-host deployments.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(visitorID string) string {
	// Visitor IDs are server-minted UUIDs, but never trust them as path
	// components.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(visitorID)
	return filepath.Join(s.dir, safe+".json")
}

func (s *LocalStore) Read(_ context.Context, visitorID string) (popup.ExposureRecord, error) {
	data, err := os.ReadFile(s.path(visitorID))
	if os.IsNotExist(err) {
		return popup.DefaultExposureRecord(), nil
	}
	if err != nil {
		return popup.DefaultExposureRecord(), fmt.Errorf("reading exposure record: %w", err)
	}

	var rec popup.ExposureRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("WARN corrupt exposure file visitor=%s: %v", visitorID, err)
		return popup.DefaultExposureRecord(), nil
	}
	return rec, nil
}

func (s *LocalStore) Write(_ context.Context, visitorID string, rec popup.ExposureRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling exposure record: %w", err)
	}
	if err := os.WriteFile(s.path(visitorID), data, 0644); err != nil {
		return fmt.Errorf("writing exposure record: %w", err)
	}
	return nil
}
