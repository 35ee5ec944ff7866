package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/ignite/polite-popup/internal/popup"
)

// PostgresStore keeps exposure records in a single upsert table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the exposures table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS popup_exposures (
			visitor_id   TEXT PRIMARY KEY,
			status       TEXT NOT NULL DEFAULT 'unsubscribed',
			seen_count   INTEGER NOT NULL DEFAULT 0,
			last_seen_at BIGINT NOT NULL DEFAULT 0
		)`)
	return err
}

func (s *PostgresStore) Read(ctx context.Context, visitorID string) (popup.ExposureRecord, error) {
	var rec popup.ExposureRecord
	var status string

	err := s.db.QueryRowContext(ctx,
		`SELECT status, seen_count, last_seen_at FROM popup_exposures WHERE visitor_id = $1`,
		visitorID,
	).Scan(&status, &rec.SeenCount, &rec.LastSeenAt)
	if err == sql.ErrNoRows {
		return popup.DefaultExposureRecord(), nil
	}
	if err != nil {
		return popup.DefaultExposureRecord(), fmt.Errorf("reading exposure record: %w", err)
	}

	rec.Status = popup.SubscriptionStatus(status)
	if rec.Status != popup.StatusSubscribed && rec.Status != popup.StatusUnsubscribed {
		log.Printf("WARN unknown subscription status %q visitor=%s", status, visitorID)
		rec.Status = popup.StatusUnsubscribed
	}
	return rec, nil
}

func (s *PostgresStore) Write(ctx context.Context, visitorID string, rec popup.ExposureRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO popup_exposures (visitor_id, status, seen_count, last_seen_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (visitor_id) DO UPDATE
		SET status = EXCLUDED.status,
		    seen_count = EXCLUDED.seen_count,
		    last_seen_at = EXCLUDED.last_seen_at`,
		visitorID, string(rec.Status), rec.SeenCount, rec.LastSeenAt)
	if err != nil {
		return fmt.Errorf("writing exposure record: %w", err)
	}
	return nil
}
