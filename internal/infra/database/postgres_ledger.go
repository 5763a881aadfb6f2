package database

import (
	"context"
	"database/sql"
	"fmt"

	"padel_notifier/internal/domain/reminder"
)

// PostgresLedger stores fired reminder windows in sent_reminders.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) HasFired(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sent_reminders WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking sent reminder %s: %w", key, err)
	}
	return exists, nil
}

// RecordFired inserts the record. An existing key is left untouched.
func (l *PostgresLedger) RecordFired(ctx context.Context, rec reminder.Record) error {
	query := `INSERT INTO sent_reminders (key, event_id, kind, window_label, user_id, device_count, sent_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               ON CONFLICT (key) DO NOTHING`
	_, err := l.db.ExecContext(ctx, query,
		rec.Key, rec.EventID, string(rec.Kind), string(rec.Window), rec.UserID, rec.DeviceCount, rec.SentAt)
	if err != nil {
		return fmt.Errorf("error recording sent reminder %s: %w", rec.Key, err)
	}
	return nil
}
