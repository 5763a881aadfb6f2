package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"padel_notifier/internal/domain/user"
)

type PostgresLinkCodeRepository struct {
	db *sql.DB
}

func NewPostgresLinkCodeRepository(db *sql.DB) *PostgresLinkCodeRepository {
	return &PostgresLinkCodeRepository{db: db}
}

func (r *PostgresLinkCodeRepository) Create(ctx context.Context, code user.LinkCode) error {
	query := `INSERT INTO telegram_link_codes (code, user_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, code.Code, code.UserID, code.ExpiresAt); err != nil {
		return fmt.Errorf("error creating link code: %w", err)
	}
	return nil
}

// Redeem deletes the code in the same statement that reads it, so a code links at most one chat.
func (r *PostgresLinkCodeRepository) Redeem(ctx context.Context, code string, now time.Time) (string, error) {
	query := `DELETE FROM telegram_link_codes WHERE code = $1 AND expires_at > $2 RETURNING user_id`
	var userID string
	if err := r.db.QueryRowContext(ctx, query, code, now).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrLinkCodeNotFound
		}
		return "", fmt.Errorf("error redeeming link code: %w", err)
	}
	return userID, nil
}
