package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/user"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, display_name, role, assigned_locations, fcm_token, fcm_tokens, created_at, updated_at`

// storedToken is one entry of the fcm_tokens JSONB column.
type storedToken struct {
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) ListByRoles(ctx context.Context, roles []user.Role) ([]*user.User, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ANY($1::text[]) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("error listing users by role: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) SetToken(ctx context.Context, userID string, platform push.Platform, token string) error {
	entry, err := json.Marshal(storedToken{Token: token, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("error encoding token: %w", err)
	}
	query := `UPDATE users SET fcm_tokens = jsonb_set(fcm_tokens, ARRAY[$2::text], $3::jsonb), updated_at = NOW()
               WHERE id = $1`
	return r.execOnUser(ctx, "setting user token", query, userID, string(platform), string(entry))
}

func (r *PostgresUserRepository) RemoveToken(ctx context.Context, userID string, platform push.Platform) error {
	query := `UPDATE users SET fcm_tokens = fcm_tokens - $2::text, updated_at = NOW() WHERE id = $1`
	return r.execOnUser(ctx, "removing user token", query, userID, string(platform))
}

func (r *PostgresUserRepository) RemoveMatchingToken(ctx context.Context, userID string, platform push.Platform, token string) error {
	query := `UPDATE users SET fcm_tokens = fcm_tokens - $2::text, updated_at = NOW()
               WHERE id = $1 AND fcm_tokens -> $2::text ->> 'token' = $3`
	err := r.execOnUser(ctx, "removing matching user token", query, userID, string(platform), token)
	if errors.Is(err, ErrUserNotFound) {
		return ErrDeviceNotFound
	}
	return err
}

func (r *PostgresUserRepository) execOnUser(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error %s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error %s: %w", op, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*user.User, error) {
	u := &user.User{}
	var (
		role       string
		assigned   pq.StringArray
		tokensJSON []byte
	)
	err := row.Scan(&u.ID, &u.DisplayName, &role, &assigned, &u.LegacyToken, &tokensJSON, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = user.Role(role)
	u.AssignedLocations = []string(assigned)
	u.Tokens = decodeTokens(tokensJSON)
	return u, nil
}

// decodeTokens reads every stored key as one device. Keys are mapped onto the
// closed platform set but kept as stored, so unrecognised keys and case
// variants are all delivered to. Blank or malformed entries are dropped.
func decodeTokens(raw []byte) []user.TokenRecord {
	if len(raw) == 0 {
		return nil
	}
	var stored map[string]json.RawMessage
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil
	}

	keys := make([]string, 0, len(stored))
	for k := range stored {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []user.TokenRecord
	for _, key := range keys {
		var entry storedToken
		if err := json.Unmarshal(stored[key], &entry); err != nil || entry.Token == "" {
			continue
		}
		out = append(out, user.TokenRecord{
			Platform:    push.ParsePlatform(key),
			RawPlatform: key,
			Token:       entry.Token,
			UpdatedAt:   entry.UpdatedAt,
		})
	}
	return out
}
