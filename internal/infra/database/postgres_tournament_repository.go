package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"padel_notifier/internal/domain/tournament"
)

type PostgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) *PostgresTournamentRepository {
	return &PostgresTournamentRepository{db: db}
}

func (r *PostgresTournamentRepository) ListByStatuses(ctx context.Context, statuses []tournament.Status) ([]*tournament.Tournament, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	query := `SELECT id, name, status, bracket FROM tournaments WHERE status = ANY($1::text[]) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("error listing tournaments: %w", err)
	}
	defer rows.Close()

	var out []*tournament.Tournament
	for rows.Next() {
		t := &tournament.Tournament{}
		var (
			status  string
			bracket []byte
		)
		if err := rows.Scan(&t.ID, &t.Name, &status, &bracket); err != nil {
			return nil, fmt.Errorf("error scanning tournament row: %w", err)
		}
		t.Status = tournament.Status(status)
		if len(bracket) > 0 {
			if err := json.Unmarshal(bracket, &t.Bracket); err != nil {
				return nil, fmt.Errorf("error decoding bracket of tournament %s: %w", t.ID, err)
			}
		}
		out = append(out, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return out, nil
}

func (r *PostgresTournamentRepository) ListApprovedParticipants(ctx context.Context, tournamentID string) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM tournament_registrations
               WHERE tournament_id = $1 AND status = 'approved' ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("error listing tournament participants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning participant row: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return ids, nil
}
