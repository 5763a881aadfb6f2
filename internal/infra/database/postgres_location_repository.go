package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"padel_notifier/internal/domain/location"
)

type PostgresLocationRepository struct {
	db *sql.DB
}

func NewPostgresLocationRepository(db *sql.DB) *PostgresLocationRepository {
	return &PostgresLocationRepository{db: db}
}

func (r *PostgresLocationRepository) GetByID(ctx context.Context, id string) (*location.Location, error) {
	return r.getOne(ctx, `SELECT id, name, courts, created_at FROM locations WHERE id = $1`, id)
}

func (r *PostgresLocationRepository) GetByName(ctx context.Context, name string) (*location.Location, error) {
	return r.getOne(ctx, `SELECT id, name, courts, created_at FROM locations WHERE name = $1`, name)
}

func (r *PostgresLocationRepository) getOne(ctx context.Context, query, arg string) (*location.Location, error) {
	l := &location.Location{}
	var courts []byte
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&l.ID, &l.Name, &courts, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("error getting location: %w", err)
	}
	if l.Courts, err = decodeCourts(courts); err != nil {
		return nil, fmt.Errorf("error decoding courts of location %s: %w", l.ID, err)
	}
	return l, nil
}

func decodeCourts(raw []byte) (map[string][]string, error) {
	courts := map[string][]string{}
	if len(raw) == 0 {
		return courts, nil
	}
	if err := json.Unmarshal(raw, &courts); err != nil {
		return nil, err
	}
	return courts, nil
}

func encodeCourts(courts map[string][]string) ([]byte, error) {
	if courts == nil {
		courts = map[string][]string{}
	}
	return json.Marshal(courts)
}
