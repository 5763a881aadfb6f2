package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"padel_notifier/internal/domain/booking"
)

type PostgresBookingRepository struct {
	db *sql.DB
}

func NewPostgresBookingRepository(db *sql.DB) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

const bookingColumns = `id, user_id, location_id, location_name, date, time, end_time, type, courts, status, created_at, updated_at`

func (r *PostgresBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	courts, err := encodeCourts(b.Courts)
	if err != nil {
		return fmt.Errorf("error encoding booking courts: %w", err)
	}
	query := `INSERT INTO bookings (id, user_id, location_id, location_name, date, time, end_time, type, courts, status)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
               RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		b.ID, b.UserID, b.LocationID, b.LocationName, b.Date, b.Time, b.EndTime, string(b.Type), courts, string(b.Status),
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("error getting booking by ID: %w", err)
	}
	return b, nil
}

func (r *PostgresBookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	courts, err := encodeCourts(b.Courts)
	if err != nil {
		return fmt.Errorf("error encoding booking courts: %w", err)
	}
	query := `UPDATE bookings
               SET time = $1, end_time = $2, courts = $3, status = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`
	err = r.db.QueryRowContext(ctx, query, b.Time, b.EndTime, courts, string(b.Status), b.ID).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("error updating booking: %w", err)
	}
	return nil
}

func (r *PostgresBookingRepository) ListByStatusAndType(ctx context.Context, status booking.Status, typ booking.Type) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 AND type = $2 ORDER BY id`
	return r.list(ctx, query, string(status), string(typ))
}

func (r *PostgresBookingRepository) ListByLocationAndDate(ctx context.Context, locationID, date string) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE location_id = $1 AND date = $2 ORDER BY time, id`
	return r.list(ctx, query, locationID, date)
}

func (r *PostgresBookingRepository) list(ctx context.Context, query string, args ...any) ([]*booking.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating booking rows: %w", err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	b := &booking.Booking{}
	var (
		typ, status string
		courts      []byte
	)
	err := row.Scan(&b.ID, &b.UserID, &b.LocationID, &b.LocationName, &b.Date, &b.Time, &b.EndTime,
		&typ, &courts, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Type = booking.Type(typ)
	b.Status = booking.Status(status)
	if b.Courts, err = decodeCourts(courts); err != nil {
		return nil, fmt.Errorf("decoding courts of booking %s: %w", b.ID, err)
	}
	return b, nil
}
