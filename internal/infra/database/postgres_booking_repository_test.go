package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padel_notifier/internal/domain/booking"
)

var bookingRowColumns = []string{"id", "user_id", "location_id", "location_name", "date", "time", "end_time", "type", "courts", "status", "created_at", "updated_at"}

func TestBookingRepositoryListByStatusAndType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM bookings WHERE status = \$1 AND type = \$2`).
		WithArgs("approved", "venue").
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow("b1", "u1", "loc-1", "Venue X", "2026-01-27", "7:45 PM", "9:15 PM", "venue",
				[]byte(`{"Court 1":["7:45 PM"]}`), "approved", now, now))

	got, err := NewPostgresBookingRepository(db).ListByStatusAndType(context.Background(), booking.StatusApproved, booking.TypeVenue)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, booking.TypeVenue, got[0].Type)
	assert.Equal(t, map[string][]string{"Court 1": {"7:45 PM"}}, got[0].Courts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateAndUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	b := &booking.Booking{
		ID: "b1", UserID: "u1", LocationID: "loc-1", LocationName: "Venue X",
		Date: "2026-01-27", Time: "7:45 PM", Type: booking.TypeVenue, Status: booking.StatusPending,
		Courts: map[string][]string{"Court 1": {"7:45 PM"}},
	}

	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs("b1", "u1", "loc-1", "Venue X", "2026-01-27", "7:45 PM", "", "venue", sqlmock.AnyArg(), "pending").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery(`UPDATE bookings`).
		WithArgs("7:45 PM", "", sqlmock.AnyArg(), "approved", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	repo := NewPostgresBookingRepository(db)
	require.NoError(t, repo.Create(context.Background(), b))
	assert.Equal(t, now, b.CreatedAt)

	b.Status = booking.StatusApproved
	assert.ErrorIs(t, repo.Update(context.Background(), b), ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
