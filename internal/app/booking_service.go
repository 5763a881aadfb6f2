// internal/app/booking_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"padel_notifier/internal/domain/booking"
	"padel_notifier/internal/domain/location"
)

var ErrInvalidBooking = errors.New("invalid booking")

// NewBooking is the input for BookingService.Create.
type NewBooking struct {
	UserID     string
	LocationID string
	Date       string
	Time       string
	EndTime    string
	Type       booking.Type
	Courts     map[string][]string
	Status     booking.Status
}

// BookingService is the write path for bookings. Creation fires the
// booking-created trigger; status transitions fire the status-changed trigger.
type BookingService interface {
	Create(ctx context.Context, in NewBooking) (*booking.Booking, error)
	Update(ctx context.Context, id string, patch booking.Patch) (*booking.Booking, error)
	ListByLocationAndDate(ctx context.Context, locationID, date string) ([]*booking.Booking, error)
	Availability(ctx context.Context, locationID, date string) (map[string][]string, error)
}

type BookingServiceImpl struct {
	bookings      booking.Repository
	locations     location.Repository
	created       *Trigger[booking.Booking]
	statusChanged *Trigger[StatusChange]
	logger        logrus.FieldLogger
}

func NewBookingService(
	bookings booking.Repository,
	locations location.Repository,
	created *Trigger[booking.Booking],
	statusChanged *Trigger[StatusChange],
	logger logrus.FieldLogger,
) *BookingServiceImpl {
	return &BookingServiceImpl{
		bookings:      bookings,
		locations:     locations,
		created:       created,
		statusChanged: statusChanged,
		logger:        logger,
	}
}

func (s *BookingServiceImpl) Create(ctx context.Context, in NewBooking) (*booking.Booking, error) {
	loc, err := s.locations.GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load location %s: %w", in.LocationID, err)
	}
	if err := checkCourts(loc, in.Courts); err != nil {
		return nil, err
	}

	b := &booking.Booking{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		LocationID:   loc.ID,
		LocationName: loc.Name,
		Date:         in.Date,
		Time:         in.Time,
		EndTime:      in.EndTime,
		Type:         in.Type,
		Courts:       in.Courts,
		Status:       in.Status,
	}
	if b.Type == "" {
		b.Type = booking.TypeVenue
	}
	if b.Status == "" {
		b.Status = booking.StatusPending
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"booking_id": b.ID, "location_id": b.LocationID}).Info("booking created")

	s.created.Fire(ctx, *b)
	return b, nil
}

func (s *BookingServiceImpl) Update(ctx context.Context, id string, patch booking.Patch) (*booking.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Courts != nil {
		loc, err := s.locations.GetByID(ctx, b.LocationID)
		if err != nil {
			return nil, fmt.Errorf("failed to load location %s: %w", b.LocationID, err)
		}
		if err := checkCourts(loc, patch.Courts); err != nil {
			return nil, err
		}
	}

	previous := patch.Apply(b)
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", id, err)
	}

	if previous != b.Status {
		s.logger.WithFields(logrus.Fields{"booking_id": b.ID, "from": previous, "to": b.Status}).Info("booking status changed")
		s.statusChanged.Fire(ctx, StatusChange{Booking: *b, Previous: previous})
	}
	return b, nil
}

func (s *BookingServiceImpl) ListByLocationAndDate(ctx context.Context, locationID, date string) ([]*booking.Booking, error) {
	if _, err := s.locations.GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	return s.bookings.ListByLocationAndDate(ctx, locationID, date)
}

// Availability returns, per court, the slots not held by a live booking on date.
func (s *BookingServiceImpl) Availability(ctx context.Context, locationID, date string) (map[string][]string, error) {
	loc, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByLocationAndDate(ctx, locationID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	taken := map[string]map[string]bool{}
	for _, b := range bookings {
		if !b.HoldsSlots() {
			continue
		}
		for court, slots := range b.Courts {
			if taken[court] == nil {
				taken[court] = map[string]bool{}
			}
			for _, slot := range slots {
				taken[court][slot] = true
			}
		}
	}

	free := make(map[string][]string, len(loc.Courts))
	for _, court := range loc.CourtNames() {
		open := []string{}
		for _, slot := range loc.Courts[court] {
			if !taken[court][slot] {
				open = append(open, slot)
			}
		}
		free[court] = open
	}
	return free, nil
}

func checkCourts(loc *location.Location, courts map[string][]string) error {
	var unknown []string
	for court := range courts {
		if _, ok := loc.Courts[court]; !ok {
			unknown = append(unknown, court)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: unknown courts %s at %s", ErrInvalidBooking, strings.Join(unknown, ", "), loc.Name)
	}
	return nil
}
