// internal/app/reminder_sources.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"padel_notifier/internal/domain/booking"
	"padel_notifier/internal/domain/reminder"
	"padel_notifier/internal/domain/schedule"
	"padel_notifier/internal/domain/tournament"
)

// ReminderSource materialises the events of one kind and knows who they
// concern and what to tell them.
type ReminderSource interface {
	Kind() reminder.Kind
	// ListEvents returns the schedulable events. Records with placeholder or
	// malformed times are left out.
	ListEvents(ctx context.Context, now time.Time) ([]reminder.Event, error)
	Audience(ctx context.Context, ev reminder.Event) (Subject, error)
	Compose(ev reminder.Event, window reminder.Label) (title, body string)
}

// BookingReminderSource covers approved bookings of one booking type.
type BookingReminderSource struct {
	kind     reminder.Kind
	typ      booking.Type
	bookings booking.Repository
	loc      *time.Location
	logger   logrus.FieldLogger
}

func NewVenueBookingSource(bookings booking.Repository, loc *time.Location, logger logrus.FieldLogger) *BookingReminderSource {
	return &BookingReminderSource{kind: reminder.KindBooking, typ: booking.TypeVenue, bookings: bookings, loc: loc, logger: logger}
}

func NewTrainingSource(bookings booking.Repository, loc *time.Location, logger logrus.FieldLogger) *BookingReminderSource {
	return &BookingReminderSource{kind: reminder.KindTraining, typ: booking.TypeTraining, bookings: bookings, loc: loc, logger: logger}
}

func (s *BookingReminderSource) Kind() reminder.Kind { return s.kind }

func (s *BookingReminderSource) ListEvents(ctx context.Context, _ time.Time) ([]reminder.Event, error) {
	bookings, err := s.bookings.ListByStatusAndType(ctx, booking.StatusApproved, s.typ)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved %s bookings: %w", s.typ, err)
	}

	events := make([]reminder.Event, 0, len(bookings))
	for _, b := range bookings {
		start, err := schedule.Resolve(b.Date, b.Time, s.loc)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"event_id": b.ID, "date": b.Date, "time": b.Time}).
				Debug("booking not schedulable, skipping")
			continue
		}
		venue := b.LocationName
		if venue == "" {
			venue = "Court"
		}
		events = append(events, reminder.Event{
			ID:                b.ID,
			Kind:              s.kind,
			Start:             start,
			OwnerID:           b.UserID,
			LocationLabel:     venue,
			CourtOrMatchLabel: b.CourtLabel(),
			DisplayDate:       b.Date,
			DisplayTime:       b.Time,
		})
	}
	return events, nil
}

func (s *BookingReminderSource) Audience(_ context.Context, ev reminder.Event) (Subject, error) {
	return UserSubject(ev.OwnerID), nil
}

func (s *BookingReminderSource) Compose(ev reminder.Event, window reminder.Label) (string, string) {
	if s.kind == reminder.KindTraining {
		switch window {
		case reminder.Label300Min:
			return "Training Today", fmt.Sprintf("Your training session at %s starts in 5 hours (%s)", ev.LocationLabel, ev.DisplayTime)
		default:
			return "Training Starting Soon!", fmt.Sprintf("Your training session at %s starts in 45 minutes (%s)", ev.LocationLabel, ev.DisplayTime)
		}
	}
	switch window {
	case reminder.Label10Min:
		return "Booking Starting Very Soon!", fmt.Sprintf("Your booking at %s starts in 10 minutes! (%s on %s)", ev.LocationLabel, ev.DisplayTime, ev.DisplayDate)
	default:
		return "Booking Starting Soon!", fmt.Sprintf("Your booking at %s starts in 30 minutes! (%s on %s)", ev.LocationLabel, ev.DisplayTime, ev.DisplayDate)
	}
}

// MatchReminderSource covers scheduled matches of tournaments in play.
type MatchReminderSource struct {
	tournaments tournament.Repository
	loc         *time.Location
	logger      logrus.FieldLogger
}

func NewMatchSource(tournaments tournament.Repository, loc *time.Location, logger logrus.FieldLogger) *MatchReminderSource {
	return &MatchReminderSource{tournaments: tournaments, loc: loc, logger: logger}
}

func (s *MatchReminderSource) Kind() reminder.Kind { return reminder.KindMatch }

func (s *MatchReminderSource) ListEvents(ctx context.Context, now time.Time) ([]reminder.Event, error) {
	tournaments, err := s.tournaments.ListByStatuses(ctx, tournament.ActiveStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tournaments: %w", err)
	}

	var events []reminder.Event
	for _, t := range tournaments {
		for _, m := range t.ScheduledMatches() {
			id := t.ID + "_" + m.Name
			start, err := s.matchStart(now, m.Schedule)
			if err != nil {
				s.logger.WithFields(logrus.Fields{"event_id": id, "start_time": m.Schedule.StartTime}).
					Debug("match not schedulable, skipping")
				continue
			}
			court := m.Schedule.Court
			if court == "" {
				court = "TBD"
			}
			events = append(events, reminder.Event{
				ID:                id,
				Kind:              reminder.KindMatch,
				Start:             start,
				OwnerID:           t.ID,
				LocationLabel:     t.Name,
				CourtOrMatchLabel: court,
				MatchType:         m.Type,
				DisplayDate:       m.Schedule.Date,
				DisplayTime:       m.Schedule.StartTime,
			})
		}
	}
	return events, nil
}

func (s *MatchReminderSource) matchStart(now time.Time, sch tournament.Schedule) (time.Time, error) {
	if sch.Date != "" {
		return schedule.Resolve(sch.Date, sch.StartTime, s.loc)
	}
	clock, err := schedule.ParseClock(sch.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Nearest(now, clock, s.loc), nil
}

func (s *MatchReminderSource) Audience(ctx context.Context, ev reminder.Event) (Subject, error) {
	ids, err := s.tournaments.ListApprovedParticipants(ctx, ev.OwnerID)
	if err != nil {
		return Subject{}, fmt.Errorf("failed to list participants of tournament %s: %w", ev.OwnerID, err)
	}
	return UserSubject(ids...), nil
}

func (s *MatchReminderSource) Compose(ev reminder.Event, window reminder.Label) (string, string) {
	switch window {
	case reminder.Label30Min:
		return "Match Starting Soon!", fmt.Sprintf("Your %s match starts in 30 minutes at %s", ev.MatchType, ev.CourtOrMatchLabel)
	case reminder.Label10Min:
		return "Match Starting Very Soon!", fmt.Sprintf("Your %s match starts in 10 minutes at %s", ev.MatchType, ev.CourtOrMatchLabel)
	default:
		return "Match Starting NOW!", fmt.Sprintf("Your %s match is starting now at %s", ev.MatchType, ev.CourtOrMatchLabel)
	}
}
