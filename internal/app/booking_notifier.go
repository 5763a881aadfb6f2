// internal/app/booking_notifier.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"padel_notifier/internal/domain/booking"
	"padel_notifier/internal/domain/notification"
	"padel_notifier/internal/domain/schedule"
	"padel_notifier/internal/domain/user"
)

const (
	IntentKindBookingRequest = "booking_request"
	fallbackActorName        = "A user"
)

// BookingNotifier turns each new booking into exactly one admin notification
// scoped to the booking's venue.
type BookingNotifier struct {
	users         user.Repository
	notifications NotificationService
	logger        logrus.FieldLogger
}

func NewBookingNotifier(users user.Repository, notifications NotificationService, logger logrus.FieldLogger) *BookingNotifier {
	return &BookingNotifier{users: users, notifications: notifications, logger: logger}
}

func (n *BookingNotifier) HandleCreated(ctx context.Context, b booking.Booking) {
	intent := notification.Intent{
		IsAdminNotification: true,
		Venue:               b.LocationName,
		Kind:                IntentKindBookingRequest,
		Title:               bookingRequestTitle(b.Type),
		Body:                n.summary(ctx, b),
	}
	if _, err := n.notifications.CreateIntent(ctx, intent); err != nil {
		n.logger.WithError(err).WithField("booking_id", b.ID).Error("failed to create booking notification")
	}
}

func bookingRequestTitle(t booking.Type) string {
	if t == booking.TypeTraining {
		return "New Training Request"
	}
	return "New Booking Request"
}

// summary reads like "Sam requested Venue X on Tue, 27 Jan 2026 from 7:45 PM to 9:15 PM".
func (n *BookingNotifier) summary(ctx context.Context, b booking.Booking) string {
	return fmt.Sprintf("%s requested %s on %s %s",
		n.actorName(ctx, b.UserID), venueOrDefault(b.LocationName), displayDate(b.Date), timeRange(b.Time, b.EndTime))
}

func (n *BookingNotifier) actorName(ctx context.Context, userID string) string {
	if userID == "" {
		return fallbackActorName
	}
	u, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.WithError(err).WithField("user_id", userID).Warn("booking actor lookup failed")
		return fallbackActorName
	}
	if strings.TrimSpace(u.DisplayName) == "" {
		return fallbackActorName
	}
	return u.DisplayName
}

func venueOrDefault(v string) string {
	if v == "" {
		return "a venue"
	}
	return v
}

func displayDate(raw string) string {
	d, err := schedule.ParseDate(raw)
	if err != nil {
		return raw
	}
	return d.At(schedule.Clock{}, time.UTC).Format("Mon, 02 Jan 2006")
}

func timeRange(start, end string) string {
	if end == "" {
		return "at " + start
	}
	return fmt.Sprintf("from %s to %s", start, end)
}
