// internal/app/sync_relay.go
package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"padel_notifier/internal/domain/booking"
	"padel_notifier/internal/infra/config"
)

const (
	SyncEventCreated   = "booking.created"
	SyncEventUpdated   = "booking.updated"
	SyncEventCancelled = "booking.cancelled"

	defaultWebhookTimeout = 5 * time.Second
)

// SyncPayload is the body POSTed to the sync webhook.
type SyncPayload struct {
	Event     string          `json:"event"`
	Timestamp string          `json:"timestamp"`
	Data      BookingSnapshot `json:"data"`
}

type BookingSnapshot struct {
	ID             string              `json:"id"`
	UserID         string              `json:"userId"`
	LocationID     string              `json:"locationId"`
	Location       string              `json:"location"`
	Date           string              `json:"date"`
	Time           string              `json:"time"`
	EndTime        string              `json:"endTime,omitempty"`
	Type           booking.Type        `json:"type"`
	Courts         map[string][]string `json:"courts"`
	Status         booking.Status      `json:"status"`
	PreviousStatus booking.Status      `json:"previousStatus,omitempty"`
}

// WebhookPoster delivers one payload. Implementations do not retry.
type WebhookPoster interface {
	Post(ctx context.Context, payload SyncPayload) error
}

// StatusChange is a booking after an update along with its status before it.
type StatusChange struct {
	Booking  booking.Booking
	Previous booking.Status
}

// SyncRelay mirrors booking lifecycle changes at allow-listed locations to an
// external system. Delivery is best effort and off the caller's path.
type SyncRelay struct {
	cfg     *config.SyncConfig
	poster  WebhookPoster
	logger  logrus.FieldLogger
	metrics Metrics
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewSyncRelay(cfg *config.SyncConfig, poster WebhookPoster, logger logrus.FieldLogger, metrics Metrics) *SyncRelay {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &SyncRelay{cfg: cfg, poster: poster, logger: logger, metrics: metrics, now: time.Now}
}

func (r *SyncRelay) HandleCreated(_ context.Context, b booking.Booking) {
	r.relay(SyncEventCreated, b, "")
}

// HandleStatusChange relays transitions only; an update that leaves the status
// alone emits nothing.
func (r *SyncRelay) HandleStatusChange(_ context.Context, change StatusChange) {
	if change.Booking.Status == change.Previous {
		return
	}
	event := SyncEventUpdated
	if change.Booking.Status == booking.StatusCancelled {
		event = SyncEventCancelled
	}
	r.relay(event, change.Booking, change.Previous)
}

func (r *SyncRelay) relay(event string, b booking.Booking, previous booking.Status) {
	log := r.logger.WithFields(logrus.Fields{"event": event, "booking_id": b.ID, "location_id": b.LocationID})
	if !r.cfg.Allows(b.LocationID) {
		log.Debug("location not synced, skipping webhook")
		return
	}

	payload := SyncPayload{
		Event:     event,
		Timestamp: r.now().UTC().Format(time.RFC3339),
		Data: BookingSnapshot{
			ID:             b.ID,
			UserID:         b.UserID,
			LocationID:     b.LocationID,
			Location:       b.LocationName,
			Date:           b.Date,
			Time:           b.Time,
			EndTime:        b.EndTime,
			Type:           b.Type,
			Courts:         b.Courts,
			Status:         b.Status,
			PreviousStatus: previous,
		},
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		timeout := r.cfg.Timeout
		if timeout <= 0 {
			timeout = defaultWebhookTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := r.poster.Post(ctx, payload); err != nil {
			r.metrics.WebhookPosted(false)
			log.WithError(err).Warn("sync webhook failed")
			return
		}
		r.metrics.WebhookPosted(true)
		log.Info("sync webhook delivered")
	}()
}

// Close waits for in-flight posts or until ctx is done.
func (r *SyncRelay) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
