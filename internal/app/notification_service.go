// internal/app/notification_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"padel_notifier/internal/domain/notification"
)

// NotificationService persists notification intents and announces them.
type NotificationService interface {
	CreateIntent(ctx context.Context, intent notification.Intent) (*notification.Intent, error)
}

type NotificationServiceImpl struct {
	repo    notification.Repository
	created *Trigger[notification.Intent]
	logger  logrus.FieldLogger
}

func NewNotificationService(repo notification.Repository, created *Trigger[notification.Intent], logger logrus.FieldLogger) *NotificationServiceImpl {
	return &NotificationServiceImpl{repo: repo, created: created, logger: logger}
}

// CreateIntent stores the intent, then fires the intent-created trigger
// synchronously before returning.
func (s *NotificationServiceImpl) CreateIntent(ctx context.Context, intent notification.Intent) (*notification.Intent, error) {
	if !intent.IsAdminNotification && intent.UserID == "" {
		return nil, fmt.Errorf("notification needs a user id or the admin flag")
	}
	intent = intent.WithDefaults()
	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Create(ctx, &intent); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"notification_id": intent.ID,
		"admin":           intent.IsAdminNotification,
		"venue":           intent.Venue,
	}).Info("notification created")

	s.created.Fire(ctx, intent)
	return &intent, nil
}

// IntentDispatcher delivers newly created intents.
type IntentDispatcher struct {
	resolver   RecipientResolver
	dispatcher Dispatcher
	logger     logrus.FieldLogger
}

func NewIntentDispatcher(resolver RecipientResolver, dispatcher Dispatcher, logger logrus.FieldLogger) *IntentDispatcher {
	return &IntentDispatcher{resolver: resolver, dispatcher: dispatcher, logger: logger}
}

// Handle never fails the caller; outcomes are logged.
func (d *IntentDispatcher) Handle(ctx context.Context, intent notification.Intent) {
	subject := UserSubject(intent.UserID)
	if intent.IsAdminNotification {
		subject = AdminBroadcast(intent.Venue)
	}
	log := d.logger.WithFields(logrus.Fields{"notification_id": intent.ID, "subject": subject.String()})

	devices, err := d.resolver.Resolve(ctx, subject)
	if err != nil {
		log.WithError(err).Error("failed to resolve notification recipients")
		return
	}
	if len(devices) == 0 {
		log.Info("no devices to notify")
		return
	}

	report := d.dispatcher.Dispatch(ctx, devices, intent.Title, intent.Body)
	log = log.WithFields(logrus.Fields{"sent": report.Succeeded, "attempted": report.Attempted})
	if report.Err != nil {
		log.WithError(report.Err).Warn("notification partially delivered")
		return
	}
	log.Info("notification delivered")
}
