package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"padel_notifier/internal/app"
	"padel_notifier/internal/domain/reminder"
)

// KindRunner runs one evaluation pass for one event kind.
type KindRunner interface {
	RunKind(ctx context.Context, kind reminder.Kind) (app.PassSummary, error)
}

// ReminderScheduler triggers an evaluation pass per event kind on a cron
// spec. A pass still running when its next tick arrives makes that tick a no-op.
type ReminderScheduler struct {
	cronEngine  *cron.Cron
	runner      KindRunner
	kinds       []reminder.Kind
	logger      logrus.FieldLogger
	spec        string
	passTimeout time.Duration
}

func NewReminderScheduler(
	runner KindRunner,
	kinds []reminder.Kind,
	logger logrus.FieldLogger,
	spec string, // e.g. "*/5 * * * *"
	passTimeout time.Duration,
) *ReminderScheduler {
	cronLogger := cron.VerbosePrintfLogger(logrusPrintf{logger})
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner:      runner,
		kinds:       kinds,
		logger:      logger,
		spec:        spec,
		passTimeout: passTimeout,
	}
}

// Start registers one job per kind and starts the cron engine.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	for _, kind := range s.kinds {
		kind := kind
		if _, err := s.cronEngine.AddFunc(s.spec, func() { s.runPass(kind) }); err != nil {
			return fmt.Errorf("could not add %s reminder job: %w", kind, err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{"spec": s.spec, "kinds": s.kinds}).Info("Reminder scheduler started")
	return nil
}

func (s *ReminderScheduler) runPass(kind reminder.Kind) {
	log := s.logger.WithField("kind", kind)
	log.Debug("Cron job triggered for reminder pass")

	ctx, cancel := context.WithTimeout(context.Background(), s.passTimeout)
	defer cancel()

	summary, err := s.runner.RunKind(ctx, kind)
	if err != nil {
		log.WithError(err).Error("Error during reminder pass")
		return
	}
	log.WithField("took", summary.Took.String()).Debug("Reminder pass finished")
}

// Stop stops scheduling and waits for running passes.
func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped")
}

type logrusPrintf struct {
	logger logrus.FieldLogger
}

func (l logrusPrintf) Printf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
