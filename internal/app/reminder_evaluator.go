// internal/app/reminder_evaluator.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"padel_notifier/internal/domain/reminder"
)

// Outcome is where one event ended up in an evaluation pass.
type Outcome string

const (
	OutcomeNoWindow     Outcome = "no_window"
	OutcomeAlreadyFired Outcome = "already_fired"
	OutcomeNoRecipients Outcome = "no_recipients"
	OutcomeFired        Outcome = "fired"
	OutcomeFailed       Outcome = "failed"
)

// PassSummary counts the outcomes of one pass over one event kind.
type PassSummary struct {
	Kind         reminder.Kind
	Scanned      int
	Fired        int
	AlreadyFired int
	NoRecipients int
	Failed       int
	LedgerErrors int
	Took         time.Duration
}

func (s *PassSummary) count(o Outcome) {
	switch o {
	case OutcomeFired:
		s.Fired++
	case OutcomeAlreadyFired:
		s.AlreadyFired++
	case OutcomeNoRecipients:
		s.NoRecipients++
	case OutcomeFailed:
		s.Failed++
	}
}

// ReminderEvaluator runs evaluation passes: classify each event against its
// kind's windows, consult the ledger, resolve, dispatch, then commit.
type ReminderEvaluator interface {
	RunPass(ctx context.Context) []PassSummary
	RunKind(ctx context.Context, kind reminder.Kind) (PassSummary, error)
}

type ReminderEvaluatorImpl struct {
	sources    map[reminder.Kind]ReminderSource
	order      []reminder.Kind
	policy     reminder.Policy
	ledger     reminder.Ledger
	resolver   RecipientResolver
	dispatcher Dispatcher
	logger     logrus.FieldLogger
	metrics    Metrics
	now        func() time.Time
}

type ReminderEvaluatorDeps struct {
	Sources    []ReminderSource
	Policy     reminder.Policy
	Ledger     reminder.Ledger
	Resolver   RecipientResolver
	Dispatcher Dispatcher
	Logger     logrus.FieldLogger
	Metrics    Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewReminderEvaluator(deps ReminderEvaluatorDeps) (*ReminderEvaluatorImpl, error) {
	e := &ReminderEvaluatorImpl{
		sources:    map[reminder.Kind]ReminderSource{},
		policy:     deps.Policy,
		ledger:     deps.Ledger,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Now,
	}
	if e.metrics == nil {
		e.metrics = NopMetrics{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	for _, src := range deps.Sources {
		kind := src.Kind()
		if _, ok := e.policy[kind]; !ok {
			return nil, fmt.Errorf("no window policy for event kind %s", kind)
		}
		if _, dup := e.sources[kind]; dup {
			return nil, fmt.Errorf("duplicate source for event kind %s", kind)
		}
		e.sources[kind] = src
		e.order = append(e.order, kind)
	}
	return e, nil
}

// Kinds lists the kinds this evaluator has sources for.
func (e *ReminderEvaluatorImpl) Kinds() []reminder.Kind {
	return append([]reminder.Kind(nil), e.order...)
}

// RunPass evaluates every kind. A kind whose events cannot be listed is logged
// and the others still run.
func (e *ReminderEvaluatorImpl) RunPass(ctx context.Context) []PassSummary {
	summaries := make([]PassSummary, 0, len(e.order))
	for _, kind := range e.order {
		summary, err := e.RunKind(ctx, kind)
		if err != nil {
			e.logger.WithError(err).WithField("kind", kind).Error("reminder pass failed")
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func (e *ReminderEvaluatorImpl) RunKind(ctx context.Context, kind reminder.Kind) (summary PassSummary, err error) {
	summary.Kind = kind
	src, ok := e.sources[kind]
	if !ok {
		return summary, fmt.Errorf("no reminder source for event kind %s", kind)
	}
	kp := e.policy[kind]

	began := time.Now()
	defer func() {
		summary.Took = time.Since(began)
		e.metrics.PassCompleted(kind, summary.Took)
	}()

	now := e.now()
	events, err := src.ListEvents(ctx, now)
	if err != nil {
		return summary, err
	}
	summary.Scanned = len(events)

	for _, ev := range events {
		if ctx.Err() != nil {
			return summary, fmt.Errorf("reminder pass for %s interrupted: %w", kind, ctx.Err())
		}
		outcome, ledgerErr := e.processEvent(ctx, now, src, kp, ev)
		summary.count(outcome)
		if ledgerErr {
			summary.LedgerErrors++
		}
	}

	e.logger.WithFields(logrus.Fields{
		"kind":          kind,
		"scanned":       summary.Scanned,
		"fired":         summary.Fired,
		"already_fired": summary.AlreadyFired,
		"no_recipients": summary.NoRecipients,
		"failed":        summary.Failed,
	}).Info("reminder pass complete")
	return summary, nil
}

// processEvent isolates one event: errors and panics are logged and reported
// as OutcomeFailed so the pass moves on.
func (e *ReminderEvaluatorImpl) processEvent(ctx context.Context, now time.Time, src ReminderSource, kp reminder.KindPolicy, ev reminder.Event) (outcome Outcome, ledgerErr bool) {
	log := e.logger.WithFields(logrus.Fields{"kind": ev.Kind, "event_id": ev.ID})
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic while evaluating event: %v", r)
			outcome = OutcomeFailed
		}
	}()

	label, ok := reminder.Classify(now, ev.Start, kp.Windows)
	if !ok {
		return OutcomeNoWindow, false
	}
	log = log.WithField("window", label)
	key := reminder.Key(ev.ID, label)

	fired, err := e.ledger.HasFired(ctx, key)
	if err != nil {
		log.WithError(err).Error("ledger check failed")
		return OutcomeFailed, false
	}
	if fired {
		log.Debug("window already fired")
		return OutcomeAlreadyFired, false
	}

	subject, err := src.Audience(ctx, ev)
	if err != nil {
		log.WithError(err).Error("failed to determine audience")
		return OutcomeFailed, false
	}
	devices, err := e.resolver.Resolve(ctx, subject)
	if err != nil {
		log.WithError(err).Error("failed to resolve recipients")
		return OutcomeFailed, false
	}

	rec := reminder.Record{Key: key, EventID: ev.ID, Kind: ev.Kind, Window: label}
	if len(subject.UserIDs) == 1 {
		rec.UserID = subject.UserIDs[0]
	}

	if len(devices) == 0 {
		log.WithField("subject", subject.String()).Info("no devices to notify")
		if kp.OnEmpty == reminder.EmptyCommit {
			rec.SentAt = e.now()
			if err := e.ledger.RecordFired(ctx, rec); err != nil {
				log.WithError(err).Error("failed to record empty window")
				return OutcomeNoRecipients, true
			}
		}
		return OutcomeNoRecipients, false
	}

	title, body := src.Compose(ev, label)
	report := e.dispatcher.Dispatch(ctx, devices, title, body)

	rec.DeviceCount = report.Attempted
	rec.SentAt = e.now()
	e.metrics.ReminderFired(ev.Kind, label)
	log = log.WithFields(logrus.Fields{"attempted": report.Attempted, "sent": report.Succeeded})
	if err := e.ledger.RecordFired(ctx, rec); err != nil {
		log.WithError(err).Error("reminder dispatched but ledger write failed; it may be sent again")
		return OutcomeFired, true
	}
	log.Info("reminder dispatched")
	return OutcomeFired, false
}
