package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gopkg.in/telebot.v3"

	"padel_notifier/internal/app"
	"padel_notifier/internal/domain/booking"
	"padel_notifier/internal/domain/notification"
	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/reminder"
	"padel_notifier/internal/infra/config"
	idb "padel_notifier/internal/infra/database"
	"padel_notifier/internal/infra/fcm"
	"padel_notifier/internal/infra/ledger"
	"padel_notifier/internal/infra/logger"
	"padel_notifier/internal/infra/metrics"
	"padel_notifier/internal/infra/telegram"
	"padel_notifier/internal/infra/webhook"
)

// wiring holds the object graph shared by the commands.
type wiring struct {
	cfg     *config.AppConfig
	db      *sql.DB
	bot     *telebot.Bot
	metrics *metrics.Prometheus

	users         *idb.PostgresUserRepository
	locations     *idb.PostgresLocationRepository
	bookings      *idb.PostgresBookingRepository
	tournaments   *idb.PostgresTournamentRepository
	notifications *idb.PostgresNotificationRepository

	ledger     reminder.Ledger
	resolver   *app.RecipientResolverImpl
	dispatcher app.Dispatcher

	closers []func()
}

type wireOptions struct {
	dryRun bool
	// poll starts a long-polling Telegram bot instead of a send-only one.
	poll bool
}

func newWiring(ctx context.Context, cfg *config.AppConfig, opts wireOptions) (*wiring, error) {
	w := &wiring{cfg: cfg, metrics: metrics.NewPrometheus()}

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, logger.Component("database"))
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	w.db = db
	w.closers = append(w.closers, func() { _ = db.Close() })

	w.users = idb.NewPostgresUserRepository(db)
	w.locations = idb.NewPostgresLocationRepository(db)
	w.bookings = idb.NewPostgresBookingRepository(db)
	w.tournaments = idb.NewPostgresTournamentRepository(db)
	w.notifications = idb.NewPostgresNotificationRepository(db)
	w.resolver = app.NewRecipientResolver(w.users, w.locations, logger.Component("resolver"))

	if err := w.wireLedger(ctx, opts.dryRun); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.wireDispatcher(ctx, opts); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *wiring) wireLedger(ctx context.Context, dryRun bool) error {
	backend := w.cfg.Ledger.Backend
	if dryRun {
		backend = config.LedgerMemory
	}
	switch backend {
	case config.LedgerRedis:
		client, err := ledger.NewRedisClient(ctx, w.cfg.Ledger.RedisURL)
		if err != nil {
			return fmt.Errorf("could not connect to redis: %w", err)
		}
		w.closers = append(w.closers, func() { _ = client.Close() })
		w.ledger = ledger.NewRedis(client, w.cfg.Ledger.KeyPrefix)
	case config.LedgerMemory:
		w.ledger = ledger.NewMemory()
	default:
		w.ledger = idb.NewPostgresLedger(w.db)
	}
	logger.Log.WithField("backend", backend).Info("Idempotency ledger initialized")
	return nil
}

func (w *wiring) wireDispatcher(ctx context.Context, opts wireOptions) error {
	log := logger.Component("dispatcher")
	if opts.dryRun {
		w.dispatcher = app.NewDryRunDispatcher(log)
		return nil
	}

	var fallback push.Transport
	if w.cfg.FCM.Enabled() {
		client, err := fcm.NewClient(ctx, w.cfg.FCM)
		if err != nil {
			return err
		}
		fallback = client
	} else {
		log.Warn("FCM is not configured; only Telegram devices can be reached")
	}

	d := app.NewDispatcher(fallback, app.DispatcherOptions{
		Concurrency:      w.cfg.DispatchConcurrency,
		SendTimeout:      w.cfg.FCM.Timeout,
		AndroidChannelID: w.cfg.FCM.AndroidChannelID,
	}, log, w.metrics)

	if w.cfg.TelegramToken != "" {
		settings := telebot.Settings{
			Token: w.cfg.TelegramToken,
			OnError: func(err error, c telebot.Context) {
				entry := logger.Component("telegram").WithError(err)
				if c != nil && c.Chat() != nil {
					entry = entry.WithField("chat_id", c.Chat().ID)
				}
				entry.Error("Telegram handler error")
			},
		}
		if opts.poll {
			settings.Poller = &telebot.LongPoller{Timeout: 10 * time.Second}
		} else {
			settings.Offline = true
		}
		bot, err := telebot.NewBot(settings)
		if err != nil {
			return fmt.Errorf("could not create Telegram bot: %w", err)
		}
		w.bot = bot
		d.Route(push.PlatformTelegram, telegram.NewTransport(telegram.NewTelebotAdapter(bot)))
	}
	w.dispatcher = d
	return nil
}

func (w *wiring) evaluator() (*app.ReminderEvaluatorImpl, error) {
	loc := w.cfg.EventLocation
	return app.NewReminderEvaluator(app.ReminderEvaluatorDeps{
		Sources: []app.ReminderSource{
			app.NewMatchSource(w.tournaments, loc, logger.Component("match_source")),
			app.NewVenueBookingSource(w.bookings, loc, logger.Component("booking_source")),
			app.NewTrainingSource(w.bookings, loc, logger.Component("training_source")),
		},
		Policy:     reminder.DefaultPolicy(w.cfg.Policy.EmptyRecipients),
		Ledger:     w.ledger,
		Resolver:   w.resolver,
		Dispatcher: w.dispatcher,
		Logger:     logger.Component("evaluator"),
		Metrics:    w.metrics,
	})
}

// notificationService wires intent creation to delivery.
func (w *wiring) notificationService() *app.NotificationServiceImpl {
	intentCreated := app.NewTrigger[notification.Intent]()
	intentCreated.Subscribe(app.NewIntentDispatcher(w.resolver, w.dispatcher, logger.Component("intents")).Handle)
	return app.NewNotificationService(w.notifications, intentCreated, logger.Component("notifications"))
}

// bookingService wires booking writes to the admin notifier and the sync relay.
func (w *wiring) bookingService(notifications app.NotificationService) (*app.BookingServiceImpl, *app.SyncRelay) {
	relay := app.NewSyncRelay(&w.cfg.Sync, webhook.NewClient(w.cfg.Sync.WebhookURL, w.cfg.Sync.Timeout),
		logger.Component("sync_relay"), w.metrics)
	notifier := app.NewBookingNotifier(w.users, notifications, logger.Component("booking_notifier"))

	created := app.NewTrigger[booking.Booking]()
	created.Subscribe(notifier.HandleCreated)
	created.Subscribe(relay.HandleCreated)

	statusChanged := app.NewTrigger[app.StatusChange]()
	statusChanged.Subscribe(relay.HandleStatusChange)

	return app.NewBookingService(w.bookings, w.locations, created, statusChanged, logger.Component("bookings")), relay
}

func (w *wiring) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}
