// Command notifier runs the reminder engine and its booking API.
//
// Usage:
//
//	notifier serve
//	notifier evaluate --kind booking --dry-run
//	notifier migrate
//	notifier send-test --user <id>
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"padel_notifier/internal/app"
	"padel_notifier/internal/domain/notification"
	"padel_notifier/internal/domain/reminder"
	"padel_notifier/internal/infra/config"
	idb "padel_notifier/internal/infra/database"
	"padel_notifier/internal/infra/httpapi"
	"padel_notifier/internal/infra/logger"
	"padel_notifier/internal/infra/scheduler"
	"padel_notifier/internal/infra/telegram"
)

func main() {
	root := &cobra.Command{
		Use:           "notifier",
		Short:         "Reminder evaluation and push fan-out for bookings, training and tournament matches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(evaluateCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(sendTestCmd())

	if err := root.Execute(); err != nil {
		logger.Log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	logger.Log.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"log_level":   cfg.LogLevel,
		"offset":      cfg.EventUTCOffset,
	}).Info("Configuration loaded")
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, the booking API and the Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			w, err := newWiring(ctx, cfg, wireOptions{poll: true})
			if err != nil {
				return err
			}
			defer w.Close()

			evaluator, err := w.evaluator()
			if err != nil {
				return err
			}
			reminders := scheduler.NewReminderScheduler(evaluator, evaluator.Kinds(), logger.Component("scheduler"),
				cfg.CronSpecReminderCheck, cfg.Policy.PassTimeout)
			if err := reminders.Start(); err != nil {
				return err
			}

			notifications := w.notificationService()
			bookings, relay := w.bookingService(notifications)
			devices := app.NewDeviceService(w.users, idb.NewPostgresLinkCodeRepository(w.db), logger.Component("devices"))

			if w.bot != nil {
				telegram.RegisterBotCommands(ctx, w.bot, telegram.NewCommands(devices, logger.Component("telegram")))
				go w.bot.Start()
				logger.Log.Info("Telegram bot started")
			}

			handler := httpapi.NewHandler(bookings, notifications, devices, logger.Component("http"))
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
				Handler:           httpapi.NewRouter(&cfg.HTTP, handler, w.metrics.Handler()),
				ReadHeaderTimeout: 10 * time.Second,
			}
			serveErr := make(chan error, 1)
			go func() {
				logger.Log.WithField("addr", srv.Addr).Info("HTTP server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err = <-serveErr:
				logger.Log.WithError(err).Error("HTTP server failed")
			}

			logger.Log.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			if w.bot != nil {
				w.bot.Stop()
			}
			reminders.Stop()
			if err := relay.Close(shutdownCtx); err != nil {
				logger.Log.WithError(err).Warn("Sync webhooks still in flight at shutdown")
			}
			logger.Log.Info("Shut down gracefully")
			return err
		},
	}
}

func evaluateCmd() *cobra.Command {
	var (
		kindFlag string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one evaluation pass now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Policy.PassTimeout)
			defer cancel()

			w, err := newWiring(ctx, cfg, wireOptions{dryRun: dryRun})
			if err != nil {
				return err
			}
			defer w.Close()

			evaluator, err := w.evaluator()
			if err != nil {
				return err
			}

			var summaries []app.PassSummary
			if kindFlag == "" {
				summaries = evaluator.RunPass(ctx)
			} else {
				kind, err := reminder.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				summary, err := evaluator.RunKind(ctx, kind)
				if err != nil {
					return err
				}
				summaries = append(summaries, summary)
			}

			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%-9s scanned=%d fired=%d already=%d empty=%d failed=%d ledger_errors=%d took=%s\n",
					s.Kind, s.Scanned, s.Fired, s.AlreadyFired, s.NoRecipients, s.Failed, s.LedgerErrors, s.Took.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only evaluate this event kind (match, booking, training)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log pushes instead of sending them and keep the ledger in memory")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := idb.NewPostgresConnection(cmd.Context(), cfg.DatabaseURL, logger.Component("database"))
			if err != nil {
				return err
			}
			defer db.Close()

			if err := idb.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Log.Info("Schema applied")
			return nil
		},
	}
}

func sendTestCmd() *cobra.Command {
	var (
		userID string
		admin  bool
		venue  string
	)
	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Create a test notification and deliver it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" && !admin {
				return errors.New("either --user or --admin is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			w, err := newWiring(cmd.Context(), cfg, wireOptions{})
			if err != nil {
				return err
			}
			defer w.Close()

			intent, err := w.notificationService().CreateIntent(cmd.Context(), notification.Intent{
				UserID:              userID,
				IsAdminNotification: admin,
				Venue:               venue,
				Title:               "Test Notification",
				Body:                "This is a test notification from the notifier",
				Kind:                "test",
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created notification %s\n", intent.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Recipient user id")
	cmd.Flags().BoolVar(&admin, "admin", false, "Broadcast to admins instead of one user")
	cmd.Flags().StringVar(&venue, "venue", "", "Venue that scopes sub-admins for --admin")
	return cmd
}
