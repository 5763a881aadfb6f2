package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"

	"padel_notifier/internal/domain/reminder"
	"padel_notifier/internal/domain/schedule"
)

const (
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
	LedgerMemory   = "memory"
)

// AppConfig holds all configuration for the application. It is built once by
// Load and passed by pointer; nothing mutates it afterwards.
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string

	CronSpecReminderCheck string
	// EventUTCOffset is the fixed offset civil booking and match times are written in.
	EventUTCOffset string
	EventLocation  *time.Location

	DispatchConcurrency int
	TelegramToken       string

	FCM    FCMConfig
	Sync   SyncConfig
	HTTP   HTTPConfig
	Ledger LedgerConfig
	Policy PolicyConfig
}

type FCMConfig struct {
	ProjectID        string
	CredentialsFile  string
	Timeout          time.Duration
	AndroidChannelID string
}

// Enabled reports whether push through FCM can be configured.
func (c FCMConfig) Enabled() bool {
	return c.ProjectID != "" && c.CredentialsFile != ""
}

type SyncConfig struct {
	WebhookURL  string
	LocationIDs []string
	Timeout     time.Duration
}

// Allows reports whether bookings at locationID are relayed.
func (c *SyncConfig) Allows(locationID string) bool {
	if c.WebhookURL == "" {
		return false
	}
	for _, id := range c.LocationIDs {
		if id == locationID {
			return true
		}
	}
	return false
}

type HTTPConfig struct {
	Port             int
	APIKey           string
	CORSAllowOrigins []string
	RateLimitPerSec  float64
	RateLimitBurst   int
}

type LedgerConfig struct {
	Backend   string
	RedisURL  string
	KeyPrefix string
}

type PolicyConfig struct {
	EmptyRecipients map[reminder.Kind]reminder.EmptyRecipientPolicy
	PassTimeout     time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		LogLevel:              strings.ToLower(envOr("LOG_LEVEL", "info")),
		Environment:           strings.ToLower(envOr("ENVIRONMENT", "development")),
		CronSpecReminderCheck: envOr("CRON_SPEC_REMINDER_CHECK", "*/5 * * * *"),
		EventUTCOffset:        envOr("EVENT_UTC_OFFSET", "+00:00"),
		DispatchConcurrency:   envInt("DISPATCH_CONCURRENCY", 16),
		TelegramToken:         os.Getenv("TELEGRAM_TOKEN"),
		FCM: FCMConfig{
			ProjectID:        os.Getenv("FCM_PROJECT_ID"),
			CredentialsFile:  envOr("FCM_CREDENTIALS_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
			Timeout:          envDuration("FCM_TIMEOUT", 10*time.Second),
			AndroidChannelID: envOr("FCM_ANDROID_CHANNEL_ID", "high_importance_channel"),
		},
		Sync: SyncConfig{
			WebhookURL:  os.Getenv("SYNC_WEBHOOK_URL"),
			LocationIDs: envList("SYNC_LOCATION_IDS", nil),
			Timeout:     envDuration("SYNC_WEBHOOK_TIMEOUT", 5*time.Second),
		},
		HTTP: HTTPConfig{
			Port:             envInt("API_PORT", envInt("PORT", 8080)),
			APIKey:           os.Getenv("API_KEY"),
			CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),
			RateLimitPerSec:  envFloat("RATE_LIMIT_PER_SEC", 5),
			RateLimitBurst:   envInt("RATE_LIMIT_BURST", 20),
		},
		Ledger: LedgerConfig{
			Backend:   strings.ToLower(envOr("LEDGER_BACKEND", LedgerPostgres)),
			RedisURL:  os.Getenv("REDIS_URL"),
			KeyPrefix: envOr("LEDGER_KEY_PREFIX", "sent_reminders:"),
		},
		Policy: PolicyConfig{
			PassTimeout: envDuration("PASS_TIMEOUT", 4*time.Minute),
		},
	}

	loc, err := schedule.ParseOffset(cfg.EventUTCOffset)
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_UTC_OFFSET: %w", err)
	}
	cfg.EventLocation = loc

	cfg.Policy.EmptyRecipients, err = parseEmptyRecipients(os.Getenv("EMPTY_RECIPIENT_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("invalid EMPTY_RECIPIENT_POLICY: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and the ranges of tunables.
func (c *AppConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.CronSpecReminderCheck, validation.Required),
		validation.Field(&c.DispatchConcurrency, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	err = validation.ValidateStruct(&c.Ledger,
		validation.Field(&c.Ledger.Backend, validation.In(LedgerPostgres, LedgerRedis, LedgerMemory)),
		validation.Field(&c.Ledger.RedisURL, validation.When(c.Ledger.Backend == LedgerRedis, validation.Required)),
	)
	if err != nil {
		return fmt.Errorf("config ledger: %w", err)
	}
	err = validation.ValidateStruct(&c.HTTP,
		validation.Field(&c.HTTP.Port, validation.Min(1), validation.Max(65535)),
	)
	if err != nil {
		return fmt.Errorf("config http: %w", err)
	}
	return nil
}

// parseEmptyRecipients reads "booking=commit,match=retry".
func parseEmptyRecipients(raw string) (map[reminder.Kind]reminder.EmptyRecipientPolicy, error) {
	out := map[reminder.Kind]reminder.EmptyRecipientPolicy{}
	for _, pair := range envSplit(raw) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected kind=policy, got %q", pair)
		}
		kind, err := reminder.ParseKind(strings.TrimSpace(k))
		if err != nil {
			return nil, err
		}
		mode, err := reminder.ParseEmptyRecipientPolicy(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		out[kind] = mode
	}
	return out, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if parts := envSplit(os.Getenv(key)); len(parts) > 0 {
		return parts
	}
	return fallback
}

func envSplit(v string) []string {
	var result []string
	for _, p := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
