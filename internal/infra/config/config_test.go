package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padel_notifier/internal/domain/reminder"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/padel")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "*/5 * * * *", cfg.CronSpecReminderCheck)
	assert.Equal(t, 16, cfg.DispatchConcurrency)
	assert.Equal(t, 10*time.Second, cfg.FCM.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, LedgerPostgres, cfg.Ledger.Backend)
	assert.Equal(t, 4*time.Minute, cfg.Policy.PassTimeout)
	assert.Empty(t, cfg.Policy.EmptyRecipients)
	assert.Equal(t, time.UTC, cfg.EventLocation)
	assert.False(t, cfg.FCM.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/padel")
	t.Setenv("EVENT_UTC_OFFSET", "+04:00")
	t.Setenv("SYNC_WEBHOOK_URL", "https://sync.example.com/hook")
	t.Setenv("SYNC_LOCATION_IDS", "loc-1, loc-2 ,")
	t.Setenv("EMPTY_RECIPIENT_POLICY", "booking=commit, training=retry")
	t.Setenv("LEDGER_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, cfg.EventLocation).Zone()
	assert.Equal(t, 4*3600, offset)
	assert.Equal(t, []string{"loc-1", "loc-2"}, cfg.Sync.LocationIDs)
	assert.True(t, cfg.Sync.Allows("loc-2"))
	assert.False(t, cfg.Sync.Allows("loc-3"))
	assert.Equal(t, reminder.EmptyCommit, cfg.Policy.EmptyRecipients[reminder.KindBooking])
	assert.Equal(t, reminder.EmptyRetry, cfg.Policy.EmptyRecipients[reminder.KindTraining])
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing database", env: map[string]string{"DATABASE_URL": ""}},
		{name: "bad offset", env: map[string]string{"EVENT_UTC_OFFSET": "four"}},
		{name: "bad policy kind", env: map[string]string{"EMPTY_RECIPIENT_POLICY": "lesson=commit"}},
		{name: "bad policy value", env: map[string]string{"EMPTY_RECIPIENT_POLICY": "booking=sometimes"}},
		{name: "unknown ledger", env: map[string]string{"LEDGER_BACKEND": "etcd"}},
		{name: "redis without url", env: map[string]string{"LEDGER_BACKEND": "redis", "REDIS_URL": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/padel")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSyncAllowsNothingWithoutWebhook(t *testing.T) {
	c := SyncConfig{LocationIDs: []string{"loc-1"}}
	assert.False(t, c.Allows("loc-1"))
}
