package ledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padel_notifier/internal/domain/reminder"
)

func TestMemoryKeepsFirstRecord(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	fired, err := m.HasFired(ctx, "b1_30min")
	require.NoError(t, err)
	assert.False(t, fired)

	require.NoError(t, m.RecordFired(ctx, reminder.Record{Key: "b1_30min", DeviceCount: 2}))
	require.NoError(t, m.RecordFired(ctx, reminder.Record{Key: "b1_30min", DeviceCount: 5}))

	fired, err = m.HasFired(ctx, "b1_30min")
	require.NoError(t, err)
	assert.True(t, fired)

	rec, ok := m.Get("b1_30min")
	require.True(t, ok)
	assert.Equal(t, 2, rec.DeviceCount)
	assert.Equal(t, 1, m.Len())
}

// Runs against a real server when REDIS_URL is set.
func TestRedisLedger(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	prefix := "test:" + uuid.NewString() + ":"
	l := NewRedis(client, prefix)
	t.Cleanup(func() { client.Del(context.Background(), prefix+"t1_final_now") })

	fired, err := l.HasFired(ctx, "t1_final_now")
	require.NoError(t, err)
	assert.False(t, fired)

	sentAt := time.Date(2026, 1, 27, 19, 45, 0, 0, time.UTC)
	require.NoError(t, l.RecordFired(ctx, reminder.Record{Key: "t1_final_now", EventID: "t1_final", DeviceCount: 3, SentAt: sentAt}))
	require.NoError(t, l.RecordFired(ctx, reminder.Record{Key: "t1_final_now", EventID: "t1_final", DeviceCount: 9, SentAt: sentAt}))

	rec, ok, err := l.Get(ctx, "t1_final_now")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, rec.DeviceCount)
	assert.True(t, sentAt.Equal(rec.SentAt))
}
