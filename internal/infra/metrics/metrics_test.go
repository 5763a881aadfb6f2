package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"padel_notifier/internal/app"
	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/reminder"
)

var _ app.Metrics = (*Prometheus)(nil)

func TestCounters(t *testing.T) {
	p := NewPrometheus()

	p.ReminderFired(reminder.KindBooking, reminder.Label30Min)
	p.ReminderFired(reminder.KindBooking, reminder.Label30Min)
	p.PushSent(push.PlatformIOS, true)
	p.PushSent(push.PlatformIOS, false)
	p.WebhookPosted(false)
	p.PassCompleted(reminder.KindMatch, 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.remindersSent.WithLabelValues("booking", "30min")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.pushes.WithLabelValues("ios", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.webhooks.WithLabelValues("error")))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `notifier_reminders_fired_total{kind="booking",window="30min"} 2`)
	assert.Contains(t, rec.Body.String(), "notifier_pass_duration_seconds_count")
}
