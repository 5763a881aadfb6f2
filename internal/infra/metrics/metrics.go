// internal/infra/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/reminder"
)

const namespace = "notifier"

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// Prometheus records engine counters on its own registry.
type Prometheus struct {
	registry      *prometheus.Registry
	remindersSent *prometheus.CounterVec
	pushes        *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		remindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Reminder windows dispatched, by event kind and window.",
		}, []string{"kind", "window"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_sends_total",
			Help:      "Per-device push attempts, by platform and outcome.",
		}, []string{"platform", "outcome"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_posts_total",
			Help:      "Sync webhook deliveries by outcome.",
		}, []string{"outcome"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of one evaluation pass over one event kind.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"kind"}),
	}
	p.registry.MustRegister(
		p.remindersSent, p.pushes, p.webhooks, p.passDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) ReminderFired(kind reminder.Kind, window reminder.Label) {
	p.remindersSent.WithLabelValues(string(kind), string(window)).Inc()
}

func (p *Prometheus) PushSent(platform push.Platform, ok bool) {
	p.pushes.WithLabelValues(string(platform), outcome(ok)).Inc()
}

func (p *Prometheus) WebhookPosted(ok bool) {
	p.webhooks.WithLabelValues(outcome(ok)).Inc()
}

func (p *Prometheus) PassCompleted(kind reminder.Kind, took time.Duration) {
	p.passDuration.WithLabelValues(string(kind)).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
