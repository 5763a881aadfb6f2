package app

import (
	"time"

	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/reminder"
)

// Metrics receives counters from the reminder engine, dispatcher and sync relay.
type Metrics interface {
	ReminderFired(kind reminder.Kind, window reminder.Label)
	PushSent(platform push.Platform, ok bool)
	WebhookPosted(ok bool)
	PassCompleted(kind reminder.Kind, took time.Duration)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ReminderFired(reminder.Kind, reminder.Label) {}
func (NopMetrics) PushSent(push.Platform, bool)                {}
func (NopMetrics) WebhookPosted(bool)                          {}
func (NopMetrics) PassCompleted(reminder.Kind, time.Duration)  {}
