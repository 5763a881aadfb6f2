package reminder

import (
	"context"
	"time"
)

// Record is the immutable audit entry written once a window has been dispatched.
type Record struct {
	Key         string    `json:"key"`
	EventID     string    `json:"eventId"`
	Kind        Kind      `json:"kind"`
	Window      Label     `json:"window"`
	UserID      string    `json:"userId,omitempty"`
	DeviceCount int       `json:"deviceCount"`
	SentAt      time.Time `json:"sentAt"`
}

// Ledger gates re-sends. RecordFired must not overwrite an existing key.
type Ledger interface {
	HasFired(ctx context.Context, key string) (bool, error)
	RecordFired(ctx context.Context, rec Record) error
}
