// internal/domain/notification/intent.go
package notification

import (
	"strings"
	"time"
)

const (
	DefaultTitle = "Notification"
	DefaultBody  = "You have a new notification"
)

// Intent describes what to send and to whom. Either UserID is set, or
// IsAdminNotification marks a broadcast to admins and the sub-admins of Venue.
// Corresponds to the 'notifications' table.
type Intent struct {
	ID                  string
	UserID              string
	Title               string
	Body                string
	IsAdminNotification bool
	Venue               string
	Kind                string // e.g. "booking_request", "test"
	CreatedAt           time.Time
}

// WithDefaults fills in the title and body when they are blank.
func (i Intent) WithDefaults() Intent {
	if strings.TrimSpace(i.Title) == "" {
		i.Title = DefaultTitle
	}
	if strings.TrimSpace(i.Body) == "" {
		i.Body = DefaultBody
	}
	return i
}
