package booking

import (
	"sort"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}

type Type string

const (
	TypeVenue    Type = "venue"
	TypeTraining Type = "training"
)

// Booking is a reservation of one or more court slots at a location.
type Booking struct {
	ID           string
	UserID       string
	LocationID   string
	LocationName string
	Date         string // civil, YYYY-MM-DD or DD/MM/YYYY
	Time         string // civil, H:MM AM|PM
	EndTime      string
	Type         Type
	Courts       map[string][]string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CourtLabel renders the booked courts as "Court 1, Court 2".
func (b *Booking) CourtLabel() string {
	names := make([]string, 0, len(b.Courts))
	for name := range b.Courts {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// HoldsSlots reports whether the booking still occupies its slots.
func (b *Booking) HoldsSlots() bool {
	return b.Status != StatusCancelled && b.Status != StatusRejected
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Status  *Status
	Courts  map[string][]string
	Time    *string
	EndTime *string
}

// Apply mutates b and reports the previous status.
func (p Patch) Apply(b *Booking) (previous Status) {
	previous = b.Status
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Courts != nil {
		b.Courts = p.Courts
	}
	if p.Time != nil {
		b.Time = *p.Time
	}
	if p.EndTime != nil {
		b.EndTime = *p.EndTime
	}
	return previous
}
