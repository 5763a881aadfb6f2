// Package reminder holds the alert-window policy, the schedulable event shape
// and the idempotency ledger contract shared by the evaluator and its stores.
package reminder

import (
	"fmt"
	"time"
)

// Kind is a family of schedulable events that share windows and messages.
type Kind string

const (
	KindMatch    Kind = "match"
	KindBooking  Kind = "booking"
	KindTraining Kind = "training"
)

var AllKinds = []Kind{KindMatch, KindBooking, KindTraining}

func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// Event is materialised per evaluation pass from persisted bookings and matches.
type Event struct {
	ID    string
	Kind  Kind
	Start time.Time

	// OwnerID is the booking's user id or the tournament id of a match.
	OwnerID string

	LocationLabel string
	// CourtOrMatchLabel is the court for matches and the booked court list for bookings.
	CourtOrMatchLabel string
	// MatchType is "group", "quarter final", ... for matches.
	MatchType string

	// Civil strings as stored, used in message bodies.
	DisplayDate string
	DisplayTime string
}

// Key is the ledger key for an (event, window) pair.
func Key(eventID string, label Label) string {
	return eventID + "_" + string(label)
}
