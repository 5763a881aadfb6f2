package reminder

import "fmt"

// EmptyRecipientPolicy decides what happens when a matched window resolves no devices.
type EmptyRecipientPolicy string

const (
	// EmptyRetry leaves the window uncommitted so the next pass tries again.
	EmptyRetry EmptyRecipientPolicy = "retry"
	// EmptyCommit records the window with a device count of zero.
	EmptyCommit EmptyRecipientPolicy = "commit"
)

func ParseEmptyRecipientPolicy(s string) (EmptyRecipientPolicy, error) {
	switch EmptyRecipientPolicy(s) {
	case EmptyRetry, EmptyCommit:
		return EmptyRecipientPolicy(s), nil
	}
	return "", fmt.Errorf("unknown empty recipient policy %q", s)
}

type KindPolicy struct {
	Windows Windows
	OnEmpty EmptyRecipientPolicy
}

// Policy maps each event kind to its windows.
type Policy map[Kind]KindPolicy

var (
	matchWindows = MustWindows(
		Window{Label: Label30Min, Min: 28, Max: 32},
		Window{Label: Label10Min, Min: 8, Max: 12},
		Window{Label: LabelNow, Min: -2, Max: 2},
	)
	bookingWindows = MustWindows(
		Window{Label: Label30Min, Min: 28, Max: 32},
		Window{Label: Label10Min, Min: 8, Max: 12},
	)
	trainingWindows = MustWindows(
		Window{Label: Label300Min, Min: 298, Max: 302},
		Window{Label: Label45Min, Min: 43, Max: 47},
	)
)

// DefaultPolicy returns the built-in windows with the given empty-recipient handling per kind.
// Kinds missing from onEmpty retry.
func DefaultPolicy(onEmpty map[Kind]EmptyRecipientPolicy) Policy {
	p := Policy{
		KindMatch:    {Windows: matchWindows, OnEmpty: EmptyRetry},
		KindBooking:  {Windows: bookingWindows, OnEmpty: EmptyRetry},
		KindTraining: {Windows: trainingWindows, OnEmpty: EmptyRetry},
	}
	for kind, mode := range onEmpty {
		kp, ok := p[kind]
		if !ok {
			continue
		}
		kp.OnEmpty = mode
		p[kind] = kp
	}
	return p
}
