// Package push describes device addresses and the transports that deliver to them.
package push

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken means the transport rejected the device token as unknown or unregistered.
	ErrInvalidToken = errors.New("invalid or unregistered device token")
	// ErrUnauthorized means the transport rejected our credentials.
	ErrUnauthorized = errors.New("transport authorization denied")
)

// Hints are optional platform-specific delivery options.
type Hints struct {
	Sound     string
	Badge     *int
	ChannelID string
}

type Message struct {
	Device Device
	Title  string
	Body   string
	Hints  Hints
}

// Transport delivers one message to one device and returns the transport's message id.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// DispatchError ties a transport failure to the device it happened on.
type DispatchError struct {
	Platform Platform
	Token    string
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("push to %s device %s: %v", e.Platform, Truncate(e.Token), e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Truncate shortens a token for logs.
func Truncate(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
