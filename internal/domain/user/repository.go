package user

import (
	"context"
	"time"

	"padel_notifier/internal/domain/push"
)

// Repository defines the operations for retrieving users and their device tokens.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	ListByRoles(ctx context.Context, roles []Role) ([]*User, error)
	// SetToken registers or replaces the user's token for one platform.
	SetToken(ctx context.Context, userID string, platform push.Platform, token string) error
	// RemoveToken drops the user's token for one platform.
	RemoveToken(ctx context.Context, userID string, platform push.Platform) error
	// RemoveMatchingToken drops the platform's token only while it still equals token.
	RemoveMatchingToken(ctx context.Context, userID string, platform push.Platform, token string) error
}

// LinkCodeRepository stores one-time codes that bind a chat to an account.
type LinkCodeRepository interface {
	Create(ctx context.Context, code LinkCode) error
	// Redeem consumes an unexpired code and returns the user it was issued for.
	Redeem(ctx context.Context, code string, now time.Time) (string, error)
}
