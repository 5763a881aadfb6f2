// internal/domain/notification/repository.go
package notification

import "context"

// Repository persists notification intents.
type Repository interface {
	Create(ctx context.Context, intent *Intent) error
	GetByID(ctx context.Context, id string) (*Intent, error)
}
