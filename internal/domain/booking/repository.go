package booking

import "context"

// Repository defines the operations for persisting and retrieving bookings.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	ListByStatusAndType(ctx context.Context, status Status, typ Type) ([]*Booking, error)
	ListByLocationAndDate(ctx context.Context, locationID, date string) ([]*Booking, error)
}
