package location

import (
	"context"
	"sort"
	"time"
)

// Location is a venue with its courts and the slot labels each court offers.
type Location struct {
	ID        string
	Name      string
	Courts    map[string][]string
	CreatedAt time.Time
}

// CourtNames returns the courts in a stable order.
func (l *Location) CourtNames() []string {
	names := make([]string, 0, len(l.Courts))
	for name := range l.Courts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Location, error)
	GetByName(ctx context.Context, name string) (*Location, error)
}
