package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one row of a user's server-side cart. The server keeps at most one
// entry per product for a user.
type Entry struct {
	ID        uuid.UUID
	UserID    string
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryRepository persists server-side cart entries.
// Lookups return shared.ErrNotFound when nothing matches.
type EntryRepository interface {
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
	FindByID(ctx context.Context, userID string, id uuid.UUID) (*Entry, error)
	FindByProduct(ctx context.Context, userID, productID string) (*Entry, error)
	Save(ctx context.Context, e *Entry) error
	// Delete removes an entry and reports whether a row existed
	Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error)
	DeleteAll(ctx context.Context, userID string) error
}
