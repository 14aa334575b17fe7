package domain

import "context"

// Repository persists channels keyed by id.
type Repository interface {
	// Create stores a new channel. Fails with ErrConflict if the id exists.
	Create(ctx context.Context, ch *Channel) error
	// Read loads a channel. Fails with ErrNotFound if absent.
	Read(ctx context.Context, id string) (*Channel, error)
	// Update overwrites a stored channel unconditionally.
	Update(ctx context.Context, ch *Channel) error
	// Delete removes a channel. Fails with ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
	// List returns all known channel ids.
	List(ctx context.Context) ([]string, error)
}
