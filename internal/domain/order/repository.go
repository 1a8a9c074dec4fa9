package order

import (
	"context"
	"time"
)

// Repository persists orders. Implementations must apply UpdateStatus
// as an atomic conditional write keyed on the expected current status,
// so racing staff clients cannot silently overwrite each other.
type Repository interface {
	// Insert stores a new order with its line items. It fails with
	// ErrConflict on a duplicate id and ErrTokenTaken on a duplicate
	// token, without partial writes.
	Insert(ctx context.Context, o *Order) error

	Get(ctx context.Context, id string) (*Order, error)

	// List returns orders newest first. An empty accountID means all
	// orders (staff view).
	List(ctx context.Context, accountID string) ([]*Order, error)

	// UpdateStatus commits a transition only if the stored status still
	// equals expected, bumping Version. It returns the committed order,
	// ErrStaleStatus on a status mismatch, or ErrNotFound.
	UpdateStatus(ctx context.Context, id string, expected, target Status, readyAt *time.Time, at time.Time) (*Order, error)
}
