package menu

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("menu: item not found")
	ErrUnavailable = errors.New("menu: item currently unavailable")
)

// Item is a catalog entry. The subsystem only reads the catalog: order
// placement captures the current price and availability, catalog
// management itself lives elsewhere.
type Item struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Available bool
}

type Repository interface {
	Get(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
	// Save upserts an item; used for seeding the catalog.
	Save(ctx context.Context, item *Item) error
}
