package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrConflict        = errors.New("order: already exists")
	ErrTokenTaken      = errors.New("order: token already taken")
	ErrEmptyCart       = errors.New("order: cart must contain at least one item")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("order: unit price must be zero or greater")
	ErrStaleStatus     = errors.New("order: status changed by someone else")
)

// LineItem is one cart entry frozen at order time. The unit price is
// captured from the catalog when the order is placed and never follows
// later catalog changes.
type LineItem struct {
	FoodItemID string
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is the durable record of one purchase: header plus immutable
// line items. Version increments on every committed write so observers
// can tell stale snapshots from fresh ones.
type Order struct {
	ID          string
	Token       string
	AccountID   string
	TotalAmount decimal.Decimal
	Status      Status
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ReadyAt     *time.Time
	Items       []LineItem
}

// New builds a pending order from cart lines. The total is derived from
// the items; there is no way to set it independently.
func New(id, token, accountID string, items []LineItem, now time.Time) (*Order, error) {
	if id == "" {
		return nil, errors.New("order: id is required")
	}
	if token == "" {
		return nil, errors.New("order: token is required")
	}
	if accountID == "" {
		return nil, errors.New("order: account id is required")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if item.UnitPrice.Sign() < 0 {
			return nil, ErrInvalidPrice
		}
		total = total.Add(item.Subtotal())
	}

	now = now.UTC()
	return &Order{
		ID:          id,
		Token:       token,
		AccountID:   accountID,
		TotalAmount: total,
		Status:      StatusPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       append([]LineItem(nil), items...),
	}, nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	if o.ReadyAt != nil {
		at := *o.ReadyAt
		clone.ReadyAt = &at
	}
	return &clone
}
