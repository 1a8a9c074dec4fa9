package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/tiffin-labs/canteen/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	tokens map[string]string
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
		tokens: make(map[string]string),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return domain.ErrConflict
	}
	if _, exists := r.tokens[o.Token]; exists {
		return domain.ErrTokenTaken
	}

	r.orders[o.ID] = o.Clone()
	r.tokens[o.Token] = o.ID
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) List(ctx context.Context, accountID string) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if accountID != "" && o.AccountID != accountID {
			continue
		}
		result = append(result, o.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateStatus commits a transition only when the stored status still
// matches expected, so a stale request is rejected instead of silently
// overwriting a newer change.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, expected, target domain.Status, readyAt *time.Time, at time.Time) (*domain.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if o.Status != expected {
		return nil, domain.ErrStaleStatus
	}

	o.Status = target
	o.UpdatedAt = at.UTC()
	o.Version++
	if readyAt != nil && o.ReadyAt == nil {
		ready := readyAt.UTC()
		o.ReadyAt = &ready
	}
	return o.Clone(), nil
}
