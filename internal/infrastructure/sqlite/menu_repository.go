package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/tiffin-labs/canteen/internal/domain/menu"
)

type MenuRepository struct {
	db *sql.DB
}

func (r *MenuRepository) Get(ctx context.Context, id string) (*domain.Item, error) {
	var (
		item       domain.Item
		priceMinor int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, price, available FROM menu_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &priceMinor, &item.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("menu repository: get: %w", err)
	}
	item.Price = fromMinor(priceMinor)
	return &item, nil
}

func (r *MenuRepository) List(ctx context.Context) ([]*domain.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price, available FROM menu_items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("menu repository: list: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		var (
			item       domain.Item
			priceMinor int64
		)
		if err := rows.Scan(&item.ID, &item.Name, &priceMinor, &item.Available); err != nil {
			return nil, fmt.Errorf("menu repository: scan: %w", err)
		}
		item.Price = fromMinor(priceMinor)
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *MenuRepository) Save(ctx context.Context, item *domain.Item) error {
	if item == nil || item.ID == "" {
		return domain.ErrNotFound
	}
	priceMinor, err := toMinor(item.Price)
	if err != nil {
		return fmt.Errorf("menu repository: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO menu_items (id, name, price, available) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			available = excluded.available`,
		item.ID, item.Name, priceMinor, item.Available,
	)
	if err != nil {
		return fmt.Errorf("menu repository: save: %w", err)
	}
	return nil
}
