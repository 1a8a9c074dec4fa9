package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/tiffin-labs/canteen/internal/domain/order"
)

type OrderRepository struct {
	db *sql.DB
}

// Insert writes the header and all line items in one transaction, so a
// failure leaves no partial order behind.
func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	totalMinor, err := toMinor(o.TotalAmount)
	if err != nil {
		return fmt.Errorf("order repository: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository: begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, token, account_id, total_amount, status, version, created_at, updated_at, ready_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Token, o.AccountID, totalMinor, string(o.Status), o.Version,
		o.CreatedAt, o.UpdatedAt, o.ReadyAt,
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "orders.token"):
			return domain.ErrTokenTaken
		case strings.Contains(msg, "orders.id"):
			return domain.ErrConflict
		}
		return fmt.Errorf("order repository: insert order: %w", err)
	}

	for _, item := range o.Items {
		priceMinor, err := toMinor(item.UnitPrice)
		if err != nil {
			return fmt.Errorf("order repository: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, food_item_id, name, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			o.ID, item.FoodItemID, item.Name, item.Quantity, priceMinor,
		); err != nil {
			return fmt.Errorf("order repository: insert item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("order repository: commit insert: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, token, account_id, total_amount, status, version, created_at, updated_at, ready_at
		FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) List(ctx context.Context, accountID string) ([]*domain.Order, error) {
	query := `
		SELECT id, token, account_id, total_amount, status, version, created_at, updated_at, ready_at
		FROM orders`
	args := []any{}
	if accountID != "" {
		query += ` WHERE account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("order repository: list: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order repository: list rows: %w", err)
	}

	for _, o := range orders {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateStatus commits only when the stored status still equals
// expected. Zero rows affected means either a stale transition or a
// missing order; a follow-up read tells them apart.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, expected, target domain.Status, readyAt *time.Time, at time.Time) (*domain.Order, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, updated_at = ?, version = version + 1,
		    ready_at = COALESCE(ready_at, ?)
		WHERE id = ? AND status = ?`,
		string(target), at.UTC(), readyAt, id, string(expected),
	)
	if err != nil {
		return nil, fmt.Errorf("order repository: update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("order repository: update status result: %w", err)
	}
	if affected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrStaleStatus
	}
	return r.Get(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o          domain.Order
		status     string
		totalMinor int64
		readyAt    sql.NullTime
	)
	err := row.Scan(&o.ID, &o.Token, &o.AccountID, &totalMinor, &status,
		&o.Version, &o.CreatedAt, &o.UpdatedAt, &readyAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order repository: scan: %w", err)
	}
	o.TotalAmount = fromMinor(totalMinor)
	o.Status = domain.Status(status)
	if readyAt.Valid {
		ready := readyAt.Time.UTC()
		o.ReadyAt = &ready
	}
	return &o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT food_item_id, name, quantity, unit_price
		FROM order_items WHERE order_id = ?`, o.ID)
	if err != nil {
		return fmt.Errorf("order repository: load items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item       domain.LineItem
			priceMinor int64
		)
		if err := rows.Scan(&item.FoodItemID, &item.Name, &item.Quantity, &priceMinor); err != nil {
			return fmt.Errorf("order repository: scan item: %w", err)
		}
		item.UnitPrice = fromMinor(priceMinor)
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}
