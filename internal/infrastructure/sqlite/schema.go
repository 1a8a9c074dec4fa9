package sqlite

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    account_id TEXT PRIMARY KEY,
    balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    id           TEXT PRIMARY KEY,
    token        TEXT NOT NULL UNIQUE,
    account_id   TEXT NOT NULL,
    total_amount INTEGER NOT NULL,
    status       TEXT NOT NULL,
    version      INTEGER NOT NULL,
    created_at   TIMESTAMP NOT NULL,
    updated_at   TIMESTAMP NOT NULL,
    ready_at     TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_orders_account_created ON orders(account_id, created_at);

CREATE TABLE IF NOT EXISTS order_items (
    order_id     TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    food_item_id TEXT NOT NULL,
    name         TEXT NOT NULL,
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    unit_price   INTEGER NOT NULL,
    PRIMARY KEY (order_id, food_item_id)
);

CREATE TABLE IF NOT EXISTS menu_items (
    id        TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    price     INTEGER NOT NULL,
    available INTEGER NOT NULL DEFAULT 1
);
`

func applySchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
