package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Store owns the database handle shared by the repositories.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database with settings suited to a single-process
// writer and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL improves concurrency between the reader and writer paths.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// SQLite benefits from a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Orders() *OrderRepository   { return &OrderRepository{db: s.db} }
func (s *Store) Wallets() *WalletRepository { return &WalletRepository{db: s.db} }
func (s *Store) Menu() *MenuRepository      { return &MenuRepository{db: s.db} }

// Amounts are stored as integer minor units (paise) so conditional
// updates compare numerically inside the database.
func toMinor(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("sqlite: amount %s has more than two decimal places", d)
	}
	return shifted.IntPart(), nil
}

func fromMinor(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}
