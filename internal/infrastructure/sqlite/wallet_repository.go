package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/tiffin-labs/canteen/internal/domain/wallet"
)

type WalletRepository struct {
	db *sql.DB
}

func (r *WalletRepository) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE account_id = ?`, accountID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet repository: get balance: %w", err)
	}
	return fromMinor(balance), nil
}

func (r *WalletRepository) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	minor, err := toMinor(amount)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO accounts (account_id, balance, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			balance = balance + excluded.balance,
			updated_at = excluded.updated_at`,
		accountID, minor, now,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet repository: credit: %w", err)
	}
	return r.GetBalance(ctx, accountID)
}

// Debit is a single conditional update: the balance check and the
// subtraction happen in one statement, so concurrent debits against the
// same account serialize in the database instead of racing in Go.
func (r *WalletRepository) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	minor, err := toMinor(amount)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet repository: begin debit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance - ?, updated_at = ?
		WHERE account_id = ? AND balance >= ?`,
		minor, time.Now().UTC(), accountID, minor,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet repository: debit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet repository: debit result: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing account from an overdraw attempt.
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM accounts WHERE account_id = ?`, accountID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("wallet repository: debit lookup: %w", err)
		}
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	var balance int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE account_id = ?`, accountID,
	).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("wallet repository: debit balance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("wallet repository: commit debit: %w", err)
	}
	return fromMinor(balance), nil
}
