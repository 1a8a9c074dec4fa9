package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository is the ledger. Credit and Debit must be atomic
// read-modify-write operations against the stored balance; a debit that
// would overdraw fails with ErrInsufficientFunds leaving the balance
// unchanged. Concurrent debits against the same account must never both
// pass the balance check against a stale read.
type Repository interface {
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)

	// Credit adds amount to the account, creating the ledger record on
	// first use. Recharge is the operation that provisions an account.
	Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)

	// Debit conditionally subtracts amount. Fails with
	// ErrInsufficientFunds or ErrAccountNotFound without writing.
	Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
}
