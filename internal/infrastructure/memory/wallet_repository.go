package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	domain "github.com/tiffin-labs/canteen/internal/domain/wallet"
)

type WalletRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

func NewWalletRepository() *WalletRepository {
	return &WalletRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (r *WalletRepository) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[accountID]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	return account.Balance, nil
}

// Credit provisions the ledger record on first use; a recharge is how
// an account comes into existence.
func (r *WalletRepository) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	_ = ctx
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok {
		account = domain.NewAccount(accountID)
		r.accounts[accountID] = account
	}
	if err := account.Credit(amount); err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Debit re-checks the balance under the account map lock so two
// concurrent debits can never both pass the check against a stale read.
func (r *WalletRepository) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	_ = ctx
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	if err := account.Debit(amount); err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}
