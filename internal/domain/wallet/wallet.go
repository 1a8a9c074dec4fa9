package wallet

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound   = errors.New("wallet: account not found")
	ErrInvalidAmount     = errors.New("wallet: amount must be greater than zero")
	ErrInsufficientFunds = errors.New("wallet: insufficient balance")
)

// Account is one prepaid balance record. The balance never goes
// negative; every mutation comes from exactly one credit or debit.
type Account struct {
	ID        string
	Balance   decimal.Decimal
	UpdatedAt time.Time
}

func NewAccount(id string) *Account {
	return &Account{
		ID:        id,
		Balance:   decimal.Zero,
		UpdatedAt: time.Now().UTC(),
	}
}

// ValidateAmount rejects non-positive credit/debit inputs.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a *Account) Credit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	a.Balance = a.Balance.Add(amount)
	a.touch()
	return nil
}

func (a *Account) Debit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.touch()
	return nil
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now().UTC()
}
