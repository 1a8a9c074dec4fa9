package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCredit(t *testing.T) {
	a := NewAccount("acct-1")
	require.NoError(t, a.Credit(decimal.NewFromInt(50)))
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(50)))
}

func TestAccountCreditRejectsNonPositive(t *testing.T) {
	a := NewAccount("acct-1")
	assert.ErrorIs(t, a.Credit(decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, a.Credit(decimal.NewFromInt(-5)), ErrInvalidAmount)
	assert.True(t, a.Balance.IsZero())
}

func TestAccountDebit(t *testing.T) {
	a := NewAccount("acct-1")
	require.NoError(t, a.Credit(decimal.NewFromInt(100)))

	require.NoError(t, a.Debit(decimal.NewFromInt(80)))
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(20)))
}

func TestAccountDebitInsufficientFundsLeavesBalance(t *testing.T) {
	a := NewAccount("acct-1")
	require.NoError(t, a.Credit(decimal.NewFromInt(20)))

	err := a.Debit(decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(20)))
}

func TestAccountDebitRejectsNonPositive(t *testing.T) {
	a := NewAccount("acct-1")
	assert.ErrorIs(t, a.Debit(decimal.Zero), ErrInvalidAmount)
}
