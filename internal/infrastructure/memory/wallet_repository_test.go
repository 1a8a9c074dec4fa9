package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiffin-labs/canteen/internal/domain/wallet"
)

func TestWalletCreditProvisionsAccount(t *testing.T) {
	repo := NewWalletRepository()
	ctx := context.Background()

	_, err := repo.GetBalance(ctx, "acct-1")
	assert.ErrorIs(t, err, wallet.ErrAccountNotFound)

	balance, err := repo.Credit(ctx, "acct-1", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(50)))

	balance, err = repo.Credit(ctx, "acct-1", decimal.NewFromInt(20))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(70)))
}

func TestWalletDebitUnknownAccount(t *testing.T) {
	repo := NewWalletRepository()
	_, err := repo.Debit(context.Background(), "nobody", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, wallet.ErrAccountNotFound)
}

func TestWalletDebitInsufficientFunds(t *testing.T) {
	repo := NewWalletRepository()
	ctx := context.Background()
	_, err := repo.Credit(ctx, "acct-1", decimal.NewFromInt(20))
	require.NoError(t, err)

	_, err = repo.Debit(ctx, "acct-1", decimal.NewFromInt(50))
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	balance, err := repo.GetBalance(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(20)))
}

func TestWalletDebitRejectsNonPositiveAmount(t *testing.T) {
	repo := NewWalletRepository()
	_, err := repo.Debit(context.Background(), "acct-1", decimal.Zero)
	assert.ErrorIs(t, err, wallet.ErrInvalidAmount)
}

// Two concurrent debits, each individually affordable but jointly
// exceeding the balance, must produce exactly one success.
func TestWalletConcurrentDebitsNeverOverdraw(t *testing.T) {
	repo := NewWalletRepository()
	ctx := context.Background()
	_, err := repo.Credit(ctx, "acct-1", decimal.NewFromInt(100))
	require.NoError(t, err)

	amount := decimal.NewFromInt(80)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = repo.Debit(ctx, "acct-1", amount)
		}()
	}
	wg.Wait()

	var successes, rejections int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, wallet.ErrInsufficientFunds):
			rejections++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)

	balance, err := repo.GetBalance(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(20)))
}
