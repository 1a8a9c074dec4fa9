package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiffin-labs/canteen/internal/domain/menu"
	domain "github.com/tiffin-labs/canteen/internal/domain/order"
	"github.com/tiffin-labs/canteen/internal/domain/wallet"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newOrder(t *testing.T, id, token, accountID string, at time.Time) *domain.Order {
	t.Helper()
	items := []domain.LineItem{
		{FoodItemID: "dosa", Name: "Masala Dosa", Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
		{FoodItemID: "chai", Name: "Masala Chai", Quantity: 1, UnitPrice: decimal.NewFromInt(20)},
	}
	o, err := domain.New(id, token, accountID, items, at)
	require.NoError(t, err)
	return o
}

func TestWalletCreditAndBalance(t *testing.T) {
	store := setupStore(t)
	repo := store.Wallets()
	ctx := context.Background()

	_, err := repo.GetBalance(ctx, "acct-1")
	assert.ErrorIs(t, err, wallet.ErrAccountNotFound)

	balance, err := repo.Credit(ctx, "acct-1", decimal.RequireFromString("50.25"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("50.25")))

	balance, err = repo.Credit(ctx, "acct-1", decimal.RequireFromString("0.75"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(51)))
}

func TestWalletDebitConditional(t *testing.T) {
	store := setupStore(t)
	repo := store.Wallets()
	ctx := context.Background()

	_, err := repo.Credit(ctx, "acct-1", decimal.NewFromInt(100))
	require.NoError(t, err)

	balance, err := repo.Debit(ctx, "acct-1", decimal.NewFromInt(80))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(20)))

	_, err = repo.Debit(ctx, "acct-1", decimal.NewFromInt(50))
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	_, err = repo.Debit(ctx, "ghost", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, wallet.ErrAccountNotFound)

	balance, err = repo.GetBalance(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(20)))
}

func TestWalletConcurrentDebitsNeverOverdraw(t *testing.T) {
	store := setupStore(t)
	repo := store.Wallets()
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

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, successes)

	balance, err := repo.GetBalance(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(20)))
}

func TestWalletRejectsSubMinorAmounts(t *testing.T) {
	store := setupStore(t)
	_, err := store.Wallets().Credit(context.Background(), "acct-1", decimal.RequireFromString("1.005"))
	assert.ErrorIs(t, err, wallet.ErrInvalidAmount)
}

func TestOrderRoundtrip(t *testing.T) {
	store := setupStore(t)
	repo := store.Orders()
	ctx := context.Background()

	o := newOrder(t, "id-1", "TKN00000001", "acct-1", time.Now())
	require.NoError(t, repo.Insert(ctx, o))

	got, err := repo.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, o.Token, got.Token)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(80)))
	require.Len(t, got.Items, 2)
	assert.True(t, got.CreatedAt.Equal(o.CreatedAt))
}

func TestOrderTokenUnique(t *testing.T) {
	store := setupStore(t)
	repo := store.Orders()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-1", "TKN00000001", "acct-1", time.Now())))
	err := repo.Insert(ctx, newOrder(t, "id-2", "TKN00000001", "acct-2", time.Now()))
	assert.ErrorIs(t, err, domain.ErrTokenTaken)

	// The failed insert must leave no partial rows behind.
	_, err = repo.Get(ctx, "id-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderListFiltersByAccount(t *testing.T) {
	store := setupStore(t)
	repo := store.Orders()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-1", "TKN00000001", "acct-1", base)))
	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-2", "TKN00000002", "acct-2", base.Add(time.Minute))))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "id-2", all[0].ID)

	mine, err := repo.List(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "id-1", mine[0].ID)
}

func TestOrderUpdateStatusConditional(t *testing.T) {
	store := setupStore(t)
	repo := store.Orders()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-1", "TKN00000001", "acct-1", time.Now())))

	updated, err := repo.UpdateStatus(ctx, "id-1", domain.StatusPending, domain.StatusPreparing, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, updated.Status)
	assert.Equal(t, int64(2), updated.Version)

	_, err = repo.UpdateStatus(ctx, "id-1", domain.StatusPending, domain.StatusPreparing, nil, time.Now())
	assert.ErrorIs(t, err, domain.ErrStaleStatus)

	_, err = repo.UpdateStatus(ctx, "missing", domain.StatusPending, domain.StatusPreparing, nil, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderReadyAtPersistsAcrossTransitions(t *testing.T) {
	store := setupStore(t)
	repo := store.Orders()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-1", "TKN00000001", "acct-1", time.Now())))
	_, err := repo.UpdateStatus(ctx, "id-1", domain.StatusPending, domain.StatusPreparing, nil, time.Now())
	require.NoError(t, err)

	readyTime := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	ready, err := repo.UpdateStatus(ctx, "id-1", domain.StatusPreparing, domain.StatusReady, &readyTime, readyTime)
	require.NoError(t, err)
	require.NotNil(t, ready.ReadyAt)
	assert.True(t, ready.ReadyAt.Equal(readyTime))

	completed, err := repo.UpdateStatus(ctx, "id-1", domain.StatusReady, domain.StatusCompleted, nil, time.Now())
	require.NoError(t, err)
	require.NotNil(t, completed.ReadyAt)
	assert.True(t, completed.ReadyAt.Equal(readyTime))
}

func TestMenuSaveAndList(t *testing.T) {
	store := setupStore(t)
	repo := store.Menu()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &menu.Item{
		ID: "dosa", Name: "Masala Dosa", Price: decimal.NewFromInt(60), Available: true,
	}))
	require.NoError(t, repo.Save(ctx, &menu.Item{
		ID: "chai", Name: "Masala Chai", Price: decimal.NewFromInt(12), Available: true,
	}))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "chai", items[0].ID)

	// Upsert flips availability without duplicating the row.
	require.NoError(t, repo.Save(ctx, &menu.Item{
		ID: "dosa", Name: "Masala Dosa", Price: decimal.NewFromInt(65), Available: false,
	}))
	item, err := repo.Get(ctx, "dosa")
	require.NoError(t, err)
	assert.False(t, item.Available)
	assert.True(t, item.Price.Equal(decimal.NewFromInt(65)))

	_, err = repo.Get(ctx, "ghost")
	assert.ErrorIs(t, err, menu.ErrNotFound)
}
