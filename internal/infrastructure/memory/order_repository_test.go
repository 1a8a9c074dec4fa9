package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/tiffin-labs/canteen/internal/domain/order"
)

func newOrder(t *testing.T, id, token, accountID string, at time.Time) *domain.Order {
	t.Helper()
	items := []domain.LineItem{
		{FoodItemID: "dosa", Name: "Masala Dosa", Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
	}
	o, err := domain.New(id, token, accountID, items, at)
	require.NoError(t, err)
	return o
}

func TestOrderInsertAndGet(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	o := newOrder(t, "id-1", "TKN00000001", "acct-1", time.Now())
	require.NoError(t, repo.Insert(ctx, o))

	got, err := repo.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, o.Token, got.Token)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(60)))
}

func TestOrderInsertDuplicateID(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-1", "TKN00000001", "acct-1", time.Now())))
	err := repo.Insert(ctx, newOrder(t, "id-1", "TKN00000002", "acct-1", time.Now()))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOrderInsertDuplicateToken(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-1", "TKN00000001", "acct-1", time.Now())))
	err := repo.Insert(ctx, newOrder(t, "id-2", "TKN00000001", "acct-2", time.Now()))
	assert.ErrorIs(t, err, domain.ErrTokenTaken)

	_, getErr := repo.Get(ctx, "id-2")
	assert.ErrorIs(t, getErr, domain.ErrNotFound)
}

func TestOrderListFiltersByAccountNewestFirst(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-1", "TKN00000001", "acct-1", base)))
	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-2", "TKN00000002", "acct-2", base.Add(time.Minute))))
	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-3", "TKN00000003", "acct-1", base.Add(2*time.Minute))))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "id-3", all[0].ID)

	mine, err := repo.List(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "id-3", mine[0].ID)
	assert.Equal(t, "id-1", mine[1].ID)
}

func TestOrderUpdateStatusConditional(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-1", "TKN00000001", "acct-1", time.Now())))

	updated, err := repo.UpdateStatus(ctx, "id-1", domain.StatusPending, domain.StatusPreparing, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, updated.Status)
	assert.Equal(t, int64(2), updated.Version)

	// A second transition against the stale pending expectation loses.
	_, err = repo.UpdateStatus(ctx, "id-1", domain.StatusPending, domain.StatusPreparing, nil, time.Now())
	assert.ErrorIs(t, err, domain.ErrStaleStatus)

	got, err := repo.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, got.Status)
}

func TestOrderUpdateStatusStampsReadyAtOnce(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, newOrder(t, "id-1", "TKN00000001", "acct-1", time.Now())))

	_, err := repo.UpdateStatus(ctx, "id-1", domain.StatusPending, domain.StatusPreparing, nil, time.Now())
	require.NoError(t, err)

	readyTime := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	updated, err := repo.UpdateStatus(ctx, "id-1", domain.StatusPreparing, domain.StatusReady, &readyTime, readyTime)
	require.NoError(t, err)
	require.NotNil(t, updated.ReadyAt)
	assert.Equal(t, readyTime, *updated.ReadyAt)

	completed, err := repo.UpdateStatus(ctx, "id-1", domain.StatusReady, domain.StatusCompleted, nil, time.Now())
	require.NoError(t, err)
	require.NotNil(t, completed.ReadyAt)
	assert.Equal(t, readyTime, *completed.ReadyAt)
}

func TestOrderUpdateStatusNotFound(t *testing.T) {
	repo := NewOrderRepository()
	_, err := repo.UpdateStatus(context.Background(), "missing", domain.StatusPending, domain.StatusPreparing, nil, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
