package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New("id-1", "TKN00000001", "acct-1", testItems(), time.Now())
	require.NoError(t, err)
	return o
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPreparing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPreparing, StatusReady, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusReady, StatusCompleted, true},
		{StatusPending, StatusReady, false},
		{StatusPending, StatusCompleted, false},
		{StatusReady, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusPreparing, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionHappyPath(t *testing.T) {
	o := pendingOrder(t)
	readyTime := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	require.NoError(t, o.Transition(RoleStaff, StatusPreparing, time.Now()))
	assert.Equal(t, StatusPreparing, o.Status)
	assert.Nil(t, o.ReadyAt)

	require.NoError(t, o.Transition(RoleStaff, StatusReady, readyTime))
	require.NotNil(t, o.ReadyAt)
	assert.Equal(t, readyTime, *o.ReadyAt)

	// Completing must not disturb the ready stamp.
	require.NoError(t, o.Transition(RoleStaff, StatusCompleted, time.Now()))
	assert.Equal(t, readyTime, *o.ReadyAt)
	assert.True(t, o.Status.Terminal())
}

func TestTransitionCancelled(t *testing.T) {
	o := pendingOrder(t)
	require.NoError(t, o.Transition(RoleStaff, StatusCancelled, time.Now()))
	assert.Equal(t, StatusCancelled, o.Status)
	assert.True(t, o.Status.Terminal())

	err := o.Transition(RoleStaff, StatusPreparing, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionForbiddenForCustomer(t *testing.T) {
	o := pendingOrder(t)
	err := o.Transition(RoleCustomer, StatusPreparing, time.Now())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, StatusPending, o.Status)
}

func TestTransitionRejectsSkippedState(t *testing.T) {
	o := pendingOrder(t)
	err := o.Transition(RoleStaff, StatusCompleted, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPending, o.Status)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	o := pendingOrder(t)
	err := o.Transition(RoleStaff, Status("shipped"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
