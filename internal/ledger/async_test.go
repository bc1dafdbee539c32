package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbook/internal/core"
)

func TestAsyncListenerDeliversInOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	recs, events := newRecorders("async")

	async, err := NewAsyncListener(recs[0], 4)
	require.NoError(t, err)
	require.NoError(t, svc.AddListener(async))

	require.NoError(t, svc.AddTransaction(ctx, "13/01/2025", "Bus", 2, core.Expense))
	require.NoError(t, svc.UpdateTransaction(ctx, 0, "13/01/2025", "Train", 3, core.Expense))
	_, err = svc.RemoveTransaction(ctx, "13/01/2025", "Train", 3, core.Expense)
	require.NoError(t, err)

	require.NoError(t, async.Close())
	require.Len(t, *events, 3)
	assert.Equal(t, "added", (*events)[0].kind)
	assert.Equal(t, "updated", (*events)[1].kind)
	assert.Equal(t, "removed", (*events)[2].kind)
}

func TestAsyncListenerDoesNotBlockMutator(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	release := make(chan struct{})
	delivered := make(chan core.Transaction, 8)
	async, err := NewAsyncListener(&ListenerFuncs{
		Added: func(_ context.Context, tx core.Transaction) {
			<-release
			delivered <- tx
		},
	}, 4)
	require.NoError(t, err)
	require.NoError(t, svc.AddListener(async))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			assert.NoError(t, svc.AddTransaction(ctx, "13/01/2025", "Coffee", float64(i), core.Expense))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mutations blocked behind a slow async listener")
	}

	close(release)
	require.NoError(t, async.Close())
	require.Len(t, delivered, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, float64(i), (<-delivered).Amount)
	}
}

func TestAsyncListenerIgnoresMissingCallbacksAndLateEvents(t *testing.T) {
	ctx := context.Background()
	var added int
	async, err := NewAsyncListener(&ListenerFuncs{
		Added: func(context.Context, core.Transaction) { added++ },
	}, 1)
	require.NoError(t, err)

	tx := core.Transaction{Date: "13/01/2025", Description: "x", Amount: 1, Type: core.Expense}
	async.OnTransactionAdded(ctx, tx)
	async.OnTransactionRemoved(ctx, tx)
	require.NoError(t, async.Close())
	assert.Equal(t, 1, added)

	async.OnTransactionAdded(ctx, tx)
	assert.Equal(t, 1, added, "events after Close are dropped")
	assert.ErrorIs(t, async.Close(), ErrListenerClosed)
}

func TestAsyncListenerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan error, 1)
	async, err := NewAsyncListener(&ListenerFuncs{
		Added: func(ctx context.Context, _ core.Transaction) { got <- ctx.Err() },
	}, 1)
	require.NoError(t, err)

	cancel()
	async.OnTransactionAdded(ctx, core.Transaction{})
	require.NoError(t, async.Close())
	assert.NoError(t, <-got, "delivery outlives the request context")
}

func TestNewAsyncListenerRequiresCapability(t *testing.T) {
	_, err := NewAsyncListener("not a listener", 1)
	assert.ErrorIs(t, err, ErrNoCapability)
}
