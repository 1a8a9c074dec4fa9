package outbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domoutbox "github.com/tiffin-labs/canteen/internal/domain/outbox"
)

type testEvent struct {
	name string
	seq  int
}

func (e testEvent) EventName() string { return e.name }

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	var (
		mu   sync.Mutex
		seen []int
	)
	done := make(chan struct{})
	bus.Subscribe("test.event", func(ctx context.Context, e domoutbox.Event) error {
		evt := e.(testEvent)
		mu.Lock()
		seen = append(seen, evt.seq)
		if len(seen) == 3 {
			close(done)
		}
		mu.Unlock()
		return nil
	})

	for i := 1; i <= 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent{name: "test.event", seq: i}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestBusIgnoresEventsWithoutSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	assert.NoError(t, bus.Publish(context.Background(), testEvent{name: "nobody.cares"}))
}

func TestBusRecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus(zap.NewNop())
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	done := make(chan struct{})
	bus.Subscribe("test.event", func(ctx context.Context, e domoutbox.Event) error {
		panic("boom")
	})
	bus.Subscribe("test.event", func(ctx context.Context, e domoutbox.Event) error {
		close(done)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "test.event"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("panicking handler starved the others")
	}
}
