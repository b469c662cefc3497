package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/store"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

func TestBusFanOut(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	first, cancelFirst := bus.Subscribe()
	second, cancelSecond := bus.Subscribe()
	defer cancelSecond()

	assert.Equal(t, 2, bus.Success("Booking confirmed"))

	got := <-first
	assert.Equal(t, Success, got.Type)
	assert.Equal(t, "Booking confirmed", got.Message)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, got, <-second)

	cancelFirst()
	cancelFirst()
	_, open := <-first
	assert.False(t, open)
	assert.Equal(t, 1, bus.Info("still here"))

	bus.Close()
	assert.Equal(t, 0, bus.Error("after close"))

	late, _ := bus.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestCenterKeepsNewest(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	bus := NewBus()
	c, err := NewCenter(context.Background(), bus, st, "u1", zap.NewNop(), WithTTL(0))
	require.NoError(t, err)

	for i := range 12 {
		bus.Info(fmt.Sprintf("message %d", i))
		require.Eventually(t, func() bool { return len(c.History()) == min(i+1, DefaultCapacity) }, timeout, tick)
	}
	c.Close()

	history := c.History()
	require.Len(t, history, DefaultCapacity)
	assert.Equal(t, "message 11", history[0].Message)
	assert.Equal(t, "message 2", history[DefaultCapacity-1].Message)

	visible := c.Visible()
	require.Len(t, visible, VisibleLimit)
	assert.Equal(t, "message 11", visible[0].Message)

	reopened, err := NewCenter(context.Background(), NewBus(), st, "u1", zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, history, reopened.History())
	assert.Empty(t, reopened.Visible())
}

func TestCenterAutoDismiss(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	c, err := NewCenter(context.Background(), bus, store.NewMemoryStore(), "u1", zap.NewNop(), WithTTL(20*time.Millisecond))
	require.NoError(t, err)
	defer c.Close()

	bus.Error("Payment failed")

	require.Eventually(t, func() bool { return len(c.History()) == 1 }, timeout, tick)
	require.Eventually(t, func() bool { return len(c.Visible()) == 0 }, timeout, tick)
	assert.Len(t, c.History(), 1)
}

func TestCenterCloseStopsTimers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	c, err := NewCenter(context.Background(), bus, store.NewMemoryStore(), "u1", zap.NewNop(), WithTTL(time.Hour))
	require.NoError(t, err)

	bus.Success("Saved")
	c.Close()

	assert.Len(t, c.Visible(), 1)
	assert.Empty(t, c.timers)
}

func TestCenterDismissAndClear(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	bus := NewBus()
	c, err := NewCenter(context.Background(), bus, st, "u1", zap.NewNop(), WithTTL(time.Hour))
	require.NoError(t, err)
	defer c.Close()

	n := New(Info, "hello")
	bus.Publish(n)
	require.Eventually(t, func() bool { return len(c.Visible()) == 1 }, timeout, tick)

	assert.True(t, c.Dismiss(n.ID))
	assert.False(t, c.Dismiss(n.ID))
	assert.Empty(t, c.Visible())

	require.NoError(t, c.Clear(context.Background()))
	assert.Empty(t, c.History())
	_, err = st.Get(context.Background(), "notifications_u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
