package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/marketplace"
	"github.com/spigell/worker-finder/internal/notify"
	"github.com/spigell/worker-finder/internal/session"
	"github.com/spigell/worker-finder/internal/store"
)

func newTestRuntime(t *testing.T) *appState {
	t.Helper()

	ctx := context.Background()
	lg := zap.NewNop()
	config := &Config{Notifications: &NotificationsConfig{TTL: time.Minute}}
	st := store.NewMemoryStore()
	bus := notify.NewBus()

	center, err := openCenter(ctx, config, bus, st, guestID, lg)
	require.NoError(t, err)

	state := &appState{
		ctx:      ctx,
		logger:   lg,
		config:   config,
		store:    st,
		sessions: session.NewManager(st, lg),
		session:  &session.Session{},
		client:   marketplace.New(lg, "http://localhost", ""),
		bus:      bus,
		center:   center,
	}
	t.Cleanup(func() {
		state.center.Close()
		state.bus.Close()
	})
	return state
}

func TestSaveSessionMovesNotificationsToUser(t *testing.T) {
	rt = newTestRuntime(t)
	t.Cleanup(func() { rt = nil })

	saveSession(&marketplace.AuthResponse{
		Token:   "tok",
		Account: marketplace.Account{ID: "u1", Name: "Meera", Role: marketplace.RoleUser},
	})
	assert.True(t, rt.client.HasToken())

	rt.bus.Success("Welcome back, Meera!")
	require.Eventually(t, func() bool { return len(rt.center.History()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Welcome back, Meera!", rt.center.History()[0].Message)

	guest, err := openCenter(rt.ctx, rt.config, notify.NewBus(), rt.store, guestID, rt.logger)
	require.NoError(t, err)
	defer guest.Close()
	assert.Empty(t, guest.History())

	user, err := openCenter(rt.ctx, rt.config, notify.NewBus(), rt.store, "u1", rt.logger)
	require.NoError(t, err)
	defer user.Close()
	assert.Len(t, user.History(), 1)
}
