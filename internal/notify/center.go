package notify

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/store"
)

const (
	DefaultCapacity = 10
	DefaultTTL      = 5 * time.Second
	VisibleLimit    = 3
)

// Center keeps the newest notifications for a user.
// History is persisted; the active set loses each entry after the ttl.
type Center struct {
	mu      sync.Mutex
	history []Notification
	active  []Notification
	timers  map[string]*time.Timer

	ns       *store.Namespace[[]Notification]
	userID   string
	logger   *zap.Logger
	capacity int
	ttl      time.Duration

	cancel func()
	done   chan struct{}
}

type CenterOption func(*Center)

func WithTTL(ttl time.Duration) CenterOption {
	return func(c *Center) { c.ttl = ttl }
}

func WithCapacity(n int) CenterOption {
	return func(c *Center) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// NewCenter loads the stored history of userID and starts consuming bus.
func NewCenter(ctx context.Context, bus *Bus, st store.Store, userID string, logger *zap.Logger, opts ...CenterOption) (*Center, error) {
	c := &Center{
		timers:   make(map[string]*time.Timer),
		ns:       store.NewNamespace[[]Notification](st, "notifications"),
		userID:   userID,
		logger:   logger,
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	history, err := c.ns.LoadOr(ctx, userID, []Notification{})
	if err != nil {
		return nil, err
	}
	c.history = trim(history, c.capacity)

	ch, cancel := bus.Subscribe()
	c.cancel = cancel

	go func() {
		defer close(c.done)
		for n := range ch {
			c.add(n)
		}
	}()

	return c, nil
}

func (c *Center) add(n Notification) {
	c.mu.Lock()
	c.history = trim(append([]Notification{n}, c.history...), c.capacity)
	c.active = trim(append([]Notification{n}, c.active...), c.capacity)
	if c.ttl > 0 {
		id := n.ID
		c.timers[id] = time.AfterFunc(c.ttl, func() { c.Dismiss(id) })
	}
	snapshot := slices.Clone(c.history)
	c.mu.Unlock()

	c.logger.Debug("notification received",
		zap.String("type", string(n.Type)),
		zap.String("message", n.Message),
	)

	if err := c.ns.Save(context.Background(), c.userID, snapshot); err != nil {
		c.logger.Warn("failed to persist notifications", zap.Error(err))
	}
}

// Dismiss removes id from the active set. History keeps it.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}

	i := slices.IndexFunc(c.active, func(n Notification) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	c.active = slices.Delete(c.active, i, i+1)
	return true
}

// History returns the stored notifications, newest first.
func (c *Center) History() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// Visible returns up to three newest notifications that were not dismissed yet.
func (c *Center) Visible() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(trim(c.active, VisibleLimit))
}

// Clear drops the stored history.
func (c *Center) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
	return c.ns.Delete(ctx, c.userID)
}

// Close drains pending notifications and stops every dismiss timer.
func (c *Center) Close() {
	c.cancel()
	<-c.done

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

func trim(items []Notification, n int) []Notification {
	if len(items) > n {
		return items[:n]
	}
	return items
}
