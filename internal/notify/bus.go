// Package notify carries user facing notifications from commands to the notification center.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	Info    Type = "info"
	Success Type = "success"
	Error   Type = "error"
)

const subscriberBuffer = 16

type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func New(typ Type, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Message:   message,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
}

// Bus fans published notifications out to every subscriber.
// A subscriber whose buffer is full misses the notification.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Notification
	next   int
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Notification)}
}

// Subscribe returns a channel of notifications and a cancel func that closes it.
func (b *Bus) Subscribe() (<-chan Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Notification, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers n and reports how many subscribers received it.
func (b *Bus) Publish(n Notification) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- n:
			delivered++
		default:
		}
	}
	return delivered
}

func (b *Bus) Info(message string) int    { return b.Publish(New(Info, message)) }
func (b *Bus) Success(message string) int { return b.Publish(New(Success, message)) }
func (b *Bus) Error(message string) int   { return b.Publish(New(Error, message)) }

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
