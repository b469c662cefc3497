// Package chat runs a pre-booking conversation with a worker.
// Worker replies arrive after a delay and are cancelled when the conversation closes.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/ai"
	"github.com/spigell/worker-finder/internal/logger"
	"github.com/spigell/worker-finder/internal/marketplace"
	"github.com/spigell/worker-finder/internal/utils"
)

const (
	DefaultReplyDelay = 2 * time.Second
	fallbackReply     = "Sorry, I can't reply right now. Please try again in a moment."
)

var (
	ErrEmptyMessage = errors.New("message must have text or an image")
	ErrClosed       = errors.New("conversation is closed")
	ErrNotSignedIn  = errors.New("chat requires a signed in user")
)

// Participant is the signed-in customer.
type Participant interface {
	Authenticated() bool
}

type Message struct {
	ID     string
	Role   ai.Role
	Sender string
	Text   string
	Image  string
	SentAt time.Time
}

type Conversation struct {
	mu       sync.Mutex
	messages []Message
	closed   bool

	worker    marketplace.Worker
	sender    string
	responder ai.Responder
	delay     time.Duration
	logger    *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	replies chan Message
}

type Option func(*Conversation)

func WithReplyDelay(d time.Duration) Option {
	return func(c *Conversation) { c.delay = d }
}

// WithSender sets the display name of the customer.
func WithSender(name string) Option {
	return func(c *Conversation) { c.sender = name }
}

// Start opens a conversation with worker.
func Start(p Participant, worker marketplace.Worker, responder ai.Responder, log *zap.Logger, opts ...Option) (*Conversation, error) {
	if p == nil || !p.Authenticated() {
		return nil, ErrNotSignedIn
	}
	if responder == nil {
		return nil, errors.New("responder is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Conversation{
		worker:    worker,
		sender:    "You",
		responder: responder,
		delay:     DefaultReplyDelay,
		logger:    logger.WithFields(log, logger.StringFields(logger.StringField{Key: logger.FieldWorkerID, Value: worker.ID})...),
		ctx:       ctx,
		cancel:    cancel,
		replies:   make(chan Message, 8),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.messages = append(c.messages, newMessage(ai.RoleSystem, "", Opener(worker.Name), ""))
	return c, nil
}

func Opener(workerName string) string {
	return fmt.Sprintf("Chat started with %s. You can discuss your requirements before booking.", workerName)
}

// Send appends a customer message and schedules the worker reply.
func (c *Conversation) Send(text, image string) (Message, error) {
	if strings.TrimSpace(text) == "" && image == "" {
		return Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, ErrClosed
	}
	msg := newMessage(ai.RoleCustomer, c.sender, text, image)
	history := c.history()
	c.messages = append(c.messages, msg)
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("chat message sent", zap.Bool("image", image != ""))

	go c.reply(history, msg)

	return msg, nil
}

func (c *Conversation) reply(history []ai.Message, msg Message) {
	defer c.wg.Done()

	if err := utils.WaitFor(c.ctx, c.delay); err != nil {
		c.logger.Debug("chat reply cancelled")
		return
	}

	text, err := c.responder.Reply(c.ctx, ai.ReplyRequest{
		WorkerName: c.worker.Name,
		Profession: c.worker.Profession,
		Location:   c.worker.Location,
		History:    history,
		Message:    ai.Message{Role: ai.RoleCustomer, Text: msg.Text, Image: msg.Image},
	})
	if c.ctx.Err() != nil {
		return
	}
	if err != nil {
		c.logger.Warn("chat responder failed", zap.Error(err))
		text = fallbackReply
	}

	answer := newMessage(ai.RoleWorker, c.worker.Name, text, "")

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.messages = append(c.messages, answer)
	c.mu.Unlock()

	select {
	case c.replies <- answer:
	case <-c.ctx.Done():
	}
}

// Replies delivers worker answers as they arrive. It is closed by Close.
func (c *Conversation) Replies() <-chan Message {
	return c.replies
}

func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

func (c *Conversation) Worker() marketplace.Worker {
	return c.worker
}

// Close cancels pending replies and waits for them to stop.
func (c *Conversation) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	close(c.replies)
}

// history must be called with mu held.
func (c *Conversation) history() []ai.Message {
	out := make([]ai.Message, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, ai.Message{Role: m.Role, Text: m.Text, Image: m.Image})
	}
	return out
}

func newMessage(role ai.Role, sender, text, image string) Message {
	return Message{
		ID:     uuid.NewString(),
		Role:   role,
		Sender: sender,
		Text:   text,
		Image:  image,
		SentAt: time.Now(),
	}
}
