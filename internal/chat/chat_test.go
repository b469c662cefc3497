package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/worker-finder/internal/ai"
	"github.com/spigell/worker-finder/internal/marketplace"
)

type participant bool

func (p participant) Authenticated() bool { return bool(p) }

type recordingResponder struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []ai.ReplyRequest
}

func (r *recordingResponder) Reply(_ context.Context, req ai.ReplyRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return r.reply, r.err
}

func (r *recordingResponder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

var ravi = marketplace.Worker{ID: "w1", Name: "Ravi", Profession: "Plumber", Location: "Pune"}

func TestStartRequiresSignedInUser(t *testing.T) {
	_, err := Start(participant(false), ravi, NewCannedResponder(), zap.NewNop())
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = Start(nil, ravi, NewCannedResponder(), zap.NewNop())
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestConversationOpener(t *testing.T) {
	c, err := Start(participant(true), ravi, NewCannedResponder(), zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, "Chat started with Ravi. You can discuss your requirements before booking.", msgs[0].Text)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	c, err := Start(participant(true), ravi, NewCannedResponder(), zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Send("   ", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, c.Messages(), 1)
}

func TestWorkerReplies(t *testing.T) {
	responder := &recordingResponder{reply: "When would you like to start?"}
	c, err := Start(participant(true), ravi, responder, zap.NewNop(), WithReplyDelay(10*time.Millisecond), WithSender("Asha"))
	require.NoError(t, err)
	defer c.Close()

	sent, err := c.Send("Kitchen tap leaks", "")
	require.NoError(t, err)
	assert.Equal(t, "Asha", sent.Sender)
	assert.NotEmpty(t, sent.ID)

	select {
	case reply := <-c.Replies():
		assert.Equal(t, ai.RoleWorker, reply.Role)
		assert.Equal(t, "Ravi", reply.Sender)
		assert.Equal(t, "When would you like to start?", reply.Text)
	case <-time.After(time.Second):
		t.Fatal("no reply")
	}

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, ai.RoleCustomer, msgs[1].Role)

	require.Len(t, responder.requests, 1)
	req := responder.requests[0]
	assert.Equal(t, "Plumber", req.Profession)
	assert.Len(t, req.History, 1)
	assert.Equal(t, "Kitchen tap leaks", req.Message.Text)
}

func TestImageOnlyMessage(t *testing.T) {
	responder := &recordingResponder{reply: "Looks like a worn washer."}
	c, err := Start(participant(true), ravi, responder, zap.NewNop(), WithReplyDelay(0))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Send("", "data:image/png;base64,AAAA")
	require.NoError(t, err)

	<-c.Replies()
	assert.Equal(t, "data:image/png;base64,AAAA", responder.requests[0].Message.Image)
}

func TestResponderFailureFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	responder := &recordingResponder{err: errors.New("quota")}
	c, err := Start(participant(true), ravi, responder, zap.New(core), WithReplyDelay(0))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Send("hello", "")
	require.NoError(t, err)

	reply := <-c.Replies()
	assert.Equal(t, fallbackReply, reply.Text)
	require.Equal(t, 1, logs.FilterMessage("chat responder failed").Len())
	assert.Equal(t, "w1", logs.All()[0].ContextMap()["worker_id"])
}

func TestCloseCancelsPendingReply(t *testing.T) {
	responder := &recordingResponder{reply: "late"}
	c, err := Start(participant(true), ravi, responder, zap.NewNop(), WithReplyDelay(time.Hour))
	require.NoError(t, err)

	_, err = c.Send("hello", "")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close did not cancel the pending reply")
	}

	assert.Equal(t, 0, responder.calls())
	assert.Len(t, c.Messages(), 2)

	_, open := <-c.Replies()
	assert.False(t, open)

	_, err = c.Send("again", "")
	assert.ErrorIs(t, err, ErrClosed)
	c.Close()
}

func TestCannedResponder(t *testing.T) {
	r := &CannedResponder{pick: func(n int) int { return n - 1 }}

	reply, err := r.Reply(context.Background(), ai.ReplyRequest{})
	require.NoError(t, err)
	assert.Equal(t, "I have experience with similar projects. When would you like to start?", reply)
	assert.Len(t, cannedReplies, 4)
}

func TestImageDataURL(t *testing.T) {
	dir := t.TempDir()

	png := filepath.Join(dir, "leak.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n0000"), 0o600))

	url, err := ImageDataURL(png)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("just text"), 0o600))
	_, err = ImageDataURL(text)
	assert.Error(t, err)

	_, err = ImageDataURL(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
