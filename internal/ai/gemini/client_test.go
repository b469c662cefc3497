package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type scriptedReply struct {
	resp *genai.GenerateContentResponse
	err  error
}

type recordedChat struct {
	mu      sync.Mutex
	reply   scriptedReply
	history []*genai.Content
	config  *genai.GenerateContentConfig
	sent    []genai.Part
}

func (c *recordedChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, parts...)
	return c.reply.resp, c.reply.err
}

type scriptedChats struct {
	mu      sync.Mutex
	replies []scriptedReply
	chats   []*recordedChat
}

func (s *scriptedChats) push(resp *genai.GenerateContentResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, scriptedReply{resp: resp, err: err})
}

func (s *scriptedChats) Create(_ context.Context, _ string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return nil, errors.New("unexpected chat")
	}
	chat := &recordedChat{reply: s.replies[0], history: history, config: config}
	s.replies = s.replies[1:]
	s.chats = append(s.chats, chat)
	return chat, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := sleep
	sleep = func(d time.Duration) { delays = append(delays, d) }
	t.Cleanup(func() { sleep = orig })
	return &delays
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	delays := noSleep(t)

	chats := &scriptedChats{}
	chats.push(nil, genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"})
	chats.push(textResponse("  I can come tomorrow.  "), nil)

	g := &Generator{chats: chats, model: "gemini-test", maxRetries: 3, logger: zap.NewNop()}

	history := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: "hi"}}}}
	out, err := g.Generate(context.Background(), "be brief", history, genai.Part{Text: "when?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "I can come tomorrow." {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(chats.chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chats.chats))
	}
	if len(*delays) != 1 || (*delays)[0] != baseBackoff {
		t.Fatalf("unexpected backoff: %v", *delays)
	}

	for _, chat := range chats.chats {
		if chat.config.SystemInstruction == nil || chat.config.SystemInstruction.Parts[0].Text != "be brief" {
			t.Fatalf("system instruction not set")
		}
		if len(chat.history) != 1 {
			t.Fatalf("history not passed: %+v", chat.history)
		}
		if len(chat.sent) != 1 || chat.sent[0].Text != "when?" {
			t.Fatalf("unexpected message: %+v", chat.sent)
		}
	}
}

func TestGenerateGivesUpAfterMaxRetries(t *testing.T) {
	noSleep(t)

	chats := &scriptedChats{}
	for range 2 {
		chats.push(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	}

	g := &Generator{chats: chats, model: "gemini-test", maxRetries: 2, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error")
	}
	if len(chats.chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chats.chats))
	}
}

func TestGenerateQuotaDelay(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantChats int
		wantErr   bool
	}{
		{name: "short delay is retried", message: "retry in 1.5s", wantChats: 2},
		{name: "long delay fails fast", message: "quota exhausted, retry after 60 seconds", wantChats: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delays := noSleep(t)

			chats := &scriptedChats{}
			chats.push(nil, genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: tt.message})
			chats.push(textResponse("ok"), nil)

			g := &Generator{chats: chats, model: "gemini-test", maxRetries: 3, logger: zap.NewNop()}

			_, err := g.GenerateContent(context.Background(), "sys", "msg")
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if len(chats.chats) != tt.wantChats {
				t.Fatalf("expected %d chats, got %d", tt.wantChats, len(chats.chats))
			}
			if !tt.wantErr && (*delays)[0] != 1500*time.Millisecond {
				t.Fatalf("unexpected delay: %v", *delays)
			}
		})
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	chats := &scriptedChats{}
	chats.push(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Generator{chats: chats, model: "gemini-test", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error")
	}
	if len(chats.chats) != 1 {
		t.Fatalf("expected a single chat, got %d", len(chats.chats))
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	chats := &scriptedChats{}
	chats.push(&genai.GenerateContentResponse{}, nil)

	g := &Generator{chats: chats, model: "gemini-test", maxRetries: 1, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for empty response")
	}
}
