package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/worker-finder/internal/ai"
	"github.com/spigell/worker-finder/internal/utils"
)

type contentGenerator interface {
	Generate(ctx context.Context, system string, history []*genai.Content, parts ...genai.Part) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Responder answers chat messages in the voice of the worker.
type Responder struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewResponder(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Responder {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Responder{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (r *Responder) Reply(ctx context.Context, req ai.ReplyRequest) (string, error) {
	parts, err := messageParts(req.Message)
	if err != nil {
		return "", err
	}

	system := buildPrompt(req)
	history := buildHistory(req.History)

	r.logger.Debug("gemini chat request",
		zap.String("worker", req.WorkerName),
		zap.Int("history_length", len(history)),
		zap.String("message_preview", utils.TruncateForLog(req.Message.Text, r.maxLogLen)),
	)

	reply, err := r.generator.Generate(ctx, system, history, parts...)
	if err != nil {
		return "", err
	}

	r.logger.Debug("gemini chat response",
		zap.String("worker", req.WorkerName),
		zap.Int("response_length", utf8.RuneCountInString(reply)),
		zap.String("response_preview", utils.TruncateForLog(reply, r.maxLogLen)),
	)

	return reply, nil
}

func buildPrompt(req ai.ReplyRequest) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "You are {{WORKER_NAME}}, a {{PROFESSION}} in {{LOCATION}}. Reply briefly to the customer."
	}

	replacer := strings.NewReplacer(
		"{{WORKER_NAME}}", fallback(req.WorkerName, "a worker"),
		"{{PROFESSION}}", fallback(req.Profession, "service professional"),
		"{{LOCATION}}", fallback(req.Location, "your city"),
	)
	return replacer.Replace(template)
}

const (
	contentRoleUser  = "user"
	contentRoleModel = "model"
)

// buildHistory maps customer turns to the user role and worker turns to the model role.
// System notes are not part of the model conversation.
func buildHistory(messages []ai.Message) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		var role string
		switch m.Role {
		case ai.RoleCustomer:
			role = contentRoleUser
		case ai.RoleWorker:
			role = contentRoleModel
		default:
			continue
		}
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Text}},
		})
	}
	return history
}

func messageParts(m ai.Message) ([]genai.Part, error) {
	var parts []genai.Part

	if text := strings.TrimSpace(m.Text); text != "" {
		parts = append(parts, genai.Part{Text: text})
	}

	if m.Image != "" {
		blob, err := decodeDataURL(m.Image)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.Part{InlineData: blob})
	}

	if len(parts) == 0 {
		return nil, errors.New("message must have text or an image")
	}
	return parts, nil
}

func decodeDataURL(dataURL string) (*genai.Blob, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("image is not a base64 data url")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	mimeType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	return &genai.Blob{MIMEType: mimeType, Data: data}, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
