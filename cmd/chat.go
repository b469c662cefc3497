package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/ai"
	"github.com/spigell/worker-finder/internal/ai/gemini"
	"github.com/spigell/worker-finder/internal/chat"
	"github.com/spigell/worker-finder/internal/marketplace"
	"github.com/spigell/worker-finder/internal/secrets"
)

const (
	chatQuit  = "/quit"
	chatImage = "/image "
)

var chatCmd = &cobra.Command{
	Use:   "chat <worker-id>",
	Short: "Chat with a worker before booking",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		worker, err := rt.client.GetWorker(rt.ctx, args[0])
		if err != nil {
			fail("getting worker", err, zap.String("worker_id", args[0]))
		}

		if err := runChat(*worker); err != nil {
			fail("chat failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(worker marketplace.Worker) error {
	sess := requireSession()

	responder, err := newResponder(rt.ctx, rt.config.Chat.AI)
	if err != nil {
		rt.logger.Warn("falling back to canned chat replies", zap.Error(err))
		responder = chat.NewCannedResponder()
	}

	opts := []chat.Option{chat.WithSender(sess.DisplayName())}
	if rt.config.Chat.ReplyDelay > 0 {
		opts = append(opts, chat.WithReplyDelay(rt.config.Chat.ReplyDelay))
	}

	conv, err := chat.Start(sess, worker, responder, rt.logger, opts...)
	if err != nil {
		return err
	}
	defer conv.Close()

	for _, m := range conv.Messages() {
		printMessage(m)
	}
	fmt.Printf("Type a message, %q to attach a photo, %q to leave.\n", strings.TrimSpace(chatImage)+" <path>", chatQuit)

	go func() {
		for reply := range conv.Replies() {
			printMessage(reply)
		}
	}()

	input := promptui.Prompt{Label: "You"}
	for {
		line, err := input.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == chatQuit {
			return nil
		}

		text, image := line, ""
		if path, ok := strings.CutPrefix(line, chatImage); ok {
			image, err = chat.ImageDataURL(strings.TrimSpace(path))
			if err != nil {
				rt.logger.Warn("attaching image", zap.Error(err))
				continue
			}
			text = ""
		}

		if _, err := conv.Send(text, image); err != nil {
			if errors.Is(err, chat.ErrEmptyMessage) {
				continue
			}
			return err
		}
	}
}

func printMessage(m chat.Message) {
	switch m.Role {
	case ai.RoleSystem:
		fmt.Printf("-- %s\n", m.Text)
	default:
		text := m.Text
		if m.Image != "" {
			text = strings.TrimSpace(text + " [photo]")
		}
		fmt.Printf("%s %s: %s\n", m.SentAt.Format("15:04"), m.Sender, text)
	}
}

func newResponder(ctx context.Context, cfg *AIConfig) (ai.Responder, error) {
	if cfg == nil || !cfg.Enabled {
		return chat.NewCannedResponder(), nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		cfg.Gemini = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set chat.ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	genLogger := rt.logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, genLogger)
	if err != nil {
		return nil, err
	}
	if cfg.Gemini.MaxRetries > 0 {
		generator.SetMaxRetries(cfg.Gemini.MaxRetries)
	}

	return gemini.NewResponder(generator, genLogger, cfg.Gemini.MaxLogLength), nil
}
