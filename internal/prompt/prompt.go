package prompt

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"azure-prompt/internal/llm"

	"github.com/rs/zerolog"
)

// DefaultPrompt is sent when the caller supplies none.
const DefaultPrompt = "Hello! What's the weather like?"

//go:embed system_context.md
var systemContextTemplate string

type Options struct {
	Prompt      string
	System      string
	Context     string
	Deployment  string
	MaxTokens   int
	Temperature *float64
	TopP        *float64
}

// Runner sends one prompt per Run and writes the generated text to out.
type Runner struct {
	client llm.Client
	out    io.Writer
	logger *zerolog.Logger
}

func NewRunner(client llm.Client, out io.Writer, logger *zerolog.Logger) *Runner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Runner{
		client: client,
		out:    out,
		logger: logger,
	}
}

func (r *Runner) Run(ctx context.Context, opts Options) error {
	if r.client == nil {
		return errors.New("llm client is required")
	}
	text := opts.Prompt
	if strings.TrimSpace(text) == "" {
		text = DefaultPrompt
	}
	req := llm.ChatRequest{
		Model:       opts.Deployment,
		Messages:    BuildMessages(opts.System, opts.Context, text),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	}

	r.logger.Debug().
		Str("deployment", opts.Deployment).
		Int("messages", len(req.Messages)).
		Int("maxTokens", req.MaxTokens).
		Msg("sending prompt")

	resp, err := r.client.Chat(ctx, req)
	if err != nil {
		return err
	}

	r.logger.Info().
		Str("model", resp.Model).
		Str("finishReason", resp.FinishReason).
		Int64("promptTokens", resp.Usage.PromptTokens).
		Int64("completionTokens", resp.Usage.CompletionTokens).
		Int64("totalTokens", resp.Usage.TotalTokens).
		Msg("completion received")

	if _, err := fmt.Fprintln(r.out, resp.Content); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// BuildMessages returns an optional system message followed by the user
// prompt. A non-empty context is appended to the system message.
func BuildMessages(system, globalContext, prompt string) []llm.Message {
	messages := make([]llm.Message, 0, 2)
	if content := systemContent(system, globalContext); content != "" {
		messages = append(messages, llm.Message{
			Role:    llm.RoleSystem,
			Content: content,
		})
	}
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: prompt,
	})
	return messages
}

func systemContent(system, globalContext string) string {
	system = strings.TrimSpace(system)
	globalContext = strings.TrimSpace(globalContext)
	if globalContext == "" {
		return system
	}
	replacer := strings.NewReplacer(
		"{{system}}", system,
		"{{context}}", globalContext,
	)
	return strings.TrimSpace(replacer.Replace(systemContextTemplate))
}
