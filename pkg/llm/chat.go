package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/xhad/docchat/internal/models"
)

// ChatConfig represents the configuration for the chat generator.
type ChatConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
	BaseURL        string // Ollama server URL
	Timeout        time.Duration
}

// ChatGenerator implements Generator using an Ollama chat model.
type ChatGenerator struct {
	config ChatConfig
	client llms.Model
}

// NewChatWithConfig creates a ChatGenerator with the given configuration.
func NewChatWithConfig(config ChatConfig) (*ChatGenerator, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("%w: temperature must be between 0 and 1", models.ErrInvalidConfig)
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("%w: max tokens cannot be negative", models.ErrInvalidConfig)
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a helpful assistant. Answer the question using only the provided document excerpts. Cite the source file when you can."
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	client, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatGenerator{config: config, client: client}, nil
}

// Generate composes a single request out of the retrieved chunks, the
// prior turns in chronological order, and the current question. One
// retry is attempted on transient provider failure; beyond that the
// error surfaces.
func (g *ChatGenerator) Generate(ctx context.Context, contextChunks []string, history []models.ChatTurn, question string) (string, error) {
	messages := BuildMessages(g.config.SystemTemplate, contextChunks, history, question)

	answer, err := g.generateOnce(ctx, messages)
	if err != nil && ctx.Err() == nil && !errors.Is(err, models.ErrProviderTimeout) {
		answer, err = g.generateOnce(ctx, messages)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: provider returned an empty answer", models.ErrGeneration)
	}
	return answer, nil
}

func (g *ChatGenerator) generateOnce(ctx context.Context, messages []llms.MessageContent) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	resp, err := g.client.GenerateContent(callCtx, messages,
		llms.WithTemperature(g.config.Temperature),
		llms.WithMaxTokens(g.config.MaxTokens),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w: generation after %s", models.ErrProviderTimeout, g.config.Timeout)
		}
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: provider returned no choices", models.ErrGeneration)
	}
	return resp.Choices[0].Content, nil
}

// BuildMessages assembles the generation request. Retrieved chunks go
// first in retrieval-rank order, then the caller-supplied history
// unmodified, then the question.
func BuildMessages(system string, contextChunks []string, history []models.ChatTurn, question string) []llms.MessageContent {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
	}

	if len(contextChunks) > 0 {
		var sb strings.Builder
		sb.WriteString("Document excerpts:\n\n")
		for i, chunk := range contextChunks {
			sb.WriteString(fmt.Sprintf("[%d] %s\n\n", i+1, chunk))
		}
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, sb.String()))
	}

	for _, turn := range history {
		role := schema.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = schema.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}

	return append(messages, llms.TextParts(schema.ChatMessageTypeHuman, question))
}
