// Package engine answers natural-language questions against a
// session's ingested documents. It is stateless across turns: the
// caller supplies the chat history, the persisted index supplies the
// knowledge.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xhad/docchat/internal/models"
	"github.com/xhad/docchat/pkg/index"
	"github.com/xhad/docchat/pkg/llm"
	"github.com/xhad/docchat/pkg/session"
)

// Config holds the retrieval settings consumed by the engine.
type Config struct {
	TopK int
}

// Engine wires session resolution, retrieval and generation together.
type Engine struct {
	store     *session.Store
	embedder  llm.Embedder
	generator llm.Generator
	topK      int
}

// NewWithConfig creates an Engine with injected providers.
func NewWithConfig(store *session.Store, embedder llm.Embedder, generator llm.Generator, config Config) (*Engine, error) {
	if config.TopK < 1 {
		return nil, fmt.Errorf("%w: top_k must be at least 1, got %d", models.ErrInvalidConfig, config.TopK)
	}
	return &Engine{
		store:     store,
		embedder:  embedder,
		generator: generator,
		topK:      config.TopK,
	}, nil
}

// Answer resolves the session, retrieves the top-k passages for the
// question, and asks the generator once with passages, history and
// question in a single request. The returned sources are exactly the
// chunks the model read, in retrieval-rank order.
func (e *Engine) Answer(ctx context.Context, sessionID, question string, history []models.ChatTurn) (*models.Answer, error) {
	sess, err := e.store.Resolve(sessionID)
	if err != nil {
		return nil, err
	}

	retriever, err := index.Open(sess, e.embedder)
	if err != nil {
		return nil, err
	}

	results, err := retriever.Retrieve(ctx, question, e.topK)
	if err != nil {
		return nil, err
	}

	contextChunks := make([]string, len(results))
	for i, r := range results {
		contextChunks[i] = fmt.Sprintf("(from %s) %s", r.Chunk.SourceDocument, r.Chunk.Text)
	}

	answer, err := e.generator.Generate(ctx, contextChunks, history, question)
	if err != nil {
		if errors.Is(err, models.ErrGeneration) || errors.Is(err, models.ErrProviderTimeout) {
			return nil, err
		}
		// Whatever the provider implementation failed with, the caller
		// sees the taxonomy.
		return nil, fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: empty answer", models.ErrGeneration)
	}

	return &models.Answer{Text: answer, Sources: results}, nil
}
