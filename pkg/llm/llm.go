// Package llm defines the provider capabilities the core depends on
// and their Ollama-backed implementations. Providers are constructed
// once at process start and shared; nothing here re-initializes a
// client behind the caller's back.
package llm

import (
	"context"

	"github.com/xhad/docchat/internal/models"
)

// Embedder maps text to fixed-length vectors. Every call under one
// Model() identity returns vectors of the same dimension.
type Embedder interface {
	// Embed generates vectors for a batch of texts in one round-trip.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne generates the vector for a single query text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// Model identifies the embedding model, recorded alongside every
	// persisted index so a mismatched query can be rejected.
	Model() string
}

// Generator produces an answer conditioned on retrieved passages, the
// prior turns of the conversation, and the current question.
type Generator interface {
	Generate(ctx context.Context, contextChunks []string, history []models.ChatTurn, question string) (string, error)
}
