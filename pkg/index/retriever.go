package index

import (
	"context"
	"fmt"

	"github.com/xhad/docchat/internal/models"
	"github.com/xhad/docchat/pkg/llm"
)

// Retriever is a read handle over a session's persisted index. The
// loaded snapshot is immutable; a concurrent re-ingest replaces the
// artifact atomically and is never observed mid-write.
type Retriever struct {
	index    *Index
	embedder llm.Embedder
}

// Open loads the session's persisted index and binds it to the query
// embedder. A query embedded with a different model than the one used
// at ingestion would search in a foreign vector space, so the model
// identities must match.
func Open(sess models.Session, embedder llm.Embedder) (*Retriever, error) {
	ix, err := Load(sess.IndexDir)
	if err != nil {
		return nil, err
	}
	if ix.Model != embedder.Model() {
		return nil, fmt.Errorf("%w: index built with %q, querying with %q",
			models.ErrModelMismatch, ix.Model, embedder.Model())
	}
	return &Retriever{index: ix, embedder: embedder}, nil
}

// Retrieve embeds the question and returns the top-k chunks with
// provenance and similarity scores.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]models.RetrievalResult, error) {
	vector, err := r.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return r.index.Search(vector, k)
}

// Size returns the number of chunks in the loaded snapshot.
func (r *Retriever) Size() int { return r.index.Len() }
