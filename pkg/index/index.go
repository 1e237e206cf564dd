// Package index implements the per-session vector index: aligned chunk
// and vector arrays with the embedding model identity recorded at build
// time, brute-force cosine search, and atomic persistence under the
// session's index directory.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/xhad/docchat/internal/models"
)

// FileName is the persisted index artifact inside a session's index
// directory.
const FileName = "index.json"

// Index holds all embeddings for one session. Chunks[i] and Vectors[i]
// stay in lockstep; provenance is positional.
type Index struct {
	Model   string         `json:"model"`
	Dim     int            `json:"dimension"`
	Chunks  []models.Chunk `json:"chunks"`
	Vectors [][]float32    `json:"vectors"`
}

// New creates an empty index bound to an embedding model identity.
func New(model string) *Index {
	return &Index{Model: model}
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.Chunks) }

// Add appends chunks with their vectors, keeping both arrays aligned.
// The first batch fixes the vector dimension; later batches must match.
func (ix *Index) Add(chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	for _, v := range vectors {
		if ix.Dim == 0 {
			ix.Dim = len(v)
		}
		if len(v) != ix.Dim {
			return fmt.Errorf("vector dimension mismatch: got %d, index has %d", len(v), ix.Dim)
		}
	}
	ix.Chunks = append(ix.Chunks, chunks...)
	ix.Vectors = append(ix.Vectors, vectors...)
	return nil
}

// Search returns the k most similar chunks by cosine similarity,
// descending, with ties broken by insertion order. k above the indexed
// count clamps silently; k below one is a caller error.
func (ix *Index) Search(query []float32, k int) ([]models.RetrievalResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", models.ErrInvalidConfig, k)
	}
	if k > len(ix.Chunks) {
		k = len(ix.Chunks)
	}

	scores := make([]float64, len(ix.Vectors))
	order := make([]int, len(ix.Vectors))
	for i, v := range ix.Vectors {
		scores[i] = cosineSimilarity(query, v)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	results := make([]models.RetrievalResult, 0, k)
	for _, i := range order[:k] {
		results = append(results, models.RetrievalResult{Chunk: ix.Chunks[i], Score: scores[i]})
	}
	return results, nil
}

// Save persists the index atomically: marshal to a temporary file in
// the same directory, then rename over the final artifact. A failure
// at any step leaves no partial index visible at the old path.
func (ix *Index) Save(dir string) error {
	data, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("%w: encoding index: %v", models.ErrIndexPersistence, err)
	}

	tmp := filepath.Join(dir, FileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", models.ErrIndexPersistence, tmp, err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, FileName)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replacing index: %v", models.ErrIndexPersistence, err)
	}
	return nil
}

// Load reads a persisted index back. A missing artifact and a broken
// one are different failures: the first means the session was never
// indexed here, the second means the stored state is damaged.
func Load(dir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no index in %s", models.ErrIndexNotFound, dir)
		}
		return nil, fmt.Errorf("%w: reading index: %v", models.ErrIndexCorrupt, err)
	}

	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("%w: decoding index: %v", models.ErrIndexCorrupt, err)
	}
	if len(ix.Chunks) != len(ix.Vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors", models.ErrIndexCorrupt, len(ix.Chunks), len(ix.Vectors))
	}
	return &ix, nil
}

// Exists reports whether a persisted index artifact is present.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
