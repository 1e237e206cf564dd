package index_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/docchat/internal/models"
	"github.com/xhad/docchat/pkg/index"
)

// fakeEmbedder maps text deterministically onto a small vector so
// retrieval ranking is predictable without a live provider.
type fakeEmbedder struct {
	model string
}

func (f fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f fakeEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	return f.vector(text), nil
}

func (f fakeEmbedder) Model() string { return f.model }

func (fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, 8)
	for _, r := range text {
		v[int(r)%8]++
	}
	return v
}

func sessionWithIndex(t *testing.T, model string, chunks []models.Chunk) models.Session {
	t.Helper()
	dir := t.TempDir()

	emb := fakeEmbedder{model: model}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := emb.Embed(context.Background(), texts)
	require.NoError(t, err)

	ix := index.New(model)
	require.NoError(t, ix.Add(chunks, vectors))
	require.NoError(t, ix.Save(dir))

	return models.Session{ID: "session_20240101_120000_abcd1234", IndexDir: dir}
}

func TestOpenMissingIndex(t *testing.T) {
	sess := models.Session{IndexDir: t.TempDir()}
	_, err := index.Open(sess, fakeEmbedder{model: "m"})
	assert.ErrorIs(t, err, models.ErrIndexNotFound)
}

func TestOpenRejectsModelMismatch(t *testing.T) {
	sess := sessionWithIndex(t, "model-a", []models.Chunk{
		{Text: "hello", SourceDocument: "f.txt"},
	})

	_, err := index.Open(sess, fakeEmbedder{model: "model-b"})
	assert.ErrorIs(t, err, models.ErrModelMismatch)
}

func TestRetrieveReturnsProvenance(t *testing.T) {
	sess := sessionWithIndex(t, "m", []models.Chunk{
		{Text: "the capital of france is paris", SourceDocument: "france.txt", Position: 0},
		{Text: "gophers dig burrows", SourceDocument: "animals.txt", Position: 0},
	})

	r, err := index.Open(sess, fakeEmbedder{model: "m"})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Size())

	results, err := r.Retrieve(context.Background(), "the capital of france is paris", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "france.txt", results[0].Chunk.SourceDocument)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestRetrieveClampsK(t *testing.T) {
	sess := sessionWithIndex(t, "m", []models.Chunk{
		{Text: "only one chunk", SourceDocument: "f.txt"},
	})

	r, err := index.Open(sess, fakeEmbedder{model: "m"})
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
