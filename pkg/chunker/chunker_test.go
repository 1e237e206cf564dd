package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/docchat/internal/models"
	"github.com/xhad/docchat/pkg/chunker"
)

func TestNewRejectsBadWindow(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -10, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chunker.New(tt.size, tt.overlap)
			assert.ErrorIs(t, err, models.ErrInvalidConfig)
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	s, err := chunker.New(100, 20)
	require.NoError(t, err)

	chunks := s.Split(models.Document{Filename: "empty.txt"})
	assert.Empty(t, chunks)
}

func TestSplitChunkCount(t *testing.T) {
	// ceil(n/step) chunks for an n-rune text, partial tail kept.
	tests := []struct {
		runes   int
		size    int
		overlap int
		want    int
	}{
		{2400, 1000, 200, 3}, // ceil(2400/800)
		{800, 1000, 200, 1},
		{801, 1000, 200, 2},
		{50, 100, 20, 1},
		{1, 10, 0, 1},
	}

	s := strings.Repeat("x", 4000)
	for _, tt := range tests {
		splitter, err := chunker.New(tt.size, tt.overlap)
		require.NoError(t, err)

		chunks := splitter.Split(models.Document{Filename: "doc.txt", Text: s[:tt.runes]})
		assert.Len(t, chunks, tt.want, "runes=%d size=%d overlap=%d", tt.runes, tt.size, tt.overlap)
	}
}

func TestSplitCoversOriginalText(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. " + strings.Repeat("Lorem ipsum dolor sit amet. ", 40)
	splitter, err := chunker.New(120, 30)
	require.NoError(t, err)

	chunks := splitter.Split(models.Document{Filename: "doc.txt", Text: text})
	require.NotEmpty(t, chunks)

	// De-overlapped concatenation reconstructs the original.
	runes := []rune(text)
	var rebuilt []rune
	for _, c := range chunks {
		part := []rune(c.Text)
		if c.Start < len(rebuilt) {
			part = part[len(rebuilt)-c.Start:]
		}
		rebuilt = append(rebuilt, part...)
	}
	assert.Equal(t, string(runes), string(rebuilt))
}

func TestSplitProvenance(t *testing.T) {
	splitter, err := chunker.New(10, 4)
	require.NoError(t, err)

	chunks := splitter.Split(models.Document{Filename: "notes.md", Text: "abcdefghijklmnopqrstuvwxyz"})
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		assert.Equal(t, "notes.md", c.SourceDocument)
		assert.Equal(t, i, c.Position)
		assert.Equal(t, i*6, c.Start)
		assert.Less(t, c.Start, c.End)
	}
}

func TestSplitMultiByteSafe(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30)
	splitter, err := chunker.New(25, 5)
	require.NoError(t, err)

	chunks := splitter.Split(models.Document{Filename: "utf8.txt", Text: text})
	for _, c := range chunks {
		assert.True(t, strings.ToValidUTF8(c.Text, "") == c.Text, "chunk must stay valid utf-8")
	}
}

func TestSplitPageAttribution(t *testing.T) {
	doc := models.Document{
		Filename:    "paper.pdf",
		Text:        strings.Repeat("a", 300),
		PageCount:   3,
		PageOffsets: []int{0, 100, 200},
	}
	splitter, err := chunker.New(50, 0)
	require.NoError(t, err)

	chunks := splitter.Split(doc)
	require.Len(t, chunks, 6)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 1, chunks[1].Page)
	assert.Equal(t, 2, chunks[2].Page)
	assert.Equal(t, 3, chunks[5].Page)
}
