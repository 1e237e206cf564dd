// Package chunker splits extracted text into overlapping fixed-size
// passages. Windows are measured in runes so multi-byte text never gets
// cut mid-character.
package chunker

import (
	"fmt"
	"sort"

	"github.com/xhad/docchat/internal/models"
)

type Splitter struct {
	size    int
	overlap int
}

// New validates the window configuration once, up front. The overlap
// must be strictly smaller than the window or the scan cannot advance.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", models.ErrInvalidConfig, size, overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split cuts a document into overlapping windows, tagging each chunk
// with its source filename, position and rune span. The partial tail
// window is kept, so an n-rune text yields ceil(n/(size-overlap))
// chunks. Empty text yields no chunks and no error.
func (s *Splitter) Split(doc models.Document) []models.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}

	step := s.size - s.overlap
	var chunks []models.Chunk
	for start, pos := 0, 0; start < len(runes); start, pos = start+step, pos+1 {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			Text:           string(runes[start:end]),
			SourceDocument: doc.Filename,
			Position:       pos,
			Start:          start,
			End:            end,
			Page:           pageAt(doc.PageOffsets, start),
		})
	}
	return chunks
}

// pageAt maps a rune offset to its 1-based page number, or 0 when the
// format has no pages.
func pageAt(offsets []int, at int) int {
	if len(offsets) == 0 {
		return 0
	}
	// First page whose start lies beyond the offset; the one before it
	// contains the offset.
	i := sort.SearchInts(offsets, at+1)
	if i == 0 {
		return 1
	}
	return i
}
