package models

import "time"

// Document is the extracted form of one uploaded file. It exists only
// for the duration of the ingestion call that produced it; once chunks
// are cut from it the chunks carry the provenance.
type Document struct {
	Filename  string
	Text      string
	PageCount int
	// PageOffsets holds the rune offset at which each page starts, for
	// formats that have pages. Empty for plain text and HTML.
	PageOffsets []int
}

// Chunk is the unit of retrieval: a bounded, overlapping window of a
// document's text with enough provenance to cite it back.
type Chunk struct {
	Text           string `json:"text"`
	SourceDocument string `json:"source_document"`
	Position       int    `json:"position"`
	Start          int    `json:"start"`
	End            int    `json:"end"`
	Page           int    `json:"page,omitempty"`
}

// Session pairs an upload area with a vector index area under a single
// collision-resistant identifier.
type Session struct {
	ID        string
	CreatedAt time.Time
	UploadDir string
	IndexDir  string
}

// RetrievalResult is one ranked hit from a similarity search.
type RetrievalResult struct {
	Chunk Chunk
	Score float64
}

// ChatTurn is a single prior turn supplied by the caller. The engine is
// stateless across turns; conversational memory lives with the caller.
type ChatTurn struct {
	Role    string `json:"role"` // RoleUser or RoleAssistant
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Answer is a generated response plus the exact chunks the model read,
// so citations are provably the retrieval set and not re-derived.
type Answer struct {
	Text    string
	Sources []RetrievalResult
}

// IngestionReport summarizes one ingestion call.
type IngestionReport struct {
	SessionID         string
	DocumentsIngested int
	ChunksCreated     int
}
