// Package indexer drives the ingestion pipeline: extract each file,
// cut chunks with provenance, embed the whole batch in one provider
// call, merge into the session's existing index, and persist the
// result atomically.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/xhad/docchat/internal/models"
	"github.com/xhad/docchat/pkg/chunker"
	"github.com/xhad/docchat/pkg/index"
	"github.com/xhad/docchat/pkg/llm"
	"github.com/xhad/docchat/pkg/session"
)

// File is one upload handed to Ingest: raw bytes plus the filename
// whose extension selects the extractor.
type File struct {
	Name string
	Data []byte
}

// Extractor converts one file into a Document. The production
// implementation is extractor.Extract.
type Extractor func(data []byte, filename string) (models.Document, error)

// Indexer builds and maintains per-session vector indexes.
type Indexer struct {
	store    *session.Store
	embedder llm.Embedder
	extract  Extractor
}

// New creates an Indexer. The embedder is injected, constructed once
// at process start and shared with the retrieval side.
func New(store *session.Store, embedder llm.Embedder, extract Extractor) *Indexer {
	return &Indexer{store: store, embedder: embedder, extract: extract}
}

// Ingest processes files into the session's index. An empty sessionID
// creates a fresh session; otherwise the existing one is resolved.
// Any unparseable or unsupported file aborts the whole call - callers
// needing partial success retry per file. Documents added across
// multiple calls to the same session merge into one index.
func (ix *Indexer) Ingest(ctx context.Context, sessionID string, files []File, chunkSize, overlap int) (models.IngestionReport, error) {
	var report models.IngestionReport

	splitter, err := chunker.New(chunkSize, overlap)
	if err != nil {
		return report, err
	}

	var sess models.Session
	if sessionID == "" {
		sess, err = ix.store.Create()
	} else {
		sess, err = ix.store.Resolve(sessionID)
	}
	if err != nil {
		return report, err
	}
	report.SessionID = sess.ID

	// Extract and chunk everything before touching storage, so a bad
	// file aborts with nothing persisted.
	var chunks []models.Chunk
	for _, f := range files {
		doc, err := ix.extract(f.Data, f.Name)
		if err != nil {
			return report, fmt.Errorf("ingesting %s: %w", f.Name, err)
		}
		chunks = append(chunks, splitter.Split(doc)...)
		report.DocumentsIngested++
	}
	report.ChunksCreated = len(chunks)

	// Store the upload blobs before the index is touched: blob writes
	// are idempotent overwrites, so a failure here leaves the persisted
	// index exactly as it was, and every chunk that does get indexed
	// traces back to a stored file.
	for _, f := range files {
		if err := ix.store.SaveUpload(sess, f.Name, f.Data); err != nil {
			return report, err
		}
	}

	if len(chunks) == 0 {
		// Nothing to embed; the session exists but gains no index.
		return report, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return report, err
	}

	// Single writer per session across the load-merge-persist sequence.
	ix.store.Lock(sess.ID)
	defer ix.store.Unlock(sess.ID)

	target := index.New(ix.embedder.Model())
	if index.Exists(sess.IndexDir) {
		existing, err := index.Load(sess.IndexDir)
		if err != nil {
			return report, err
		}
		if existing.Model != ix.embedder.Model() {
			return report, fmt.Errorf("%w: index built with %q, ingesting with %q",
				models.ErrModelMismatch, existing.Model, ix.embedder.Model())
		}
		target = existing
	}
	if err := target.Add(chunks, vectors); err != nil {
		return report, fmt.Errorf("%w: %v", models.ErrIndexPersistence, err)
	}
	if err := ctx.Err(); err != nil {
		// Abandoned mid-call: the half-built index stays in memory only.
		return report, err
	}
	if err := target.Save(sess.IndexDir); err != nil {
		return report, err
	}
	return report, nil
}

// IsInputError reports whether an ingestion failure is the caller's to
// fix, as opposed to a transient or system condition.
func IsInputError(err error) bool {
	return errors.Is(err, models.ErrUnsupportedFormat) ||
		errors.Is(err, models.ErrInvalidConfig) ||
		errors.Is(err, models.ErrModelMismatch)
}
