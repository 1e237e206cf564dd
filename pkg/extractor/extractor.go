// Package extractor turns supported upload formats into plain text plus
// basic structural metadata. Extraction is pure: bytes in, Document
// out, nothing written to disk.
package extractor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/xhad/docchat/internal/models"
)

// SupportedExtensions lists the fixed set of formats the pipeline
// accepts. Anything else is rejected before it reaches the index.
var SupportedExtensions = []string{".txt", ".md", ".markdown", ".html", ".htm", ".pdf"}

// Extract dispatches on the filename extension. Empty extraction is a
// valid empty Document, not an error; the chunker downstream handles
// zero-chunk documents.
func Extract(data []byte, filename string) (models.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md", ".markdown":
		return extractPlain(data, filename)
	case ".html", ".htm":
		return extractHTML(data, filename)
	case ".pdf":
		return extractPDF(data, filename)
	default:
		return models.Document{}, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
}

// Supported reports whether a filename would be accepted by Extract.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

func extractPlain(data []byte, filename string) (models.Document, error) {
	text := normalize(string(data))
	doc := models.Document{Filename: filename, Text: text}
	if text != "" {
		doc.PageCount = 1
	}
	return doc, nil
}

func extractHTML(data []byte, filename string) (models.Document, error) {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return models.Document{}, fmt.Errorf("parsing html %s: %w", filename, err)
	}
	gq.Find("script, style, noscript").Remove()
	text := normalize(gq.Text())
	doc := models.Document{Filename: filename, Text: text}
	if text != "" {
		doc.PageCount = 1
	}
	return doc, nil
}

func extractPDF(data []byte, filename string) (models.Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.Document{}, fmt.Errorf("parsing pdf %s: %w", filename, err)
	}

	pages := reader.NumPage()
	pageTexts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pageTexts = append(pageTexts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Best-effort per page; a page with broken fonts still
			// leaves the rest of the document usable.
			pageTexts = append(pageTexts, "")
			continue
		}
		pageTexts = append(pageTexts, text)
	}

	text, offsets := assemblePages(pageTexts)
	return models.Document{
		Filename:    filename,
		Text:        text,
		PageCount:   pages,
		PageOffsets: offsets,
	}, nil
}

// assemblePages joins per-page texts and records the rune offset at
// which each page starts in the exact text returned. One offset per
// page, empty pages included, so a page number looked up from a chunk
// span always names the page the chunk came from. Only the tail is
// trimmed; trimming the front would shift every offset.
func assemblePages(pages []string) (string, []int) {
	var sb strings.Builder
	offsets := make([]int, 0, len(pages))
	for _, text := range pages {
		offsets = append(offsets, len([]rune(sb.String())))
		if text == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return "", nil
	}
	return strings.TrimRight(sb.String(), " \t\n"), offsets
}

// normalize collapses runs of whitespace while keeping paragraph
// breaks, in the same spirit as the upstream content cleaning.
func normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	out := strings.Join(lines, "\n")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}
