package ingest

import (
	"github.com/kailas-cloud/taxrag/internal/domain/chunk"
	"github.com/kailas-cloud/taxrag/internal/domain/citation"
)

// Chunker turns page texts into chunks: one page, one chunk.
type Chunker struct{}

// NewChunker creates a page chunker.
func NewChunker() *Chunker { return &Chunker{} }

// Split normalizes every page, drops blank ones and tags the rest with source
// and the first citation found on the page. Page order is preserved.
func (c *Chunker) Split(pages []string, source string) []chunk.Chunk {
	chunks := make([]chunk.Chunk, 0, len(pages))
	for _, page := range pages {
		text := chunk.Normalize(page)
		if text == "" {
			continue
		}
		label, _ := citation.Extract(text)
		ch, err := chunk.New(text, source, label)
		if err != nil {
			continue
		}
		chunks = append(chunks, ch)
	}
	return chunks
}
