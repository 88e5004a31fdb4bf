package chunk

import (
	"strings"

	"github.com/kailas-cloud/taxrag/internal/domain"
)

// Chunk is the smallest retrievable unit of ingested text (immutable value object).
type Chunk struct {
	text     string
	source   string
	citation string
}

// New validates and creates a Chunk.
// Text is whitespace-normalized; blank text is rejected with domain.ErrEmptyChunk.
// Citation is stored as given and never recomputed; empty means none.
func New(text, source, citation string) (Chunk, error) {
	text = Normalize(text)
	if text == "" {
		return Chunk{}, domain.ErrEmptyChunk
	}
	return Chunk{text: text, source: source, citation: citation}, nil
}

// Normalize collapses every whitespace run to a single space and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Text returns the normalized chunk content.
func (c Chunk) Text() string { return c.text }

// Source returns the originating document identifier.
func (c Chunk) Source() string { return c.source }

// Citation returns the structural label and whether one was detected.
func (c Chunk) Citation() (string, bool) { return c.citation, c.citation != "" }

// Label returns the source, suffixed with " - {citation}" when a citation is present.
func (c Chunk) Label() string {
	if c.citation == "" {
		return c.source
	}
	return c.source + " - " + c.citation
}
