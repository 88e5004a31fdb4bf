package result

import "github.com/kailas-cloud/taxrag/internal/domain/chunk"

// Result is a single search hit. Transient, never persisted.
type Result struct {
	chunk    chunk.Chunk
	score    float64
	position int
}

// New creates a search result.
func New(c chunk.Chunk, score float64, position int) Result {
	return Result{chunk: c, score: score, position: position}
}

// Chunk returns the matched chunk.
func (r *Result) Chunk() chunk.Chunk { return r.chunk }

// Score returns the raw inner-product similarity (higher is more relevant).
func (r *Result) Score() float64 { return r.score }

// Position returns the chunk's insertion index in the store.
func (r *Result) Position() int { return r.position }
