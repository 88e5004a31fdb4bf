package ingest

import (
	"context"

	"github.com/kailas-cloud/taxrag/internal/domain/chunk"
)

// Store appends chunks to the retrieval index.
type Store interface {
	AddMany(ctx context.Context, chunks []chunk.Chunk) error
}

// Loader extracts per-page text from a document on disk.
// Pages never fails: unreadable documents yield no pages.
type Loader interface {
	Pages(ctx context.Context, path string) []string
	Supports(path string) bool
}
