package chi

import (
	"context"

	domanswer "github.com/kailas-cloud/taxrag/internal/domain/answer"
	healthuc "github.com/kailas-cloud/taxrag/internal/usecase/health"
)

// Answerer answers questions from the indexed corpus.
type Answerer interface {
	Answer(ctx context.Context, question string) (domanswer.Record, error)
}

// Indexer indexes a document stored on disk.
type Indexer interface {
	IndexFile(ctx context.Context, path string) (int, error)
}

// PageReader extracts page texts for document previews.
type PageReader interface {
	Pages(ctx context.Context, path string) []string
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
