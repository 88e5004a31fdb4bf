package answer

import (
	"context"

	"github.com/kailas-cloud/taxrag/internal/domain/search/result"
)

// Searcher retrieves ranked chunks for a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]result.Result, error)
}
