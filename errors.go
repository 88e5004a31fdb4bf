package taxrag

import "github.com/kailas-cloud/taxrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrInvalidTopK            = domain.ErrInvalidTopK
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbeddingCountMismatch = domain.ErrEmbeddingCountMismatch
	ErrUnsupportedDocument    = domain.ErrUnsupportedDocument
)
