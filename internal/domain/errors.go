package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyChunk signals chunk text that is blank after whitespace normalization.
	ErrEmptyChunk = errors.New("empty chunk")
	// ErrVectorDimMismatch signals embeddings of differing dimensionality reaching the index.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidTopK signals a non-positive result count.
	ErrInvalidTopK = errors.New("top k must be positive")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingCountMismatch signals a provider that returned a different number of vectors than texts.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
	// ErrUnsupportedDocument signals a file type the document loader cannot read.
	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// DimensionMismatchError wraps ErrVectorDimMismatch with the offending sizes.
type DimensionMismatchError struct {
	Want     int
	Got      int
	Position int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: position %d has %d dimensions, index has %d",
		ErrVectorDimMismatch.Error(), e.Position, e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
// Position is -1 for a query vector.
func NewDimensionMismatch(want, got, position int) error {
	return &DimensionMismatchError{Want: want, Got: got, Position: position}
}
