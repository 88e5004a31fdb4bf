package vectorstore

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kailas-cloud/taxrag/internal/domain"
)

// flatIndex is an exact inner-product index: row i holds the vector of chunk i.
// Immutable once built.
type flatIndex struct {
	dim  int
	rows [][]float32
}

type hit struct {
	position int
	score    float64
}

// newFlatIndex validates that every vector shares one non-zero dimensionality.
// Vectors are copied so later mutation by the caller cannot leak into the index.
func newFlatIndex(vectors [][]float32) (*flatIndex, error) {
	if len(vectors) == 0 {
		return nil, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("empty vector at position 0: %w", domain.ErrEmbeddingProviderError)
	}
	rows := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, domain.NewDimensionMismatch(dim, len(v), i)
		}
		rows[i] = slices.Clone(v)
	}
	return &flatIndex{dim: dim, rows: rows}, nil
}

func (x *flatIndex) len() int {
	if x == nil {
		return 0
	}
	return len(x.rows)
}

// search scores every row and returns the k best, highest first.
// Equal scores keep insertion order, so results are deterministic.
func (x *flatIndex) search(query []float32, k int) ([]hit, error) {
	if len(query) != x.dim {
		return nil, domain.NewDimensionMismatch(x.dim, len(query), -1)
	}
	hits := make([]hit, len(x.rows))
	for i, row := range x.rows {
		hits[i] = hit{position: i, score: dot(row, query)}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Compare(b.score, a.score)
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// dot accumulates in float64 to keep rank order stable for near-equal float32 scores.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
