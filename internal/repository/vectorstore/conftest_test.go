package vectorstore

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/taxrag/internal/domain"
	"github.com/kailas-cloud/taxrag/internal/domain/chunk"
)

// fakeEmbedder maps known texts to fixed vectors; unknown texts get fallback.
type fakeEmbedder struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	fallback   []float32
	err        error
	batchErr   error
	embedCalls int
	batches    [][]string
}

func newFakeEmbedder(vectors map[string][]float32) *fakeEmbedder {
	return &fakeEmbedder{vectors: vectors, fallback: []float32{0, 0, 0}}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	return f.fallback
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vector(text)}, nil
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.batchErr != nil {
		return domain.BatchEmbeddingResult{}, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

func (f *fakeEmbedder) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func newTestStore(t *testing.T, emb *fakeEmbedder) *Store {
	t.Helper()
	return New(emb, emb, zap.NewNop())
}

func mustChunk(t *testing.T, text, source, citation string) chunk.Chunk {
	t.Helper()
	c, err := chunk.New(text, source, citation)
	if err != nil {
		t.Fatalf("chunk.New(%q): %v", text, err)
	}
	return c
}
